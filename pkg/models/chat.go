package models

import (
	"sync"
	"time"
)

// ChatRole tags the author of a chat message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of a listing conversation.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is an append-only conversation about a single listing.
type ChatSession struct {
	ID        string
	ListingID string

	mu       sync.Mutex
	messages []ChatMessage
}

// NewChatSession starts a session seeded with the given messages.
func NewChatSession(id, listingID string, seed ...ChatMessage) *ChatSession {
	s := &ChatSession{ID: id, ListingID: listingID}
	s.messages = append(s.messages, seed...)
	return s
}

// Append adds a message to the end of the session.
func (s *ChatSession) Append(m ChatMessage) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
}

// Messages returns a copy of the session history.
func (s *ChatSession) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the session.
func (s *ChatSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
