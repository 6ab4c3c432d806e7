package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/stream"
)

type chatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

// handleChat streams one reply as server-sent events. The client owns the
// history and sends it with every message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	agg := s.svc.Chat(r.Context(), l, req.History, req.Message)
	for u := range agg.Updates() {
		data, err := json.Marshal(u)
		if err != nil {
			log.Warn().Err(err).Msg("encode chat update")
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Frame types on the chat websocket.
const (
	FrameHistory = "history"
	FrameUpdate  = "update"
	FrameDone    = "done"
	FrameError   = "error"
)

// Frame is one server-to-client websocket message.
type Frame struct {
	Type     string               `json:"type"`
	Session  string               `json:"session,omitempty"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
	Update   *stream.Update       `json:"update,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// ClientMessage is one client-to-server websocket message.
type ClientMessage struct {
	Message string `json:"message"`
}

// handleChatSocket keeps a server-side conversation for the lifetime of the
// connection. The first frame carries the greeting; every client message is
// answered with its update frames and a done frame carrying the settled reply.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conv := s.svc.StartChat(l)
	if err := writeFrame(ctx, conn, Frame{Type: FrameHistory, Session: conv.ID(), Messages: conv.Messages()}); err != nil {
		return
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Str("session", conv.ID()).Msg("chat socket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || strings.TrimSpace(msg.Message) == "" {
			if err := writeFrame(ctx, conn, Frame{Type: FrameError, Error: "expected {\"message\": \"...\"}"}); err != nil {
				return
			}
			continue
		}

		for u := range conv.Send(ctx, msg.Message) {
			if err := writeFrame(ctx, conn, Frame{Type: FrameUpdate, Update: &u}); err != nil {
				return
			}
		}
		history := conv.Messages()
		if err := writeFrame(ctx, conn, Frame{Type: FrameDone, Messages: history[len(history)-1:]}); err != nil {
			return
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
