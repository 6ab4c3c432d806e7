package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plotwise/plotwise/pkg/fallback"
	"github.com/plotwise/plotwise/pkg/gemini"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/stream"
	"github.com/plotwise/plotwise/pkg/validate"
)

// usageReporter is implemented by backend streams that report token usage.
type usageReporter interface {
	Usage() gemini.UsageMetadata
}

// Chat streams a reply to message about listing l. The aggregator always
// settles: on failure it carries a single fallback message.
func (s *Service) Chat(ctx context.Context, l models.Listing, history []models.ChatMessage, message string) *stream.Aggregator {
	start := time.Now()
	out := s.gw.Chat(ctx, l, history, message)
	if !out.OK() {
		fallback.Report(models.OpChat, out.Class, out.Err)
		s.record(ctx, models.UsageRecord{
			Operation: models.OpChat,
			Model:     out.Model,
			Outcome:   string(out.Class),
			ListingID: l.ID,
			LatencyMs: time.Since(start).Milliseconds(),
		})
		return stream.Fixed(fallback.Chat(out.Class), stream.StateFailed, out.Err)
	}

	src := out.Value
	agg := stream.New(stream.Messages{Failure: fallback.ChatFailure, Empty: fallback.ChatEmpty})
	agg.Start(ctx, src)

	go func() {
		res := agg.Wait()
		rec := models.UsageRecord{
			Operation: models.OpChat,
			Model:     out.Model,
			Outcome:   string(chatOutcome(res)),
			ListingID: l.ID,
			LatencyMs: time.Since(start).Milliseconds(),
		}
		if u, ok := src.(usageReporter); ok {
			usage := u.Usage()
			rec.PromptTokens = usage.PromptTokenCount
			rec.CompletionTokens = usage.CandidatesTokenCount
			rec.TotalTokens = usage.TotalTokenCount
		}
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
			fallback.Report(models.OpChat, validate.Classify(res.Err), res.Err)
		}
		s.record(ctx, rec)
	}()
	return agg
}

func chatOutcome(res stream.Result) validate.Class {
	switch {
	case res.Err != nil:
		return validate.Classify(res.Err)
	case res.Chunks == 0:
		return validate.ClassValidation
	default:
		return validate.ClassOK
	}
}

// Greeting is the opening model message of every conversation.
func Greeting(l models.Listing) string {
	return fmt.Sprintf("Hi! I'm your AI assistant. Ask me anything about \"%s\".", l.Title)
}

// Conversation keeps the history of one chat about a listing. Turns are
// serialized: Send waits for the previous reply to settle.
type Conversation struct {
	svc     *Service
	listing models.Listing
	session *models.ChatSession
	turn    sync.Mutex
}

// StartChat opens a conversation seeded with the greeting.
func (s *Service) StartChat(l models.Listing) *Conversation {
	greeting := models.ChatMessage{Role: models.RoleModel, Text: Greeting(l), Timestamp: time.Now().UTC()}
	return &Conversation{
		svc:     s,
		listing: l,
		session: models.NewChatSession(uuid.NewString(), l.ID, greeting),
	}
}

// ID returns the session id.
func (c *Conversation) ID() string { return c.session.ID }

// Listing returns the listing under discussion.
func (c *Conversation) Listing() models.Listing { return c.listing }

// Messages returns a copy of the history.
func (c *Conversation) Messages() []models.ChatMessage { return c.session.Messages() }

// Send appends message to the history and streams the reply. The reply is
// appended once the stream settles, before the returned channel closes.
// Updates are dropped once ctx is done; the stream still settles.
func (c *Conversation) Send(ctx context.Context, message string) <-chan stream.Update {
	c.turn.Lock()
	history := c.session.Messages()
	c.session.Append(models.ChatMessage{Role: models.RoleUser, Text: message})
	agg := c.svc.Chat(ctx, c.listing, history, message)

	out := make(chan stream.Update)
	go func() {
		defer c.turn.Unlock()
		defer close(out)
		for u := range agg.Updates() {
			select {
			case out <- u:
			case <-ctx.Done():
			}
		}
		if res := agg.Wait(); res.Text != "" {
			c.session.Append(models.ChatMessage{Role: models.RoleModel, Text: res.Text})
		}
	}()
	return out
}
