package gemini

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// sseStream reads `data:` events of a streamGenerateContent?alt=sse body.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	text    string
	usage   UsageMetadata
	err     error
}

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseStream{body: body, scanner: scanner}
}

// Next advances to the next event. Events without text yield an empty chunk.
func (s *sseStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		if msg := gjson.Get(data, "error.message"); msg.Exists() {
			s.err = &APIError{StatusCode: int(gjson.Get(data, "error.code").Int()), Message: msg.String()}
			return false
		}
		if !gjson.Valid(data) {
			s.err = fmt.Errorf("malformed stream event: %.80s", data)
			return false
		}
		if u := gjson.Get(data, "usageMetadata"); u.Exists() {
			s.usage = UsageMetadata{
				PromptTokenCount:     int(u.Get("promptTokenCount").Int()),
				CandidatesTokenCount: int(u.Get("candidatesTokenCount").Int()),
				TotalTokenCount:      int(u.Get("totalTokenCount").Int()),
			}
		}

		var b strings.Builder
		for _, part := range gjson.Get(data, "candidates.0.content.parts.#.text").Array() {
			b.WriteString(part.String())
		}
		s.text = b.String()
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("reading stream: %w", err)
	}
	return false
}

func (s *sseStream) Text() string { return s.text }

func (s *sseStream) Err() error { return s.err }

// Usage returns the most recent token accounting seen on the stream.
func (s *sseStream) Usage() UsageMetadata { return s.usage }

func (s *sseStream) Close() error { return s.body.Close() }
