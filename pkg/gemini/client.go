// Package gemini is a minimal client for the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/plotwise/plotwise/pkg/stream"
)

// DefaultBaseURL is the public Gemini endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the Gemini API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout bounds unary calls. Streams are bounded by their context only.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = timeout
	}
}

// NewClient creates a Gemini client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    60 * time.Second,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// Generate performs a unary generateContent call.
func (c *Client) Generate(ctx context.Context, call Call) (*Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := encodeCall(call)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, fmt.Sprintf("/v1beta/models/%s:generateContent", call.Model), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, &APIError{StatusCode: out.Error.Code, Message: out.Error.Message}
	}
	return extract(&out)
}

// Stream performs a streamGenerateContent call and returns its text chunks.
// The caller must Close the returned source.
func (c *Client) Stream(ctx context.Context, call Call) (stream.Source, error) {
	body, err := encodeCall(call)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, fmt.Sprintf("/v1beta/models/%s:streamGenerateContent?alt=sse", call.Model), body)
	if err != nil {
		return nil, err
	}
	return newSSEStream(resp.Body), nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// encodeCall renders a Call as a request body. Typed fields go through
// encoding/json; the schema and nested config objects are spliced in.
func encodeCall(call Call) ([]byte, error) {
	req := Request{Contents: call.Contents}
	if call.System != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: call.System}}}
	}

	gc := &GenerationConfig{MaxOutputTokens: call.MaxOutputTokens}
	if len(call.Schema) > 0 {
		gc.ResponseMIMEType = "application/json"
	}
	if call.Image {
		gc.ResponseModalities = []string{"IMAGE"}
	}
	req.GenerationConfig = gc

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if len(call.Schema) > 0 {
		if body, err = sjson.SetRawBytes(body, "generationConfig.responseSchema", call.Schema); err != nil {
			return nil, fmt.Errorf("encode schema: %w", err)
		}
	}
	if call.ThinkingBudget != nil {
		if body, err = sjson.SetBytes(body, "generationConfig.thinkingConfig.thinkingBudget", *call.ThinkingBudget); err != nil {
			return nil, fmt.Errorf("encode thinking config: %w", err)
		}
	}
	if call.Image && call.AspectRatio != "" {
		if body, err = sjson.SetBytes(body, "generationConfig.imageConfig.aspectRatio", call.AspectRatio); err != nil {
			return nil, fmt.Errorf("encode image config: %w", err)
		}
	}
	return body, nil
}

// extract concatenates the text parts of the first candidate and decodes
// the first inline image, if any.
func extract(resp *Response) (*Completion, error) {
	out := &Completion{}
	if resp.UsageMetadata != nil {
		out.Usage = *resp.UsageMetadata
	}
	if len(resp.Candidates) == 0 {
		return out, nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			b.WriteString(p.Text)
		}
		if p.InlineData != nil && out.Image == nil {
			img, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline image: %w", err)
			}
			out.Image = img
			out.ImageMIME = p.InlineData.MIMEType
		}
	}
	out.Text = b.String()
	return out, nil
}
