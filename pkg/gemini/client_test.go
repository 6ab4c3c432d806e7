package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGenerateText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Serene "}, {"text": "lakeside plot."}]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "totalTokenCount": 17}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	budget := 0
	out, err := c.Generate(context.Background(), Call{
		Model:           "gemini-2.5-flash",
		System:          "Concise. Professional.",
		Contents:        UserText("Write a description"),
		MaxOutputTokens: 60,
		ThinkingBudget:  &budget,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Serene lakeside plot.", out.Text)
	assert.Equal(t, 17, out.Usage.TotalTokenCount)

	assert.Equal(t, "Concise. Professional.", gjson.GetBytes(gotBody, "systemInstruction.parts.0.text").String())
	assert.Equal(t, int64(60), gjson.GetBytes(gotBody, "generationConfig.maxOutputTokens").Int())
	assert.True(t, gjson.GetBytes(gotBody, "generationConfig.thinkingConfig.thinkingBudget").Exists())
	assert.False(t, gjson.GetBytes(gotBody, "generationConfig.responseMimeType").Exists())
}

func TestGenerateWithSchema(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "[\"1\"]"}]}}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	out, err := c.Generate(context.Background(), Call{
		Model:    "m",
		Contents: UserText("q"),
		Schema:   json.RawMessage(`{"type":"ARRAY","items":{"type":"STRING"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, out.Text)
	assert.Equal(t, "application/json", gjson.GetBytes(gotBody, "generationConfig.responseMimeType").String())
	assert.Equal(t, "ARRAY", gjson.GetBytes(gotBody, "generationConfig.responseSchema.type").String())
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprintf(w, `{"candidates": [{"content": {"parts": [
			{"text": "Here is your render"},
			{"inlineData": {"mimeType": "image/png", "data": %q}}
		]}}]}`, base64.StdEncoding.EncodeToString(png))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	out, err := c.Generate(context.Background(), Call{
		Model:       "gemini-2.5-flash-image",
		Contents:    UserText("render"),
		Image:       true,
		AspectRatio: "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, png, out.Image)
	assert.Equal(t, "image/png", out.ImageMIME)
	assert.Equal(t, "16:9", gjson.GetBytes(gotBody, "generationConfig.imageConfig.aspectRatio").String())
	assert.Equal(t, "IMAGE", gjson.GetBytes(gotBody, "generationConfig.responseModalities.0").String())
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "bad").Generate(context.Background(), Call{Model: "m", Contents: UserText("x")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "API key not valid", apiErr.Message)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithTimeout(50*time.Millisecond))
	_, err := c.Generate(context.Background(), Call{Model: "m", Contents: UserText("x")})
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"The seller ", "", "is verified."} {
			fmt.Fprintf(w, "data: {\"candidates\": [{\"content\": {\"role\": \"model\", \"parts\": [{\"text\": %q}]}}]}\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: {\"candidates\": [{\"content\": {\"parts\": []}, \"finishReason\": \"STOP\"}], \"usageMetadata\": {\"totalTokenCount\": 42}}\n\n")
	}))
	defer srv.Close()

	src, err := NewClient(srv.URL, "k").Stream(context.Background(), Call{Model: "m", Contents: UserText("hi")})
	require.NoError(t, err)
	defer src.Close()

	var chunks []string
	for src.Next() {
		chunks = append(chunks, src.Text())
	}
	require.NoError(t, src.Err())
	assert.Equal(t, "alt=sse", gotQuery)
	assert.Equal(t, []string{"The seller ", "", "is verified.", ""}, chunks)
	assert.Equal(t, 42, src.(*sseStream).Usage().TotalTokenCount)
}

func TestStreamErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\": [{\"content\": {\"parts\": [{\"text\": \"Hi\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\": {\"code\": 500, \"message\": \"internal\"}}\n\n")
	}))
	defer srv.Close()

	src, err := NewClient(srv.URL, "k").Stream(context.Background(), Call{Model: "m", Contents: UserText("hi")})
	require.NoError(t, err)
	defer src.Close()

	require.True(t, src.Next())
	assert.Equal(t, "Hi", src.Text())
	assert.False(t, src.Next())
	assert.ErrorContains(t, src.Err(), "internal")
}

func TestStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").Stream(context.Background(), Call{Model: "m", Contents: UserText("hi")})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "overloaded", apiErr.Message)
}

func TestHasCredential(t *testing.T) {
	assert.False(t, NewClient("", "").HasCredential())
	assert.True(t, NewClient("", "k").HasCredential())
}
