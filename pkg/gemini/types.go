package gemini

import "encoding/json"

// =============================================================================
// Wire types (generateContent / streamGenerateContent)
// =============================================================================

// Blob is inline binary data, base64 encoded on the wire.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one piece of message content.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a role-tagged message.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig holds the typed generation parameters. Schema, thinking
// and image settings are spliced into the encoded body separately.
type GenerationConfig struct {
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// Request is the generateContent request body.
type Request struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// UsageMetadata is the token accounting block of a response.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Response is the generateContent response body.
type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	Error         *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// =============================================================================
// Call description
// =============================================================================

// Call describes one backend request independent of its wire encoding.
type Call struct {
	Model           string
	System          string
	Contents        []Content
	MaxOutputTokens int
	// Schema constrains the response to JSON matching this OpenAPI subset.
	Schema json.RawMessage
	// ThinkingBudget, when set, caps the model's internal reasoning tokens.
	ThinkingBudget *int
	// Image requests an image response with the given aspect ratio.
	Image       bool
	AspectRatio string
}

// UserText builds a single-turn user message.
func UserText(text string) []Content {
	return []Content{{Role: "user", Parts: []Part{{Text: text}}}}
}

// Completion is the decoded result of a unary call.
type Completion struct {
	Text      string
	ImageMIME string
	Image     []byte
	Usage     UsageMetadata
}
