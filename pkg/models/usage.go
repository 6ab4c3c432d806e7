package models

import "time"

// Usage is the token accounting reported by the backend for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageRecord is one ledger row: a single operation call and how it resolved.
type UsageRecord struct {
	ID               string    `json:"id"`
	Operation        Operation `json:"operation"`
	Model            string    `json:"model"`
	Outcome          string    `json:"outcome"`
	CacheHit         bool      `json:"cache_hit"`
	ListingID        string    `json:"listing_id,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	LatencyMs        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageSummary aggregates ledger rows per operation and outcome.
type UsageSummary struct {
	Operation    Operation `json:"operation"`
	Outcome      string    `json:"outcome"`
	RequestCount int       `json:"request_count"`
	CacheHits    int       `json:"cache_hits"`
	TotalTokens  int       `json:"total_tokens"`
	AvgLatencyMs float64   `json:"avg_latency_ms"`
}
