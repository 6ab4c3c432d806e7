package models

import (
	"encoding/base64"
	"fmt"
)

// Range is an inclusive min/max pair in whole currency units (INR).
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// CostEstimate is a reconciled development budget for a listing.
// Total is always BasePrice plus the three component ranges.
type CostEstimate struct {
	BasePrice    int64   `json:"base_price"`
	Construction Range   `json:"construction"`
	Legal        Range   `json:"legal"`
	Utility      Range   `json:"utility"`
	Total        Range   `json:"total"`
	Quality      Quality `json:"quality"`
	Degraded     bool    `json:"degraded,omitempty"`
}

// RiskAssessment scores how safe a purchase looks. Higher is safer.
type RiskAssessment struct {
	Score    int      `json:"score"`
	Summary  string   `json:"summary"`
	Risks    []string `json:"risks"`
	Degraded bool     `json:"degraded,omitempty"`
}

// RiskBand buckets a score for display.
type RiskBand string

const (
	RiskLow    RiskBand = "low"
	RiskMedium RiskBand = "medium"
	RiskHigh   RiskBand = "high"
)

// Band returns the display bucket of the assessment score.
func (r RiskAssessment) Band() RiskBand {
	switch {
	case r.Score >= 80:
		return RiskLow
	case r.Score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Visualization is a rendered concept image.
type Visualization struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// DataURL renders the image as an inline data URL.
func (v *Visualization) DataURL() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", v.MIMEType, base64.StdEncoding.EncodeToString(v.Data))
}

// PriceStatus is the verdict of a price analysis.
type PriceStatus string

const (
	PriceAboveMarket PriceStatus = "Above Market"
	PriceGreatValue  PriceStatus = "Great Value"
	PriceFair        PriceStatus = "Fair Price"
)

// PriceAnalysis compares a listing's rate against its locality average.
type PriceAnalysis struct {
	PricePerSqFt   float64     `json:"price_per_sqft"`
	CityAvg        float64     `json:"city_avg"`
	LocalityAvg    float64     `json:"locality_avg"`
	DiffPercentage float64     `json:"diff_percentage"`
	Status         PriceStatus `json:"status"`
}
