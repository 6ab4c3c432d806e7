package models

import "time"

// LandType classifies a listing's permitted use.
type LandType string

const (
	LandResidential  LandType = "Residential"
	LandAgricultural LandType = "Agricultural"
	LandCommercial   LandType = "Commercial"
	LandIndustrial   LandType = "Industrial"
	LandMixedUse     LandType = "Mixed Use"
)

// LegalStatus is the title state of a listing.
type LegalStatus string

const (
	LegalClear    LegalStatus = "Clear"
	LegalPending  LegalStatus = "Pending"
	LegalDisputed LegalStatus = "Disputed"
)

// Location places a listing on the map.
type Location struct {
	Address string  `json:"address" yaml:"address"`
	City    string  `json:"city" yaml:"city"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lng     float64 `json:"lng" yaml:"lng"`
}

// Listing is a plot of land offered on the marketplace.
type Listing struct {
	ID           string      `json:"id" yaml:"id"`
	Title        string      `json:"title" yaml:"title"`
	Description  string      `json:"description" yaml:"description"`
	Price        int64       `json:"price" yaml:"price"`
	Area         float64     `json:"area" yaml:"area"`
	PricePerSqFt float64     `json:"price_per_sqft" yaml:"price_per_sqft"`
	Type         LandType    `json:"type" yaml:"type"`
	Location     Location    `json:"location" yaml:"location"`
	Images       []string    `json:"images,omitempty" yaml:"images"`
	Features     []string    `json:"features,omitempty" yaml:"features"`
	SellerID     string      `json:"seller_id,omitempty" yaml:"seller_id"`
	SellerName   string      `json:"seller_name,omitempty" yaml:"seller_name"`
	Verified     bool        `json:"verified" yaml:"verified"`
	PostedDate   time.Time   `json:"posted_date" yaml:"posted_date"`
	RiskScore    int         `json:"risk_score,omitempty" yaml:"risk_score"`
	LegalStatus  LegalStatus `json:"legal_status,omitempty" yaml:"legal_status"`
}

// DescriptionParams are the seller-form fields a listing description is written from.
type DescriptionParams struct {
	Type     LandType `json:"type"`
	Area     float64  `json:"area"`
	City     string   `json:"city"`
	Price    int64    `json:"price"`
	Features []string `json:"features,omitempty"`
}

// DescriptionParamsFor derives description inputs from an existing listing.
func DescriptionParamsFor(l Listing) DescriptionParams {
	return DescriptionParams{
		Type:     l.Type,
		Area:     l.Area,
		City:     l.Location.City,
		Price:    l.Price,
		Features: l.Features,
	}
}
