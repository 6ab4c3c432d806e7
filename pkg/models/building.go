package models

import "strings"

// BuildingType is the structure a buyer wants to place on a plot.
type BuildingType string

const (
	BuildingHouse         BuildingType = "House"
	BuildingVilla         BuildingType = "Villa"
	BuildingApartment     BuildingType = "Apartment"
	BuildingCommercial    BuildingType = "Commercial Complex"
	BuildingFarmhouse     BuildingType = "Farmhouse"
	BuildingResortCottage BuildingType = "Resort Cottage"
)

// ViewMode selects the framing of a rendered visualization.
type ViewMode string

const (
	ViewStandard ViewMode = "standard"
	ViewPanorama ViewMode = "panorama"
)

// Quality is the construction finish level used for cost estimates.
type Quality string

const (
	QualityEconomy  Quality = "Economy"
	QualityStandard Quality = "Standard"
	QualityPremium  Quality = "Premium"
)

// ParseQuality maps free-form input onto a Quality, defaulting to Standard.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "economy":
		return QualityEconomy
	case "premium":
		return QualityPremium
	default:
		return QualityStandard
	}
}

// BuildingParams describe a hypothetical structure on a listing.
type BuildingParams struct {
	BuildingType      BuildingType `json:"building_type"`
	Style             string       `json:"style"`
	Floors            int          `json:"floors"`
	FootprintCoverage int          `json:"footprint_coverage"`
	SetbackDistance   int          `json:"setback_distance"`
	ViewMode          ViewMode     `json:"view_mode,omitempty"`
}

// DefaultBuildingParams mirrors the visualizer's initial form state.
func DefaultBuildingParams() BuildingParams {
	return BuildingParams{
		BuildingType:      BuildingHouse,
		Style:             "Modern Contemporary",
		Floors:            2,
		FootprintCoverage: 40,
		SetbackDistance:   10,
		ViewMode:          ViewStandard,
	}
}
