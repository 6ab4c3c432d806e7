package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plotwise/plotwise/pkg/models"
)

// =============================================================================
// System instructions
// =============================================================================

const descriptionSystem = "Concise. Professional."

func chatSystem(l models.Listing) string {
	return fmt.Sprintf("Agent for %s. Be concise.", l.Title)
}

// =============================================================================
// Response schemas (Gemini OpenAPI subset)
// =============================================================================

var (
	riskSchema = json.RawMessage(`{
		"type": "OBJECT",
		"properties": {
			"score": {"type": "INTEGER"},
			"summary": {"type": "STRING"},
			"risks": {"type": "ARRAY", "items": {"type": "STRING"}}
		},
		"required": ["score", "summary", "risks"]
	}`)

	rangeSchema = `{"type": "OBJECT", "properties": {"min": {"type": "INTEGER"}, "max": {"type": "INTEGER"}}, "required": ["min", "max"]}`

	costSchema = json.RawMessage(`{
		"type": "OBJECT",
		"properties": {
			"construction": ` + rangeSchema + `,
			"legal": ` + rangeSchema + `,
			"utility": ` + rangeSchema + `
		},
		"required": ["construction", "legal", "utility"]
	}`)

	searchSchema = json.RawMessage(`{"type": "ARRAY", "items": {"type": "STRING"}}`)
)

// =============================================================================
// Prompts
// =============================================================================

func descriptionPrompt(p models.DescriptionParams) string {
	features := "none listed"
	if len(p.Features) > 0 {
		features = strings.Join(p.Features, ", ")
	}
	return fmt.Sprintf(
		"Act as a real estate copywriter. Write a 30-word selling description.\n"+
			"Listing: %s land, %s sqft, %s. Price: %d INR.\n"+
			"Features: %s.",
		p.Type, formatArea(p.Area), p.City, p.Price, features)
}

func riskPrompt(l models.Listing) string {
	return fmt.Sprintf(
		"Assess purchase risk for this land listing: %s, %s land, seller verified: %t.\n"+
			"Return JSON with an integer score from 0 (very risky) to 100 (very safe), "+
			"a one-sentence summary and up to three short risk points.",
		l.Title, l.Type, l.Verified)
}

// styleDetails maps architectural styles to the materials named in image prompts.
var styleDetails = map[string]string{
	"Modern Contemporary": "concrete, glass windows, flat roof",
	"Traditional Kerala":  "sloping red tile roof, pillars",
	"Colonial":            "white walls, arched windows",
	"Minimalist":          "clean white boxy shape",
	"Rustic Farmhouse":    "stone work, porch",
	"Eco-Tropical":        "bamboo, green roof",
}

// StyleDetails returns the material description for style.
func StyleDetails(style string) string {
	if d, ok := styleDetails[style]; ok {
		return d
	}
	return "modern architecture"
}

func visualizationPrompt(l models.Listing, p models.BuildingParams) string {
	building := fmt.Sprintf("%d-floor %s %s covering %d%% of the plot, set back %d ft from the boundary",
		p.Floors, p.Style, strings.ToLower(string(p.BuildingType)), p.FootprintCoverage, p.SetbackDistance)

	if p.ViewMode == models.ViewPanorama {
		return fmt.Sprintf("Photorealistic 360-degree equirectangular panorama. %s, %s landscape. %s. Golden hour.",
			building, l.Location.City, StyleDetails(p.Style))
	}
	return fmt.Sprintf("Photorealistic architectural shot. %s on an empty plot. %s landscape. %s. Cinematic lighting.",
		building, l.Location.City, StyleDetails(p.Style))
}

func costPrompt(l models.Listing, p models.BuildingParams, q models.Quality) string {
	return fmt.Sprintf(
		"Estimate development cost in INR for a %s sqft plot in %s.\n"+
			"Structure: %d-floor %s. Construction quality: %s.\n"+
			"Return JSON with min and max integer ranges for construction, legal and utility costs only.",
		formatArea(l.Area), l.Location.City, p.Floors, p.BuildingType, q)
}

// searchEntry is the compact listing projection sent with search prompts.
type searchEntry struct {
	ID    string          `json:"id"`
	Title string          `json:"t"`
	City  string          `json:"c"`
	Price int64           `json:"p"`
	Type  models.LandType `json:"type"`
}

func searchProjection(corpus []models.Listing) []searchEntry {
	out := make([]searchEntry, 0, len(corpus))
	for _, l := range corpus {
		out = append(out, searchEntry{ID: l.ID, Title: l.Title, City: l.Location.City, Price: l.Price, Type: l.Type})
	}
	return out
}

func searchPrompt(query string, corpus []models.Listing) (string, error) {
	data, err := json.Marshal(searchProjection(corpus))
	if err != nil {
		return "", fmt.Errorf("encode search corpus: %w", err)
	}
	return fmt.Sprintf("Find listings matching %q in Data. Return a JSON array of matching ids.\nData: %s", query, data), nil
}

func formatArea(a float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", a), "0"), ".")
}
