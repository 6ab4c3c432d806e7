package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/service"
)

type ListingInput struct {
	ListingID string `json:"listing_id" jsonschema:"catalog listing id"`
}

type EstimateCostInput struct {
	ListingID    string `json:"listing_id" jsonschema:"catalog listing id"`
	Quality      string `json:"quality,omitempty" jsonschema:"Economy, Standard or Premium"`
	BuildingType string `json:"building_type,omitempty" jsonschema:"House, Villa, Apartment, Commercial Complex, Farmhouse or Resort Cottage"`
	Floors       int    `json:"floors,omitempty" jsonschema:"number of floors"`
	Force        bool   `json:"force,omitempty" jsonschema:"bypass any cached estimate"`
}

type SearchListingsInput struct {
	Query string   `json:"query" jsonschema:"natural language search, e.g. farmland near Bangalore under 30 lakhs"`
	IDs   []string `json:"ids,omitempty" jsonschema:"restrict the search to these listing ids"`
}

type DescribeListingInput struct {
	ListingID string   `json:"listing_id,omitempty" jsonschema:"catalog listing to describe"`
	Type      string   `json:"type,omitempty" jsonschema:"land type"`
	Area      float64  `json:"area,omitempty" jsonschema:"area in square feet"`
	City      string   `json:"city,omitempty" jsonschema:"city"`
	Price     int64    `json:"price,omitempty" jsonschema:"asking price in INR"`
	Features  []string `json:"features,omitempty" jsonschema:"notable features"`
}

type ListListingsInput struct{}

type UsageStatsInput struct {
	Operation string `json:"operation,omitempty" jsonschema:"restrict to one operation"`
}

type CacheStatsInput struct{}

type ListingSummaryOutput struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	City         string  `json:"city"`
	Price        int64   `json:"price"`
	Area         float64 `json:"area"`
	PricePerSqFt float64 `json:"price_per_sqft"`
	Verified     bool    `json:"verified"`
}

type ListListingsOutput struct {
	Listings []ListingSummaryOutput `json:"listings"`
}

type RiskOutput struct {
	Score    int      `json:"score"`
	Band     string   `json:"band"`
	Summary  string   `json:"summary"`
	Risks    []string `json:"risks"`
	Degraded bool     `json:"degraded"`
}

type SearchListingsOutput struct {
	IDs      []string               `json:"ids"`
	Listings []ListingSummaryOutput `json:"listings"`
}

type DescribeListingOutput struct {
	Description string `json:"description"`
}

type UsageStatsOutput struct {
	Summary []models.UsageSummary `json:"summary"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_listings",
		Description: "List every listing in the catalog",
	}, s.handleListListings)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "assess_risk",
		Description: "Score how safe buying a listing looks (0 risky to 100 safe)",
	}, s.handleAssessRisk)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "estimate_cost",
		Description: "Estimate the total development budget of building on a listing",
	}, s.handleEstimateCost)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_listings",
		Description: "Find listings matching a natural language query",
	}, s.handleSearchListings)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "describe_listing",
		Description: "Write a short selling description for a listing or a seller draft",
	}, s.handleDescribeListing)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "analyze_price",
		Description: "Compare a listing's price per square foot against its locality",
	}, s.handleAnalyzePrice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "usage_stats",
		Description: "Show per-operation call counts, cache hits, tokens and latency",
	}, s.handleUsageStats)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "cache_stats",
		Description: "Show result cache entries, hits and misses",
	}, s.handleCacheStats)
}

func (s *Server) handleListListings(ctx context.Context, req *sdk.CallToolRequest, input ListListingsInput) (*sdk.CallToolResult, ListListingsOutput, error) {
	return nil, ListListingsOutput{Listings: summaries(s.catalog.All())}, nil
}

func (s *Server) handleAssessRisk(ctx context.Context, req *sdk.CallToolRequest, input ListingInput) (*sdk.CallToolResult, RiskOutput, error) {
	l, err := s.listing(input.ListingID)
	if err != nil {
		return nil, RiskOutput{}, err
	}
	r := s.svc.AssessRisk(ctx, l)
	return nil, RiskOutput{
		Score:    r.Score,
		Band:     string(r.Band()),
		Summary:  r.Summary,
		Risks:    r.Risks,
		Degraded: r.Degraded,
	}, nil
}

func (s *Server) handleEstimateCost(ctx context.Context, req *sdk.CallToolRequest, input EstimateCostInput) (*sdk.CallToolResult, models.CostEstimate, error) {
	l, err := s.listing(input.ListingID)
	if err != nil {
		return nil, models.CostEstimate{}, err
	}
	p := models.DefaultBuildingParams()
	if input.BuildingType != "" {
		p.BuildingType = models.BuildingType(input.BuildingType)
	}
	if input.Floors > 0 {
		p.Floors = input.Floors
	}
	return nil, s.svc.EstimateCost(ctx, l, p, models.ParseQuality(input.Quality), input.Force), nil
}

func (s *Server) handleSearchListings(ctx context.Context, req *sdk.CallToolRequest, input SearchListingsInput) (*sdk.CallToolResult, SearchListingsOutput, error) {
	ids := s.svc.Search(ctx, input.Query, s.catalog.Subset(input.IDs))
	var matched []models.Listing
	if len(ids) > 0 {
		matched = s.catalog.Subset(ids)
	}
	return nil, SearchListingsOutput{IDs: ids, Listings: summaries(matched)}, nil
}

func (s *Server) handleDescribeListing(ctx context.Context, req *sdk.CallToolRequest, input DescribeListingInput) (*sdk.CallToolResult, DescribeListingOutput, error) {
	p := models.DescriptionParams{
		Type:     models.LandType(input.Type),
		Area:     input.Area,
		City:     input.City,
		Price:    input.Price,
		Features: input.Features,
	}
	if input.ListingID != "" {
		l, err := s.listing(input.ListingID)
		if err != nil {
			return nil, DescribeListingOutput{}, err
		}
		p = models.DescriptionParamsFor(l)
	} else if p.City == "" || p.Area <= 0 {
		return nil, DescribeListingOutput{}, fmt.Errorf("listing_id or city and area are required")
	}
	return nil, DescribeListingOutput{Description: s.svc.WriteDescription(ctx, p)}, nil
}

func (s *Server) handleAnalyzePrice(ctx context.Context, req *sdk.CallToolRequest, input ListingInput) (*sdk.CallToolResult, models.PriceAnalysis, error) {
	l, err := s.listing(input.ListingID)
	if err != nil {
		return nil, models.PriceAnalysis{}, err
	}
	return nil, service.AnalyzePrice(l), nil
}

func (s *Server) handleUsageStats(ctx context.Context, req *sdk.CallToolRequest, input UsageStatsInput) (*sdk.CallToolResult, UsageStatsOutput, error) {
	if s.tracker == nil {
		return nil, UsageStatsOutput{}, fmt.Errorf("usage ledger is disabled")
	}
	rows, err := s.tracker.Summary(ctx, models.Operation(input.Operation))
	if err != nil {
		return nil, UsageStatsOutput{}, fmt.Errorf("fetch usage stats: %w", err)
	}
	if rows == nil {
		rows = []models.UsageSummary{}
	}
	return textResult(formatSummary(rows)), UsageStatsOutput{Summary: rows}, nil
}

func (s *Server) handleCacheStats(ctx context.Context, req *sdk.CallToolRequest, input CacheStatsInput) (*sdk.CallToolResult, models.CacheStats, error) {
	stats := s.svc.CacheStats()
	return textResult(formatCacheStats(stats)), stats, nil
}

func (s *Server) listing(id string) (models.Listing, error) {
	if id == "" {
		return models.Listing{}, fmt.Errorf("listing_id is required")
	}
	return s.catalog.Get(id)
}

func summaries(ls []models.Listing) []ListingSummaryOutput {
	out := make([]ListingSummaryOutput, 0, len(ls))
	for _, l := range ls {
		out = append(out, ListingSummaryOutput{
			ID:           l.ID,
			Title:        l.Title,
			Type:         string(l.Type),
			City:         l.Location.City,
			Price:        l.Price,
			Area:         l.Area,
			PricePerSqFt: l.PricePerSqFt,
			Verified:     l.Verified,
		})
	}
	return out
}

func textResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}
