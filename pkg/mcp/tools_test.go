package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plotwise/plotwise/pkg/cache/memory"
	"github.com/plotwise/plotwise/pkg/config"
	"github.com/plotwise/plotwise/pkg/gateway"
	"github.com/plotwise/plotwise/pkg/gemini"
	"github.com/plotwise/plotwise/pkg/listings"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/router"
	"github.com/plotwise/plotwise/pkg/service"
	"github.com/plotwise/plotwise/pkg/stream"
	"github.com/plotwise/plotwise/pkg/tracker"
)

type mockBackend struct {
	credential bool
	completion *gemini.Completion
	lastCall   gemini.Call
}

func (m *mockBackend) HasCredential() bool { return m.credential }

func (m *mockBackend) Generate(ctx context.Context, call gemini.Call) (*gemini.Completion, error) {
	m.lastCall = call
	return m.completion, nil
}

func (m *mockBackend) Stream(ctx context.Context, call gemini.Call) (stream.Source, error) {
	return nil, context.Canceled
}

func newTestServer(t *testing.T, b *mockBackend, tr tracker.Tracker) *Server {
	t.Helper()
	catalog, err := listings.Seed()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	svc := service.New(gateway.New(b, router.New(cfg)), memory.New(), service.WithTracker(tr))
	return New(svc, catalog, tr, "test")
}

func TestAssessRisk_UnknownListing(t *testing.T) {
	server := newTestServer(t, &mockBackend{}, nil)

	_, _, err := server.handleAssessRisk(context.Background(), nil, ListingInput{ListingID: "missing"})
	if err == nil {
		t.Fatalf("expected error")
	}
	_, _, err = server.handleAssessRisk(context.Background(), nil, ListingInput{})
	if err == nil || !strings.Contains(err.Error(), "listing_id") {
		t.Fatalf("expected listing_id error, got %v", err)
	}
}

func TestAssessRisk(t *testing.T) {
	backend := &mockBackend{credential: true, completion: &gemini.Completion{
		Text: `{"score": 45, "summary": "Unverified seller.", "risks": ["Title unclear"]}`,
	}}
	server := newTestServer(t, backend, nil)

	_, output, err := server.handleAssessRisk(context.Background(), nil, ListingInput{ListingID: "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Score != 45 || output.Band != "high" || output.Degraded {
		t.Fatalf("unexpected output: %+v", output)
	}
	if !strings.Contains(backend.lastCall.Contents[0].Parts[0].Text, "Agricultural Farm Land") {
		t.Errorf("expected listing title in prompt")
	}
}

func TestEstimateCost(t *testing.T) {
	backend := &mockBackend{credential: true, completion: &gemini.Completion{Text: `{
		"construction": {"min": 800000, "max": 1200000},
		"legal": {"min": 50000, "max": 80000},
		"utility": {"min": 40000, "max": 60000}
	}`}}
	server := newTestServer(t, backend, nil)

	_, output, err := server.handleEstimateCost(context.Background(), nil, EstimateCostInput{
		ListingID: "4", Quality: "premium", BuildingType: "Villa", Floors: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Total != (models.Range{Min: 5390000, Max: 5840000}) {
		t.Errorf("unexpected total: %+v", output.Total)
	}
	if output.Quality != models.QualityPremium {
		t.Errorf("expected Premium, got %s", output.Quality)
	}
	prompt := backend.lastCall.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "3-floor Villa") {
		t.Errorf("expected building in prompt, got %q", prompt)
	}
}

func TestSearchListings_NoCredential(t *testing.T) {
	server := newTestServer(t, &mockBackend{}, nil)

	_, output, err := server.handleSearchListings(context.Background(), nil, SearchListingsInput{Query: "farmland", IDs: []string{"5", "6"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.IDs) != 2 || output.IDs[0] != "5" || output.IDs[1] != "6" {
		t.Fatalf("unexpected ids: %v", output.IDs)
	}
	if len(output.Listings) != 2 || output.Listings[1].City != "Coorg" {
		t.Fatalf("unexpected listings: %+v", output.Listings)
	}
}

func TestDescribeListing(t *testing.T) {
	backend := &mockBackend{credential: true, completion: &gemini.Completion{Text: "Coffee country calm."}}
	server := newTestServer(t, backend, nil)

	_, output, err := server.handleDescribeListing(context.Background(), nil, DescribeListingInput{ListingID: "6"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Description != "Coffee country calm." {
		t.Errorf("unexpected description: %q", output.Description)
	}

	_, _, err = server.handleDescribeListing(context.Background(), nil, DescribeListingInput{Type: "Residential"})
	if err == nil {
		t.Fatalf("expected error for incomplete draft")
	}
}

func TestAnalyzePrice(t *testing.T) {
	server := newTestServer(t, &mockBackend{}, nil)

	_, output, err := server.handleAnalyzePrice(context.Background(), nil, ListingInput{ListingID: "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Status != models.PriceAboveMarket {
		t.Errorf("expected Above Market, got %s", output.Status)
	}
}

func TestUsageStats(t *testing.T) {
	tr, err := tracker.New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	server := newTestServer(t, &mockBackend{}, tr)
	if _, _, err := server.handleAssessRisk(context.Background(), nil, ListingInput{ListingID: "4"}); err != nil {
		t.Fatal(err)
	}

	result, output, err := server.handleUsageStats(context.Background(), nil, UsageStatsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Summary) != 1 || output.Summary[0].Outcome != "configuration_error" {
		t.Fatalf("unexpected summary: %+v", output.Summary)
	}
	text := result.Content[0].(*sdk.TextContent).Text
	if !strings.Contains(text, "risk") {
		t.Errorf("expected operation in table, got %q", text)
	}
}

func TestUsageStats_Disabled(t *testing.T) {
	server := newTestServer(t, &mockBackend{}, nil)
	if _, _, err := server.handleUsageStats(context.Background(), nil, UsageStatsInput{}); err == nil {
		t.Fatal("expected error without ledger")
	}
}

func TestCacheStats(t *testing.T) {
	server := newTestServer(t, &mockBackend{}, nil)
	_, _, _ = server.handleListListings(context.Background(), nil, ListListingsInput{})

	result, stats, err := server.handleCacheStats(context.Background(), nil, CacheStatsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("expected empty cache, got %+v", stats)
	}
	if !strings.Contains(result.Content[0].(*sdk.TextContent).Text, "Hit Rate: 0.0%") {
		t.Errorf("unexpected text: %v", result.Content)
	}
}
