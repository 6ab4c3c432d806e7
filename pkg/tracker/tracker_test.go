package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/plotwise/plotwise/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestRecordAndRecent(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := models.UsageRecord{
		Operation:        models.OpRisk,
		Model:            "gemini-2.5-flash",
		Outcome:          "ok",
		ListingID:        "4",
		PromptTokens:     100,
		CompletionTokens: 50,
		TotalTokens:      150,
		LatencyMs:        420,
		CreatedAt:        now,
	}
	if err := tr.Record(ctx, rec); err != nil {
		t.Fatal(err)
	}

	records, err := tr.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ID == "" {
		t.Error("expected generated id")
	}
	if got.Operation != models.OpRisk || got.ListingID != "4" || got.TotalTokens != 150 {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, op := range []models.Operation{models.OpDescription, models.OpCost, models.OpSearch} {
		_ = tr.Record(ctx, models.UsageRecord{
			Operation: op, Outcome: "ok",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}

	records, err := tr.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Operation != models.OpSearch {
		t.Errorf("expected newest first, got %s", records[0].Operation)
	}
}

func TestSummary(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_ = tr.Record(ctx, models.UsageRecord{Operation: models.OpRisk, Outcome: "ok", TotalTokens: 100, LatencyMs: 200})
	_ = tr.Record(ctx, models.UsageRecord{Operation: models.OpRisk, Outcome: "ok", CacheHit: true, LatencyMs: 0})
	_ = tr.Record(ctx, models.UsageRecord{Operation: models.OpRisk, Outcome: "transport_error"})
	_ = tr.Record(ctx, models.UsageRecord{Operation: models.OpSearch, Outcome: "ok", TotalTokens: 40})

	all, err := tr.Summary(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(all))
	}

	riskOnly, err := tr.Summary(ctx, models.OpRisk)
	if err != nil {
		t.Fatal(err)
	}
	if len(riskOnly) != 2 {
		t.Fatalf("expected 2 risk groups, got %d", len(riskOnly))
	}
	ok := riskOnly[0]
	if ok.Outcome != "ok" || ok.RequestCount != 2 || ok.CacheHits != 1 || ok.TotalTokens != 100 {
		t.Errorf("unexpected ok group: %+v", ok)
	}
	if ok.AvgLatencyMs != 100 {
		t.Errorf("expected avg latency 100, got %v", ok.AvgLatencyMs)
	}
}
