package router

import (
	"testing"

	"github.com/plotwise/plotwise/pkg/config"
	"github.com/plotwise/plotwise/pkg/models"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend.TextModel = "text-model"
	cfg.Backend.ImageModel = "image-model"
	return cfg
}

func TestResolveDefaults(t *testing.T) {
	r := New(testConfig())

	tests := []struct {
		op     models.Operation
		model  string
		tokens int
	}{
		{models.OpDescription, "text-model", 60},
		{models.OpRisk, "text-model", 150},
		{models.OpCost, "text-model", 150},
		{models.OpSearch, "text-model", 100},
		{models.OpChat, "text-model", 0},
		{models.OpVisualization, "image-model", 0},
	}
	for _, tt := range tests {
		route, err := r.Resolve(tt.op)
		if err != nil {
			t.Fatalf("%s: %v", tt.op, err)
		}
		if route.Model != tt.model {
			t.Errorf("%s: expected model %s, got %s", tt.op, tt.model, route.Model)
		}
		if route.MaxOutputTokens != tt.tokens {
			t.Errorf("%s: expected %d tokens, got %d", tt.op, tt.tokens, route.MaxOutputTokens)
		}
	}
}

func TestResolveOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Routes = []config.RouteConfig{
		{Operation: models.OpRisk, Model: "pro-model"},
		{Operation: models.OpDescription, MaxOutputTokens: 120},
	}
	r := New(cfg)

	risk, _ := r.Resolve(models.OpRisk)
	if risk.Model != "pro-model" || risk.MaxOutputTokens != 150 {
		t.Errorf("unexpected risk route: %+v", risk)
	}
	desc, _ := r.Resolve(models.OpDescription)
	if desc.Model != "text-model" || desc.MaxOutputTokens != 120 {
		t.Errorf("unexpected description route: %+v", desc)
	}
}

func TestResolveUnknownOperation(t *testing.T) {
	r := New(testConfig())
	if _, err := r.Resolve("horoscope"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestResolveMissingModel(t *testing.T) {
	cfg := testConfig()
	cfg.Backend.ImageModel = ""
	r := New(cfg)
	if _, err := r.Resolve(models.OpVisualization); err == nil {
		t.Fatal("expected error when no image model is configured")
	}
}
