package reconcile

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plotwise/plotwise/pkg/models"
)

func span(min, max int64) Span {
	return Span{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

func TestEstimateLakeviewPlot(t *testing.T) {
	b := Breakdown{
		Construction: span(800000, 1200000),
		Legal:        span(50000, 80000),
		Utility:      span(40000, 60000),
	}

	est := Estimate(4500000, b, models.QualityStandard)

	assert.Equal(t, models.Range{Min: 5390000, Max: 5840000}, est.Total)
	assert.Equal(t, int64(4500000), est.BasePrice)
	assert.Equal(t, models.Range{Min: 800000, Max: 1200000}, est.Construction)
}

func TestEstimateIgnoresBackendTotal(t *testing.T) {
	raw := `{
		"construction": {"min": 800000, "max": 1200000},
		"legal": {"min": "50000", "max": "80000"},
		"utility": {"min": 40000.4, "max": 59999.6},
		"total": {"min": 1, "max": 2}
	}`
	var b Breakdown
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	est := Estimate(4500000, b, models.QualityPremium)
	assert.Equal(t, models.Range{Min: 5390000, Max: 5840000}, est.Total)
	assert.Equal(t, models.Range{Min: 40000, Max: 60000}, est.Utility)
}

func TestTotalInvariantHoldsForArbitraryInputs(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for range 500 {
		base := r.Int63n(1_000_000_000)
		parts := make([]models.Range, 3)
		for i := range parts {
			lo := r.Int63n(50_000_000)
			parts[i] = models.Range{Min: lo, Max: lo + r.Int63n(50_000_000)}
		}
		b := Breakdown{
			Construction: span(parts[0].Min, parts[0].Max),
			Legal:        span(parts[1].Min, parts[1].Max),
			Utility:      span(parts[2].Min, parts[2].Max),
		}

		est := Estimate(base, b, models.QualityEconomy)
		assert.Equal(t, base+parts[0].Min+parts[1].Min+parts[2].Min, est.Total.Min)
		assert.Equal(t, base+parts[0].Max+parts[1].Max+parts[2].Max, est.Total.Max)
	}
}

func TestEstimateZeroBreakdown(t *testing.T) {
	est := Estimate(1200000, Breakdown{}, models.QualityStandard)
	assert.Equal(t, models.Range{Min: 1200000, Max: 1200000}, est.Total)
}

func TestEstimateAtMaxBoundDoesNotWrap(t *testing.T) {
	top := Span{Min: MaxBound, Max: MaxBound}
	base := MaxBound.IntPart()

	est := Estimate(base, Breakdown{Construction: top, Legal: top, Utility: top}, models.QualityPremium)
	assert.Equal(t, base, est.Construction.Max)
	assert.Equal(t, 4*base, est.Total.Max)
	assert.Positive(t, est.Total.Min)
}
