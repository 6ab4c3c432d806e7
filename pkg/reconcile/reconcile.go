// Package reconcile recomputes cost totals from their components. Model
// output is trusted for the component ranges only; totals are always derived
// here from the listing's base price.
package reconcile

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/plotwise/plotwise/pkg/models"
)

// MaxBound is the largest component bound accepted from the backend. With
// the base price held to the same cap, base plus three components stays
// within int64.
var MaxBound = decimal.NewFromInt(math.MaxInt64 / 4)

// Span is a component range as returned by the backend. Values may arrive as
// JSON numbers (integral or not) or numeric strings.
type Span struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Range rounds the span to whole currency units.
func (s Span) Range() models.Range {
	return models.Range{
		Min: s.Min.Round(0).IntPart(),
		Max: s.Max.Round(0).IntPart(),
	}
}

// Breakdown holds the three component ranges of a development budget.
type Breakdown struct {
	Construction Span `json:"construction"`
	Legal        Span `json:"legal"`
	Utility      Span `json:"utility"`
}

// Total sums base and parts independently for the min and max bounds.
func Total(base int64, parts ...models.Range) models.Range {
	minSum := decimal.NewFromInt(base)
	maxSum := decimal.NewFromInt(base)
	for _, p := range parts {
		minSum = minSum.Add(decimal.NewFromInt(p.Min))
		maxSum = maxSum.Add(decimal.NewFromInt(p.Max))
	}
	return models.Range{Min: minSum.IntPart(), Max: maxSum.IntPart()}
}

// Estimate builds a CostEstimate whose total is base plus the rounded
// component ranges. Any total the backend may have produced is ignored.
func Estimate(base int64, b Breakdown, q models.Quality) models.CostEstimate {
	construction := b.Construction.Range()
	legal := b.Legal.Range()
	utility := b.Utility.Range()
	return models.CostEstimate{
		BasePrice:    base,
		Construction: construction,
		Legal:        legal,
		Utility:      utility,
		Total:        Total(base, construction, legal, utility),
		Quality:      q,
	}
}
