// Package fallback holds the per-operation defaults returned when the
// backend is unconfigured, unreachable, or returns unusable output.
package fallback

import (
	"github.com/rs/zerolog/log"

	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/reconcile"
	"github.com/plotwise/plotwise/pkg/validate"
)

// Fixed user-facing messages.
const (
	DescriptionNoCredential = "AI Description unavailable (Missing API Key)"
	DescriptionTransport    = "Error generating description."
	DescriptionInvalid      = "Could not generate description."

	ChatNoCredential = "Chat unavailable without API Key."
	ChatFailure      = "Connection error."
	ChatEmpty        = "No response received. Please try again."
)

// Description returns the text shown in place of a generated description.
func Description(class validate.Class) string {
	switch class {
	case validate.ClassConfiguration:
		return DescriptionNoCredential
	case validate.ClassValidation:
		return DescriptionInvalid
	default:
		return DescriptionTransport
	}
}

// Risk returns a visibly degraded assessment.
func Risk(class validate.Class) models.RiskAssessment {
	if class == validate.ClassConfiguration {
		return models.RiskAssessment{
			Score:    85,
			Summary:  "AI Analysis Unavailable",
			Risks:    []string{"API Key missing for live analysis"},
			Degraded: true,
		}
	}
	return models.RiskAssessment{
		Score:    60,
		Summary:  "Analysis Failed",
		Risks:    []string{"System error"},
		Degraded: true,
	}
}

// Visualization is always absent on failure.
func Visualization(validate.Class) *models.Visualization {
	return nil
}

// Cost returns zero component ranges. The total still reconciles to the
// base price so the invariant holds on degraded estimates too.
func Cost(_ validate.Class, basePrice int64, q models.Quality) models.CostEstimate {
	est := reconcile.Estimate(basePrice, reconcile.Breakdown{}, q)
	est.Degraded = true
	return est
}

// Search returns every corpus id when unconfigured and nothing otherwise.
func Search(class validate.Class, corpus []models.Listing) []string {
	if class != validate.ClassConfiguration {
		return []string{}
	}
	ids := make([]string, 0, len(corpus))
	for _, l := range corpus {
		ids = append(ids, l.ID)
	}
	return ids
}

// Chat returns the single message emitted in place of a reply stream.
func Chat(class validate.Class) string {
	switch class {
	case validate.ClassConfiguration:
		return ChatNoCredential
	case validate.ClassValidation:
		return ChatEmpty
	default:
		return ChatFailure
	}
}

// Report logs a degraded outcome.
func Report(op models.Operation, class validate.Class, err error) {
	evt := log.Warn()
	if class == validate.ClassConfiguration {
		evt = log.Debug()
	}
	evt.Err(err).
		Str("operation", string(op)).
		Str("class", string(class)).
		Msg("serving fallback")
}
