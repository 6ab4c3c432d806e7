package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/reconcile"
)

// Text accepts any non-blank string.
func Text(raw string) Result[string] {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Fail[string](ErrEmptyResponse)
	}
	return Ok(text)
}

// Risk parses {score, summary, risks}. The score must be an integer in 0..100.
func Risk(raw []byte) Result[models.RiskAssessment] {
	body, err := jsonBody(raw)
	if err != nil {
		return Fail[models.RiskAssessment](err)
	}

	var payload struct {
		Score   *int     `json:"score"`
		Summary *string  `json:"summary"`
		Risks   []string `json:"risks"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Fail[models.RiskAssessment](fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if payload.Score == nil {
		return Fail[models.RiskAssessment](fmt.Errorf("%w: missing score", ErrMalformed))
	}
	if *payload.Score < 0 || *payload.Score > 100 {
		return Fail[models.RiskAssessment](fmt.Errorf("%w: score %d out of range", ErrMalformed, *payload.Score))
	}
	if payload.Summary == nil || strings.TrimSpace(*payload.Summary) == "" {
		return Fail[models.RiskAssessment](fmt.Errorf("%w: missing summary", ErrMalformed))
	}

	risks := make([]string, 0, len(payload.Risks))
	for _, r := range payload.Risks {
		if r = strings.TrimSpace(r); r != "" {
			risks = append(risks, r)
		}
	}
	return Ok(models.RiskAssessment{
		Score:   *payload.Score,
		Summary: strings.TrimSpace(*payload.Summary),
		Risks:   risks,
	})
}

// Cost parses the three component ranges. A total in the payload, if any,
// is dropped; totals are computed by the reconciler.
func Cost(raw []byte) Result[reconcile.Breakdown] {
	body, err := jsonBody(raw)
	if err != nil {
		return Fail[reconcile.Breakdown](err)
	}

	var payload struct {
		Construction *reconcile.Span `json:"construction"`
		Legal        *reconcile.Span `json:"legal"`
		Utility      *reconcile.Span `json:"utility"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Fail[reconcile.Breakdown](fmt.Errorf("%w: %v", ErrMalformed, err))
	}

	parts := []struct {
		name string
		span *reconcile.Span
	}{
		{"construction", payload.Construction},
		{"legal", payload.Legal},
		{"utility", payload.Utility},
	}
	for _, p := range parts {
		if p.span == nil {
			return Fail[reconcile.Breakdown](fmt.Errorf("%w: missing %s range", ErrMalformed, p.name))
		}
		if p.span.Min.IsNegative() || p.span.Max.IsNegative() {
			return Fail[reconcile.Breakdown](fmt.Errorf("%w: negative %s range", ErrMalformed, p.name))
		}
		if p.span.Min.GreaterThan(p.span.Max) {
			return Fail[reconcile.Breakdown](fmt.Errorf("%w: %s min exceeds max", ErrMalformed, p.name))
		}
		if p.span.Max.Round(0).GreaterThan(reconcile.MaxBound) {
			return Fail[reconcile.Breakdown](fmt.Errorf("%w: %s max %s out of range", ErrMalformed, p.name, p.span.Max))
		}
	}

	return Ok(reconcile.Breakdown{
		Construction: *payload.Construction,
		Legal:        *payload.Legal,
		Utility:      *payload.Utility,
	})
}

// IDs parses a JSON array of strings.
func IDs(raw []byte) Result[[]string] {
	body, err := jsonBody(raw)
	if err != nil {
		return Fail[[]string](err)
	}

	arr := gjson.ParseBytes(body)
	if !arr.IsArray() {
		return Fail[[]string](fmt.Errorf("%w: expected an array of ids", ErrMalformed))
	}
	ids := []string{}
	var bad error
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.String {
			bad = fmt.Errorf("%w: non-string id %s", ErrMalformed, v.Raw)
			return false
		}
		ids = append(ids, v.String())
		return true
	})
	if bad != nil {
		return Fail[[]string](bad)
	}
	return Ok(ids)
}

// Image accepts a non-empty inline image payload.
func Image(mimeType string, data []byte) Result[*models.Visualization] {
	if len(data) == 0 {
		return Fail[*models.Visualization](ErrEmptyResponse)
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return Ok(&models.Visualization{MIMEType: mimeType, Data: data})
}

// jsonBody trims whitespace and markdown code fences and checks the
// remainder is syntactically valid JSON.
func jsonBody(raw []byte) ([]byte, error) {
	body := bytes.TrimSpace(raw)
	if bytes.HasPrefix(body, []byte("```")) {
		body = bytes.TrimPrefix(body, []byte("```json"))
		body = bytes.TrimPrefix(body, []byte("```"))
		body = bytes.TrimSuffix(bytes.TrimSpace(body), []byte("```"))
		body = bytes.TrimSpace(body)
	}
	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	return body, nil
}
