// Package gateway translates operation requests into backend calls. It
// checks the credential, shapes prompts and schemas, and tags every
// outcome. It never reads or writes the result cache.
package gateway

import (
	"context"
	"fmt"
	"slices"

	"github.com/plotwise/plotwise/pkg/gemini"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/reconcile"
	"github.com/plotwise/plotwise/pkg/router"
	"github.com/plotwise/plotwise/pkg/stream"
	"github.com/plotwise/plotwise/pkg/validate"
)

// Backend is the inference service the gateway calls.
type Backend interface {
	HasCredential() bool
	Generate(ctx context.Context, call gemini.Call) (*gemini.Completion, error)
	Stream(ctx context.Context, call gemini.Call) (stream.Source, error)
}

// Outcome is a tagged result plus the call metadata worth recording.
type Outcome[T any] struct {
	validate.Result[T]
	Model string
	Usage models.Usage
}

// AspectRatio is the frame of rendered visualizations.
const AspectRatio = "16:9"

// Gateway issues backend calls for each operation.
type Gateway struct {
	backend Backend
	router  *router.Router
}

// New creates a Gateway.
func New(b Backend, r *router.Router) *Gateway {
	return &Gateway{backend: b, router: r}
}

// HasCredential reports whether backend calls can be made at all.
func (g *Gateway) HasCredential() bool {
	return g.backend.HasCredential()
}

// Describe writes a short selling description.
func (g *Gateway) Describe(ctx context.Context, p models.DescriptionParams) Outcome[string] {
	comp, out := generate[string](ctx, g, models.OpDescription, func(route router.Route) gemini.Call {
		return gemini.Call{
			System:   descriptionSystem,
			Contents: gemini.UserText(descriptionPrompt(p)),
		}
	})
	if comp == nil {
		return out
	}
	out.Result = validate.Text(comp.Text)
	return out
}

// AssessRisk scores a listing.
func (g *Gateway) AssessRisk(ctx context.Context, l models.Listing) Outcome[models.RiskAssessment] {
	comp, out := generate[models.RiskAssessment](ctx, g, models.OpRisk, func(route router.Route) gemini.Call {
		return gemini.Call{
			Contents: gemini.UserText(riskPrompt(l)),
			Schema:   riskSchema,
		}
	})
	if comp == nil {
		return out
	}
	out.Result = validate.Risk([]byte(comp.Text))
	return out
}

// Visualize renders a concept image of a building on the listing.
func (g *Gateway) Visualize(ctx context.Context, l models.Listing, p models.BuildingParams) Outcome[*models.Visualization] {
	comp, out := generate[*models.Visualization](ctx, g, models.OpVisualization, func(route router.Route) gemini.Call {
		return gemini.Call{
			Contents:    gemini.UserText(visualizationPrompt(l, p)),
			Image:       true,
			AspectRatio: AspectRatio,
		}
	})
	if comp == nil {
		return out
	}
	out.Result = validate.Image(comp.ImageMIME, comp.Image)
	return out
}

// EstimateCost asks for the component cost ranges. Totals are left to the caller.
func (g *Gateway) EstimateCost(ctx context.Context, l models.Listing, p models.BuildingParams, q models.Quality) Outcome[reconcile.Breakdown] {
	comp, out := generate[reconcile.Breakdown](ctx, g, models.OpCost, func(route router.Route) gemini.Call {
		return gemini.Call{
			Contents: gemini.UserText(costPrompt(l, p, q)),
			Schema:   costSchema,
		}
	})
	if comp == nil {
		return out
	}
	out.Result = validate.Cost([]byte(comp.Text))
	return out
}

// Search returns the ids of corpus listings matching query. Ids the backend
// invents are dropped; the result is always a subset of the corpus.
func (g *Gateway) Search(ctx context.Context, query string, corpus []models.Listing) Outcome[[]string] {
	prompt, err := searchPrompt(query, corpus)
	if err != nil {
		return Outcome[[]string]{Result: validate.Fail[[]string](err)}
	}
	comp, out := generate[[]string](ctx, g, models.OpSearch, func(route router.Route) gemini.Call {
		return gemini.Call{
			Contents: gemini.UserText(prompt),
			Schema:   searchSchema,
		}
	})
	if comp == nil {
		return out
	}
	res := validate.IDs([]byte(comp.Text))
	if res.OK() {
		res.Value = restrictTo(res.Value, corpus)
	}
	out.Result = res
	return out
}

// Chat opens a reply stream for message given the prior history.
func (g *Gateway) Chat(ctx context.Context, l models.Listing, history []models.ChatMessage, message string) Outcome[stream.Source] {
	if !g.backend.HasCredential() {
		return Outcome[stream.Source]{Result: validate.Fail[stream.Source](validate.ErrMissingCredential)}
	}
	route, err := g.router.Resolve(models.OpChat)
	if err != nil {
		return Outcome[stream.Source]{Result: validate.Fail[stream.Source](err)}
	}

	contents := make([]gemini.Content, 0, len(history)+1)
	for _, m := range history {
		if m.Text == "" {
			continue
		}
		contents = append(contents, gemini.Content{Role: string(m.Role), Parts: []gemini.Part{{Text: m.Text}}})
	}
	contents = append(contents, gemini.Content{Role: string(models.RoleUser), Parts: []gemini.Part{{Text: message}}})

	src, err := g.backend.Stream(ctx, gemini.Call{
		Model:           route.Model,
		System:          chatSystem(l),
		Contents:        contents,
		MaxOutputTokens: route.MaxOutputTokens,
		ThinkingBudget:  noThinking(),
	})
	out := Outcome[stream.Source]{Model: route.Model}
	if err != nil {
		out.Result = validate.Fail[stream.Source](fmt.Errorf("open chat stream: %w", err))
		return out
	}
	out.Result = validate.Ok(src)
	return out
}

// generate runs the shared unary path: credential check, routing, backend
// call. A nil completion means out already carries the failure.
func generate[T any](ctx context.Context, g *Gateway, op models.Operation, build func(router.Route) gemini.Call) (*gemini.Completion, Outcome[T]) {
	if !g.backend.HasCredential() {
		return nil, Outcome[T]{Result: validate.Fail[T](validate.ErrMissingCredential)}
	}
	route, err := g.router.Resolve(op)
	if err != nil {
		return nil, Outcome[T]{Result: validate.Fail[T](err)}
	}

	call := build(route)
	call.Model = route.Model
	call.MaxOutputTokens = route.MaxOutputTokens
	if !call.Image {
		call.ThinkingBudget = noThinking()
	}

	out := Outcome[T]{Model: route.Model}
	comp, err := g.backend.Generate(ctx, call)
	if err != nil {
		out.Result = validate.Fail[T](fmt.Errorf("%s: %w", op, err))
		return nil, out
	}
	out.Usage = models.Usage{
		PromptTokens:     comp.Usage.PromptTokenCount,
		CompletionTokens: comp.Usage.CandidatesTokenCount,
		TotalTokens:      comp.Usage.TotalTokenCount,
	}
	return comp, out
}

func noThinking() *int {
	zero := 0
	return &zero
}

// restrictTo keeps ids present in corpus, deduplicated, in corpus order.
func restrictTo(ids []string, corpus []models.Listing) []string {
	out := make([]string, 0, len(ids))
	for _, l := range corpus {
		if slices.Contains(ids, l.ID) && !slices.Contains(out, l.ID) {
			out = append(out, l.ID)
		}
	}
	return out
}
