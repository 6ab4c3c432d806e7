package router

import (
	"fmt"

	"github.com/plotwise/plotwise/pkg/config"
	"github.com/plotwise/plotwise/pkg/models"
)

// Route is the resolved model and output budget for one operation.
// A zero MaxOutputTokens leaves the budget to the backend.
type Route struct {
	Operation       models.Operation
	Model           string
	MaxOutputTokens int
}

// defaultBudgets are the output-token limits applied when no route overrides them.
var defaultBudgets = map[models.Operation]int{
	models.OpDescription: 60,
	models.OpRisk:        150,
	models.OpCost:        150,
	models.OpSearch:      100,
}

// Router resolves operations to backend models.
type Router struct {
	routes map[models.Operation]Route
}

// New creates a Router from the given configuration. Image generation uses
// the backend image model, everything else the text model. Configured routes
// override either field.
func New(cfg *config.Config) *Router {
	r := &Router{routes: make(map[models.Operation]Route, len(models.Operations))}
	for _, op := range models.Operations {
		model := cfg.Backend.TextModel
		if op == models.OpVisualization {
			model = cfg.Backend.ImageModel
		}
		r.routes[op] = Route{Operation: op, Model: model, MaxOutputTokens: defaultBudgets[op]}
	}

	for _, rc := range cfg.Routes {
		route, ok := r.routes[rc.Operation]
		if !ok {
			continue // rejected by config validation
		}
		if rc.Model != "" {
			route.Model = rc.Model
		}
		if rc.MaxOutputTokens > 0 {
			route.MaxOutputTokens = rc.MaxOutputTokens
		}
		r.routes[rc.Operation] = route
	}
	return r
}

// Resolve returns the route for op.
func (r *Router) Resolve(op models.Operation) (Route, error) {
	route, ok := r.routes[op]
	if !ok {
		return Route{}, fmt.Errorf("no route for operation %q", op)
	}
	if route.Model == "" {
		return Route{}, fmt.Errorf("route %q: no model configured", op)
	}
	return route, nil
}
