// Package service is the operation surface of the gateway. Every operation
// consults the result cache, calls the gateway on a miss, serves the
// per-operation fallback on failure and records the call in the ledger.
// No operation ever returns an error to its caller.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/plotwise/plotwise/pkg/cache"
	"github.com/plotwise/plotwise/pkg/fallback"
	"github.com/plotwise/plotwise/pkg/gateway"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/reconcile"
	"github.com/plotwise/plotwise/pkg/tracker"
	"github.com/plotwise/plotwise/pkg/validate"
)

// Service runs operations against a gateway with caching and fallbacks.
type Service struct {
	gw     *gateway.Gateway
	store  cache.Store
	ledger tracker.Tracker
	flight *singleflight.Group
	nonce  func() string
}

// Option configures the Service.
type Option func(*Service)

// WithTracker records every operation call in t.
func WithTracker(t tracker.Tracker) Option {
	return func(s *Service) {
		s.ledger = t
	}
}

// WithCoalescing makes concurrent identical uncached requests share one
// backend call.
func WithCoalescing() Option {
	return func(s *Service) {
		s.flight = &singleflight.Group{}
	}
}

// WithNonce replaces the generator of force-refresh nonces.
func WithNonce(f func() string) Option {
	return func(s *Service) {
		s.nonce = f
	}
}

// New creates a Service. A nil store disables caching.
func New(gw *gateway.Gateway, store cache.Store, opts ...Option) *Service {
	s := &Service{gw: gw, store: store, nonce: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CacheStats reports the result cache counters.
func (s *Service) CacheStats() models.CacheStats {
	if s.store == nil {
		return models.CacheStats{}
	}
	return s.store.Stats()
}

// HasCredential reports whether live backend calls are possible.
func (s *Service) HasCredential() bool {
	return s.gw.HasCredential()
}

// WriteDescription returns a short selling description for a seller's draft.
func (s *Service) WriteDescription(ctx context.Context, p models.DescriptionParams) string {
	d := cache.NewDescriptor(models.OpDescription).
		With("type", string(p.Type)).
		With("area", p.Area).
		With("city", p.City).
		With("price", p.Price).
		With("features", p.Features)

	res := memo(ctx, s, models.OpDescription, "", d, func(ctx context.Context) gateway.Outcome[string] {
		return s.gw.Describe(ctx, p)
	})
	if !res.OK() {
		return fallback.Description(res.Class)
	}
	return res.Value
}

// AssessRisk scores a listing. Failures yield a visibly degraded assessment.
func (s *Service) AssessRisk(ctx context.Context, l models.Listing) models.RiskAssessment {
	d := cache.NewDescriptor(models.OpRisk).
		With("id", l.ID).
		With("title", l.Title).
		With("type", string(l.Type)).
		With("verified", l.Verified)

	res := memo(ctx, s, models.OpRisk, l.ID, d, func(ctx context.Context) gateway.Outcome[models.RiskAssessment] {
		return s.gw.AssessRisk(ctx, l)
	})
	if !res.OK() {
		return fallback.Risk(res.Class)
	}
	return res.Value
}

// Visualize renders a concept image, or returns nil when none is available.
// force bypasses any cached image without evicting it.
func (s *Service) Visualize(ctx context.Context, l models.Listing, p models.BuildingParams, force bool) *models.Visualization {
	if p.ViewMode == "" {
		p.ViewMode = models.ViewStandard
	}
	d := cache.NewDescriptor(models.OpVisualization).
		With("id", l.ID).
		With("city", l.Location.City).
		With("building_type", string(p.BuildingType)).
		With("style", p.Style).
		With("floors", p.Floors).
		With("coverage", p.FootprintCoverage).
		With("setback", p.SetbackDistance).
		With("view", string(p.ViewMode))
	if force {
		d.Refresh(s.nonce())
	}

	res := memo(ctx, s, models.OpVisualization, l.ID, d, func(ctx context.Context) gateway.Outcome[*models.Visualization] {
		return s.gw.Visualize(ctx, l, p)
	})
	if !res.OK() {
		return fallback.Visualization(res.Class)
	}
	return res.Value
}

// EstimateCost returns a development budget whose total always equals the
// listing price plus the component ranges.
func (s *Service) EstimateCost(ctx context.Context, l models.Listing, p models.BuildingParams, q models.Quality, force bool) models.CostEstimate {
	d := cache.NewDescriptor(models.OpCost).
		With("id", l.ID).
		With("area", l.Area).
		With("city", l.Location.City).
		With("building_type", string(p.BuildingType)).
		With("floors", p.Floors).
		With("quality", string(q))
	if force {
		d.Refresh(s.nonce())
	}

	res := memo(ctx, s, models.OpCost, l.ID, d, func(ctx context.Context) gateway.Outcome[reconcile.Breakdown] {
		return s.gw.EstimateCost(ctx, l, p, q)
	})
	if !res.OK() {
		return fallback.Cost(res.Class, l.Price, q)
	}
	return reconcile.Estimate(l.Price, res.Value, q)
}

// Search returns the ids of corpus listings matching query, in corpus order.
// A blank query matches the whole corpus without a backend call.
func (s *Service) Search(ctx context.Context, query string, corpus []models.Listing) []string {
	if len(corpus) == 0 {
		return []string{}
	}
	if cache.Blank(query) {
		return fallback.Search(validate.ClassConfiguration, corpus)
	}

	d := cache.NewDescriptor(models.OpSearch).
		With("query", query).
		With("corpus", corpusFingerprint(corpus))

	res := memo(ctx, s, models.OpSearch, "", d, func(ctx context.Context) gateway.Outcome[[]string] {
		return s.gw.Search(ctx, query, corpus)
	})
	if !res.OK() {
		return fallback.Search(res.Class, corpus)
	}
	return res.Value
}

// corpusFingerprint lists the fields the backend sees for each listing, so
// the same query over a different corpus never shares a cache entry.
func corpusFingerprint(corpus []models.Listing) []string {
	out := make([]string, 0, len(corpus))
	for _, l := range corpus {
		out = append(out, fmt.Sprintf("%s|%s|%s|%d|%s", l.ID, l.Title, l.Location.City, l.Price, l.Type))
	}
	return out
}

// memo is the shared read-through path. Only successful outcomes are
// written back; fallbacks are never cached.
func memo[T any](ctx context.Context, s *Service, op models.Operation, listingID string, d *cache.Descriptor, fetch func(context.Context) gateway.Outcome[T]) validate.Result[T] {
	start := time.Now()
	key := d.Key()

	if s.store != nil && !d.Forced() {
		if v, ok := cache.GetJSON[T](s.store, key); ok {
			log.Debug().Str("operation", string(op)).Str("key", key).Msg("cache hit")
			s.record(ctx, models.UsageRecord{
				Operation: op,
				Outcome:   string(validate.ClassOK),
				CacheHit:  true,
				ListingID: listingID,
				LatencyMs: time.Since(start).Milliseconds(),
			})
			return validate.Ok(v)
		}
	}

	call := func() gateway.Outcome[T] {
		out := fetch(ctx)
		if out.OK() && s.store != nil {
			if err := cache.PutJSON(s.store, key, out.Value); err != nil {
				log.Warn().Err(err).Str("operation", string(op)).Msg("cache write failed")
			}
		}
		if !out.OK() {
			fallback.Report(op, out.Class, out.Err)
		}
		s.record(ctx, models.UsageRecord{
			Operation:        op,
			Model:            out.Model,
			Outcome:          string(out.Class),
			ListingID:        listingID,
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
			LatencyMs:        time.Since(start).Milliseconds(),
		})
		return out
	}

	if s.flight == nil {
		return call().Result
	}
	v, _, _ := s.flight.Do(key, func() (any, error) {
		return call(), nil
	})
	return v.(gateway.Outcome[T]).Result
}

func (s *Service) record(ctx context.Context, rec models.UsageRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn().Err(err).Str("operation", string(rec.Operation)).Msg("ledger write failed")
	}
}
