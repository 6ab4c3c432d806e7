// Package server exposes the operation surface over HTTP, server-sent events
// and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plotwise/plotwise/pkg/config"
	"github.com/plotwise/plotwise/pkg/listings"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/service"
	"github.com/plotwise/plotwise/pkg/tracker"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server is the Plotwise HTTP API.
type Server struct {
	cfg     *config.Config
	svc     *service.Service
	catalog *listings.Catalog
	tracker tracker.Tracker
	mux     *http.ServeMux
}

// New creates a Server. t may be nil when the ledger is disabled.
func New(cfg *config.Config, svc *service.Service, catalog *listings.Catalog, t tracker.Tracker) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		catalog: catalog,
		tracker: t,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /v1/describe", s.handleDescribe)
	s.mux.HandleFunc("GET /v1/listings", s.handleListings)
	s.mux.HandleFunc("GET /v1/listings/{id}", s.handleListing)
	s.mux.HandleFunc("GET /v1/listings/{id}/risk", s.handleRisk)
	s.mux.HandleFunc("GET /v1/listings/{id}/price", s.handlePrice)
	s.mux.HandleFunc("POST /v1/listings/{id}/visualize", s.handleVisualize)
	s.mux.HandleFunc("POST /v1/listings/{id}/estimate", s.handleEstimate)
	s.mux.HandleFunc("POST /v1/listings/{id}/chat", s.handleChat)
	s.mux.HandleFunc("GET /v1/listings/{id}/chat/ws", s.handleChatSocket)
	s.mux.HandleFunc("POST /v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("GET /v1/stats", s.handleStats)
	s.mux.HandleFunc("GET /livez", s.handleLivez)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", reqID)

	start := time.Now()
	s.mux.ServeHTTP(w, r)
	log.Debug().
		Str("request_id", reqID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", s.cfg.Listen).Bool("credential", s.svc.HasCredential()).Msg("plotwise listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleLivez(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"credential": s.svc.HasCredential(),
	})
}

func (s *Server) handleListings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// describeRequest is a seller draft. A listing_id fills in any omitted field.
type describeRequest struct {
	models.DescriptionParams
	ListingID string `json:"listing_id,omitempty"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p := req.DescriptionParams
	if req.ListingID != "" {
		l, err := s.catalog.Get(req.ListingID)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		p = mergeDescription(p, models.DescriptionParamsFor(l))
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"description": s.svc.WriteDescription(r.Context(), p),
	})
}

func mergeDescription(p, from models.DescriptionParams) models.DescriptionParams {
	if p.Type == "" {
		p.Type = from.Type
	}
	if p.Area == 0 {
		p.Area = from.Area
	}
	if p.City == "" {
		p.City = from.City
	}
	if p.Price == 0 {
		p.Price = from.Price
	}
	if len(p.Features) == 0 {
		p.Features = from.Features
	}
	return p
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	risk := s.svc.AssessRisk(r.Context(), l)
	writeJSON(w, http.StatusOK, struct {
		models.RiskAssessment
		Band models.RiskBand `json:"band"`
	}{risk, risk.Band()})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.AnalyzePrice(l))
}

// buildRequest carries building parameters. Omitted fields keep the
// visualizer defaults.
type buildRequest struct {
	models.BuildingParams
	Quality string `json:"quality,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

func newBuildRequest() buildRequest {
	return buildRequest{BuildingParams: models.DefaultBuildingParams()}
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	req := newBuildRequest()
	if !decodeBody(w, r, &req) {
		return
	}

	v := s.svc.Visualize(r.Context(), l, req.BuildingParams, req.Force)
	resp := map[string]any{"image": nil}
	if v != nil {
		resp["image"] = v.DataURL()
		resp["mime_type"] = v.MIMEType
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	l, ok := s.listing(w, r)
	if !ok {
		return
	}
	req := newBuildRequest()
	if !decodeBody(w, r, &req) {
		return
	}
	est := s.svc.EstimateCost(r.Context(), l, req.BuildingParams, models.ParseQuality(req.Quality), req.Force)
	writeJSON(w, http.StatusOK, est)
}

type searchRequest struct {
	Query string `json:"query"`
	// IDs narrows the corpus. Empty searches the whole catalog.
	IDs []string `json:"ids,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ids := s.svc.Search(r.Context(), req.Query, s.catalog.Subset(req.IDs))
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CacheStats())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeJSONError(w, http.StatusNotFound, "usage ledger disabled")
		return
	}
	summary, err := s.tracker.Summary(r.Context(), models.Operation(r.URL.Query().Get("operation")))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary == nil {
		summary = []models.UsageSummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// listing resolves the {id} path value, writing a 404 when unknown.
func (s *Server) listing(w http.ResponseWriter, r *http.Request) (models.Listing, bool) {
	l, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return models.Listing{}, false
	}
	return l, true
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"plotwise_error","code":%d}}`, message, code)
}
