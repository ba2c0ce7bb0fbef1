// Package chi exposes the search pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/request"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
	"github.com/kailas-cloud/propfinder/internal/logger"
	healthuc "github.com/kailas-cloud/propfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/propfinder/internal/usecase/search"
)

// maxBodyBytes bounds request bodies; queries are short.
const maxBodyBytes = 64 << 10

// Searcher runs the pipeline.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (*searchuc.Response, error)
	Extract(req *request.Request) searchuc.Preview
}

// HealthChecker reports backend availability.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements ServerInterface.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		search: search,
		health: health,
		logger: logger,
		errorHandlers: []errorHandler{
			validationHandler(domain.ErrInvalidFilters),
			sentinelHandler(domain.ErrSQLSearchFailure, http.StatusServiceUnavailable, ErrorCodeSearchUnavailable),
		},
	}
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	s.runSearch(w, r, req)
}

// SearchByQuery handles GET /v1/search.
func (s *Server) SearchByQuery(w http.ResponseWriter, r *http.Request, params SearchParams) {
	var explicit *property.Filters
	if f := filtersFromParams(params); !f.IsEmpty() || f.Currency != "" {
		explicit = &f
	}
	req, err := request.New(deref(params.Q), explicit, deref(params.Limit))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	s.runSearch(w, r, &req)
}

// ExtractFilters handles POST /v1/filters/extract.
func (s *Server) ExtractFilters(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	p := s.search.Extract(req)

	matches := make([]Match, len(p.Extraction.Matches))
	for i, m := range p.Extraction.Matches {
		matches[i] = Match{Stage: m.Stage, Text: m.Text, Value: m.Value}
	}
	writeJSON(w, http.StatusOK, ExtractResponse{
		Filters:  filtersToWire(p.Filters),
		Residual: p.Extraction.Residual,
		Language: string(p.Extraction.Query.Language),
		Matches:  matches,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A degraded service still answers searches.
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*request.Request, bool) {
	var body SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}

	var explicit *property.Filters
	if body.Filters != nil {
		f := filtersFromWire(*body.Filters)
		explicit = &f
	}
	req, err := request.New(body.Query, explicit, deref(body.Limit))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return nil, false
	}
	return &req, true
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToWire(resp))
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// sentinelHandler matches a single sentinel and replies with its message
// only, never the wrapped internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// validationHandler replies 400 with the full message: it describes the
// caller's own input.
func validationHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func filtersFromWire(f Filters) property.Filters {
	return property.Filters{
		PriceMin:     f.PriceMin,
		PriceMax:     f.PriceMax,
		Currency:     f.Currency,
		Bedrooms:     f.Bedrooms,
		Bathrooms:    f.Bathrooms,
		PropertyType: property.Type(f.PropertyType),
		City:         f.City,
		Region:       f.Region,
		Features:     f.Features,
	}
}

func filtersFromParams(p SearchParams) property.Filters {
	f := property.Filters{
		PriceMin:     p.PriceMin,
		PriceMax:     p.PriceMax,
		Currency:     deref(p.Currency),
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		PropertyType: property.Type(deref(p.PropertyType)),
		City:         deref(p.City),
		Region:       deref(p.Region),
	}
	if p.Features != nil {
		f.Features = *p.Features
	}
	return f
}

func filtersToWire(f property.Filters) Filters {
	return Filters{
		PriceMin:     f.PriceMin,
		PriceMax:     f.PriceMax,
		Currency:     f.Currency,
		Bedrooms:     f.Bedrooms,
		Bathrooms:    f.Bathrooms,
		PropertyType: string(f.PropertyType),
		City:         f.City,
		Region:       f.Region,
		Features:     f.Features,
	}
}

func searchResponseToWire(resp *searchuc.Response) SearchResponse {
	items := make([]ResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = resultToWire(&resp.Results[i])
	}
	return SearchResponse{
		QueryID:        resp.QueryID,
		Results:        items,
		FiltersApplied: filtersToWire(resp.Filters),
		Analysis:       resp.Analysis,
		Language:       string(resp.Language),
		Residual:       resp.Residual,
		Path:           string(resp.Path),
		FallbackReason: string(resp.FallbackReason),
	}
}

func resultToWire(r *result.Ranked) ResultItem {
	a := r.Attributes()
	return ResultItem{
		ID:           r.ID(),
		Rank:         r.Rank(),
		Relevance:    r.Relevance(),
		Source:       string(r.Source()),
		Title:        a.Title,
		Price:        a.Price,
		Bedrooms:     a.Bedrooms,
		Bathrooms:    a.Bathrooms,
		PropertyType: string(a.Type),
		City:         a.City,
		Region:       a.Region,
		Features:     a.Features,
		ListedAt:     a.ListedAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
