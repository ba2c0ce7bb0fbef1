package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeSearchUnavailable ErrorCode = "search_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Filters is the wire form of structured listing constraints.
type Filters struct {
	PriceMin     *float64 `json:"priceMin,omitempty"`
	PriceMax     *float64 `json:"priceMax,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	City         string   `json:"city,omitempty"`
	Region       string   `json:"region,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// SearchRequest is the body of POST /v1/search and POST /v1/filters/extract.
type SearchRequest struct {
	Query   string   `json:"query"`
	Filters *Filters `json:"filters,omitempty"`
	Limit   *int     `json:"limit,omitempty"`
}

// SearchParams are the query parameters of GET /v1/search.
type SearchParams struct {
	Q            *string   `form:"q" json:"q,omitempty"`
	Limit        *int      `form:"limit" json:"limit,omitempty"`
	PriceMin     *float64  `form:"price_min" json:"price_min,omitempty"`
	PriceMax     *float64  `form:"price_max" json:"price_max,omitempty"`
	Currency     *string   `form:"currency" json:"currency,omitempty"`
	Bedrooms     *int      `form:"bedrooms" json:"bedrooms,omitempty"`
	Bathrooms    *int      `form:"bathrooms" json:"bathrooms,omitempty"`
	PropertyType *string   `form:"type" json:"type,omitempty"`
	City         *string   `form:"city" json:"city,omitempty"`
	Region       *string   `form:"region" json:"region,omitempty"`
	Features     *[]string `form:"feature" json:"feature,omitempty"`
}

// ResultItem is one ranked listing.
type ResultItem struct {
	ID           string    `json:"id"`
	Rank         int       `json:"rank"`
	Relevance    float64   `json:"relevance"`
	Source       string    `json:"source"`
	Title        string    `json:"title,omitempty"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	PropertyType string    `json:"propertyType,omitempty"`
	City         string    `json:"city,omitempty"`
	Region       string    `json:"region,omitempty"`
	Features     []string  `json:"features,omitempty"`
	ListedAt     time.Time `json:"listedAt"`
}

// SearchResponse is the reply of both search routes.
type SearchResponse struct {
	QueryID        string       `json:"queryId"`
	Results        []ResultItem `json:"results"`
	FiltersApplied Filters      `json:"filtersApplied"`
	Analysis       string       `json:"analysis,omitempty"`
	Language       string       `json:"language"`
	Residual       string       `json:"residual"`
	Path           string       `json:"path"`
	FallbackReason string       `json:"fallbackReason,omitempty"`
}

// Match is one phrase the extractor recognized.
type Match struct {
	Stage string `json:"stage"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// ExtractResponse is the reply of POST /v1/filters/extract.
type ExtractResponse struct {
	Filters  Filters `json:"filters"`
	Residual string  `json:"residual"`
	Language string  `json:"language"`
	Matches  []Match `json:"matches"`
}

// HealthResponse is the reply of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// POST /v1/search
	Search(w http.ResponseWriter, r *http.Request)
	// GET /v1/search
	SearchByQuery(w http.ResponseWriter, r *http.Request, params SearchParams)
	// POST /v1/filters/extract
	ExtractFilters(w http.ResponseWriter, r *http.Request)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures route registration.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions registers si's routes on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &wrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Post("/v1/search", si.Search)
	r.Get("/v1/search", w.searchByQuery)
	r.Post("/v1/filters/extract", si.ExtractFilters)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// searchByQuery binds GET /v1/search form parameters.
func (w *wrapper) searchByQuery(rw http.ResponseWriter, r *http.Request) {
	var params SearchParams
	query := r.URL.Query()

	binds := []struct {
		name string
		dest any
	}{
		{"q", &params.Q},
		{"limit", &params.Limit},
		{"price_min", &params.PriceMin},
		{"price_max", &params.PriceMax},
		{"currency", &params.Currency},
		{"bedrooms", &params.Bedrooms},
		{"bathrooms", &params.Bathrooms},
		{"type", &params.PropertyType},
		{"city", &params.City},
		{"region", &params.Region},
		{"feature", &params.Features},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			w.errorHandler(rw, r, fmt.Errorf("invalid format for parameter %s: %w", b.name, err))
			return
		}
	}

	w.handler.SearchByQuery(rw, r, params)
}
