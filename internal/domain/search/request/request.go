package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum query length in runes; longer input is cut.
	MaxQueryLength = 512
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search call.
type Request struct {
	query    string
	explicit property.Filters
	limit    int
}

// New validates and normalizes search parameters.
// The query itself never fails validation: empty means browse, overlong is cut.
// explicit may be nil. Limit defaults to 20 and is capped at 100.
func New(query string, explicit *property.Filters, limit int) (Request, error) {
	if r := []rune(query); len(r) > MaxQueryLength {
		query = string(r[:MaxQueryLength])
	}

	var ex property.Filters
	if explicit != nil {
		ex = explicit.Clone()
		ex.Currency = strings.ToUpper(ex.Currency)
		if err := ex.Validate(); err != nil {
			return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilters, err)
		}
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{query: query, explicit: ex, limit: limit}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Explicit returns the caller-supplied filters (zero value when none).
func (r *Request) Explicit() property.Filters { return r.explicit }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }
