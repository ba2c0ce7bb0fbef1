package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("casa en cancún", nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "casa en cancún" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if !r.Explicit().IsEmpty() {
		t.Errorf("Explicit() = %+v, want empty", r.Explicit())
	}
}

func TestNew_EmptyQueryIsBrowse(t *testing.T) {
	r, err := New("", nil, 10)
	if err != nil {
		t.Fatalf("empty query must not error: %v", err)
	}
	if r.Limit() != 10 {
		t.Errorf("Limit() = %d, want 10", r.Limit())
	}
}

func TestNew_LimitClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tc := range tests {
		r, err := New("q", nil, tc.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Limit() != tc.want {
			t.Errorf("New(limit=%d).Limit() = %d, want %d", tc.in, r.Limit(), tc.want)
		}
	}
}

func TestNew_TruncatesLongQuery(t *testing.T) {
	long := strings.Repeat("ñ", MaxQueryLength+10)
	r, err := New(long, nil, 0)
	if err != nil {
		t.Fatalf("long query must not error: %v", err)
	}
	if got := len([]rune(r.Query())); got != MaxQueryLength {
		t.Errorf("query runes = %d, want %d", got, MaxQueryLength)
	}
}

func TestNew_InvalidExplicitFilters(t *testing.T) {
	_, err := New("q", &property.Filters{PropertyType: "castle"}, 0)
	if !errors.Is(err, domain.ErrInvalidFilters) {
		t.Fatalf("expected ErrInvalidFilters, got %v", err)
	}
	if !strings.Contains(err.Error(), `unknown propertyType "castle"`) {
		t.Errorf("detail lost: %v", err)
	}
}

func TestNew_ExplicitCurrencyUppercased(t *testing.T) {
	r, err := New("q", &property.Filters{Currency: "usd"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Explicit().Currency != property.USD {
		t.Errorf("currency = %q, want USD", r.Explicit().Currency)
	}
}
