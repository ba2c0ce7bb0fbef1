package filter

import (
	"strings"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestNewRangeFilter(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
		wantErr  bool
	}{
		{"min only", floatPtr(1), nil, false},
		{"max only", nil, floatPtr(10), false},
		{"both", floatPtr(1), floatPtr(10), false},
		{"equal bounds", floatPtr(3), floatPtr(3), false},
		{"none", nil, nil, true},
		{"inverted", floatPtr(10), floatPtr(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRangeFilter(tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (r.Min() == nil) != (tt.min == nil) {
				t.Error("Min() mismatch")
			}
		})
	}
}

func TestNewTag(t *testing.T) {
	c, err := NewTag("features", "pool")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsTag() || c.IsRange() || c.Key() != "features" || c.Tags()[0] != "pool" {
		t.Errorf("unexpected condition: %+v", c)
	}

	if _, err := NewTag("", "pool"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewTag("features"); err == nil {
		t.Error("expected error for no values")
	}
	if _, err := NewTag("features", "pool", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestNewRange(t *testing.T) {
	r, _ := NewRangeFilter(nil, floatPtr(5e6))
	c, err := NewRange("price", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsRange() || c.IsTag() || *c.Range().Max() != 5e6 {
		t.Errorf("unexpected condition: %+v", c)
	}
	if _, err := NewRange("", r); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestNewExpression_Limit(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		conds[i], _ = NewTag("features", "pool")
	}
	_, err := NewExpression(conds...)
	if err == nil || !strings.Contains(err.Error(), "too many") {
		t.Fatalf("expected too many error, got %v", err)
	}

	e, err := NewExpression(conds[:2]...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.IsEmpty() || len(e.Conditions()) != 2 {
		t.Errorf("unexpected expression: %+v", e)
	}
	if !(Expression{}).IsEmpty() {
		t.Error("zero expression must be empty")
	}
}
