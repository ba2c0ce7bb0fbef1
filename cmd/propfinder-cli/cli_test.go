package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestExtractCmd_Text(t *testing.T) {
	out := run(t, "extract", "casa", "con", "alberca", "en", "Cancún", "bajo", "5", "millones")

	for _, want := range []string{"language:", "es", "type house", "city Cancún", "features pool", "price <= 5000000 MXN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExtractCmd_JSON(t *testing.T) {
	out := run(t, "--json", "extract", "modern apartment downtown")

	var got struct {
		Language string `json:"language"`
		Residual string `json:"residual"`
		Filters  struct {
			PropertyType property.Type
		} `json:"filters"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Residual != "modern downtown" || got.Language != "en" {
		t.Errorf("got %+v", got)
	}
	if got.Filters.PropertyType != property.Apartment {
		t.Errorf("type = %q", got.Filters.PropertyType)
	}
}

func TestExtractCmd_RequiresQuery(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extract"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an argument error")
	}
}

func TestSearchOptions_Explicit(t *testing.T) {
	if (&searchOptions{}).explicit() != nil {
		t.Error("no flags should mean no explicit filters")
	}
	f := (&searchOptions{city: "Mérida", features: []string{"pool"}}).explicit()
	if f == nil || f.City != "Mérida" || len(f.Features) != 1 {
		t.Errorf("explicit = %+v", f)
	}
}

func TestDescribeFilters(t *testing.T) {
	lo, hi, beds := 1e6, 2.5e6, 2
	got := describeFilters(property.Filters{PriceMin: &lo, PriceMax: &hi, Currency: "MXN", Bedrooms: &beds})
	want := []string{"price 1000000..2500000 MXN", "bedrooms >= 2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
}
