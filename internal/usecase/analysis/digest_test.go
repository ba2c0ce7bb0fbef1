package analysis

import (
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

func ranked(id string, a property.Attributes) result.Ranked {
	return result.NewRanked(result.NewCandidate(id, result.Vector, 0.9, a), 0.9, 1)
}

func sampleResults() []result.Ranked {
	return []result.Ranked{
		ranked("a", property.Attributes{Price: 4_500_000, City: "Cancún", Type: property.House, Features: []string{"pool", "garden"}}),
		ranked("b", property.Attributes{Price: 3_200_000, City: "Cancún", Type: property.House, Features: []string{"pool"}}),
		ranked("c", property.Attributes{Price: 6_000_000, City: "Tulum", Type: property.Condo, Features: []string{"gym", "pool", "pool"}}),
		ranked("d", property.Attributes{City: "Mérida", Type: property.House}),
	}
}

func TestNewDigest(t *testing.T) {
	d := NewDigest(sampleResults())

	if d.Count != 4 {
		t.Errorf("count = %d", d.Count)
	}
	if d.PriceMin != 3_200_000 || d.PriceMax != 6_000_000 {
		t.Errorf("price range = %v-%v, unpriced listings must be ignored", d.PriceMin, d.PriceMax)
	}
	if !slices.Equal(d.Cities, []string{"Cancún", "Mérida", "Tulum"}) {
		t.Errorf("cities = %v", d.Cities)
	}
	if !slices.Equal(d.Types, []string{"house", "condo"}) {
		t.Errorf("types = %v", d.Types)
	}
	if !slices.Equal(d.CommonFeatures, []string{"pool"}) {
		t.Errorf("common features = %v", d.CommonFeatures)
	}
}

func TestNewDigest_Empty(t *testing.T) {
	d := NewDigest(nil)
	if d.Count != 0 || d.Cities != nil || d.PriceMax != 0 {
		t.Errorf("unexpected digest: %+v", d)
	}
}

func TestDigest_Prompt(t *testing.T) {
	p := NewDigest(sampleResults()).Prompt("casa con alberca", query.Spanish)

	for _, want := range []string{
		`Search query: "casa con alberca"`,
		"Reply language: Spanish",
		"Matching listings: 4",
		"Price range (MXN): 3200000 - 6000000",
		"Common features: pool",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}

	if !strings.Contains(NewDigest(nil).Prompt("x", query.English), "Reply language: English") {
		t.Error("english queries must ask for english")
	}
	if !strings.Contains(NewDigest(nil).Prompt("x", query.Unknown), "Reply language: Spanish") {
		t.Error("unknown language must default to spanish")
	}
}
