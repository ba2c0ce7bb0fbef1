package query

import (
	"slices"
	"testing"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

func TestParseDictionary_ExtendsVocabulary(t *testing.T) {
	extra, err := ParseDictionary([]byte(`
property_types:
  house: [cabaña, cabin]
features:
  pool: [jacuzzi]
  solar_panels: [paneles solares, solar panels]
places:
  - name: Sayulita
    kind: city
    region: Nayarit
stopwords: [bonita]
`))
	if err != nil {
		t.Fatalf("ParseDictionary: %v", err)
	}

	e := NewExtractor(DefaultDictionary().Merge(extra))
	ex := e.ExtractText("cabaña bonita con jacuzzi y paneles solares en Sayulita")

	f := ex.Filters
	if f.PropertyType != property.House {
		t.Errorf("type = %q, want house", f.PropertyType)
	}
	if f.City != "Sayulita" {
		t.Errorf("city = %q, want Sayulita", f.City)
	}
	if !slices.Equal(f.Features, []string{"pool", "solar_panels"}) {
		t.Errorf("features = %v", f.Features)
	}
	if ex.Residual != "" {
		t.Errorf("residual = %q, want empty", ex.Residual)
	}
}

func TestParseDictionary_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "property_types: ["},
		{"unknown type", "property_types:\n  castle: [castillo]\n"},
		{"place without name", "places:\n  - kind: city\n"},
		{"bad kind", "places:\n  - name: Atlantis\n    kind: ocean\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDictionary([]byte(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDictionary_MergeDoesNotMutate(t *testing.T) {
	base := DefaultDictionary()
	before := len(base.PropertyTypes[property.House])

	_ = base.Merge(Dictionary{PropertyTypes: map[property.Type][]string{property.House: {"cabaña"}}})

	if got := len(base.PropertyTypes[property.House]); got != before {
		t.Errorf("base house synonyms changed: %d -> %d", before, got)
	}
}

func TestDefaultDictionary_TypesCovered(t *testing.T) {
	d := DefaultDictionary()
	for _, typ := range property.Types() {
		if len(d.PropertyTypes[typ]) == 0 {
			t.Errorf("no synonyms for %q", typ)
		}
	}
}
