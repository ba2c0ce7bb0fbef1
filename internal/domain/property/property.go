// Package property holds listing attributes and the structured filters
// extracted from search queries.
package property

import (
	"slices"
	"strings"
	"time"
)

// Type is the listing category.
type Type string

// Property type constants.
const (
	House      Type = "house"
	Apartment  Type = "apartment"
	Condo      Type = "condo"
	Townhouse  Type = "townhouse"
	Land       Type = "land"
	Commercial Type = "commercial"
	Office     Type = "office"
)

var allTypes = []Type{House, Apartment, Condo, Townhouse, Land, Commercial, Office}

// Types returns every supported property type.
func Types() []Type { return slices.Clone(allTypes) }

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return slices.Contains(allTypes, t)
}

// ParseType converts user input (any case, surrounding spaces) into a Type.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", false
	}
	return t, true
}

// Currency codes understood by the price filter.
const (
	MXN = "MXN"
	USD = "USD"
)

// Attributes are the listing fields needed to post-filter and rank a match.
type Attributes struct {
	Title     string
	Price     float64
	Bedrooms  int
	Bathrooms int
	Type      Type
	City      string
	Region    string
	Features  []string
	ListedAt  time.Time
}

// HasFeature reports whether the listing carries tag (case-insensitive).
func (a Attributes) HasFeature(tag string) bool {
	for _, f := range a.Features {
		if strings.EqualFold(strings.TrimSpace(f), tag) {
			return true
		}
	}
	return false
}

// SplitFeatures parses a comma-separated feature column into tags.
func SplitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
