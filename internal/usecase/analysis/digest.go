package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/propfinder/internal/domain/query"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

const topN = 3

// Digest is a deterministic statistical outline of a result set.
type Digest struct {
	Count          int
	PriceMin       float64
	PriceMax       float64
	Cities         []string
	Types          []string
	CommonFeatures []string
}

// NewDigest computes the digest. Cities and types are the most frequent
// first (ties alphabetical); common features appear in at least half the results.
func NewDigest(results []result.Ranked) Digest {
	d := Digest{Count: len(results)}
	if len(results) == 0 {
		return d
	}

	cities := map[string]int{}
	types := map[string]int{}
	features := map[string]int{}
	first := true
	for i := range results {
		a := results[i].Attributes()
		if a.Price > 0 {
			if first || a.Price < d.PriceMin {
				d.PriceMin = a.Price
			}
			if first || a.Price > d.PriceMax {
				d.PriceMax = a.Price
			}
			first = false
		}
		if a.City != "" {
			cities[a.City]++
		}
		if a.Type != "" {
			types[string(a.Type)]++
		}
		for _, f := range slices.Compact(slices.Sorted(slices.Values(a.Features))) {
			features[f]++
		}
	}

	d.Cities = topKeys(cities, topN)
	d.Types = topKeys(types, topN)
	for _, f := range topKeys(features, len(features)) {
		if features[f]*2 >= len(results) {
			d.CommonFeatures = append(d.CommonFeatures, f)
		}
	}
	return d
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Prompt renders the digest as the user turn of the chat request.
func (d Digest) Prompt(q string, lang query.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %q\n", q)
	fmt.Fprintf(&b, "Reply language: %s\n", languageName(lang))
	fmt.Fprintf(&b, "Matching listings: %d\n", d.Count)
	if d.PriceMax > 0 {
		fmt.Fprintf(&b, "Price range (MXN): %.0f - %.0f\n", d.PriceMin, d.PriceMax)
	}
	if len(d.Cities) > 0 {
		fmt.Fprintf(&b, "Main cities: %s\n", strings.Join(d.Cities, ", "))
	}
	if len(d.Types) > 0 {
		fmt.Fprintf(&b, "Property types: %s\n", strings.Join(d.Types, ", "))
	}
	if len(d.CommonFeatures) > 0 {
		fmt.Fprintf(&b, "Common features: %s\n", strings.Join(d.CommonFeatures, ", "))
	}
	return b.String()
}

// languageName picks the reply language; unknown queries get Spanish,
// the primary market language.
func languageName(lang query.Language) string {
	if lang == query.English {
		return "English"
	}
	return "Spanish"
}
