package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

// DefaultBaseline is the composite score of SQL-only matches.
const DefaultBaseline = 0.5

// Merge builds the final ranking from both candidate sets:
//  1. drop candidates that violate f (vector ones included);
//  2. deduplicate by ID, keeping the vector entry;
//  3. score vector entries by similarity and SQL-only entries by baseline;
//  4. sort by score desc, then most recently listed, then ID asc;
//  5. truncate to limit and assign 1-based ranks.
//
// Filtering runs before deduplication, so a stale vector entry that fails
// f does not hide a conforming SQL row for the same listing.
func Merge(vector, sql []result.Candidate, f property.Filters, limit int, baseline float64) []result.Ranked {
	type scored struct {
		c     result.Candidate
		score float64
	}

	seen := make(map[string]struct{}, len(vector)+len(sql))
	merged := make([]scored, 0, len(vector)+len(sql))
	add := func(cands []result.Candidate, score func(*result.Candidate) float64) {
		for i := range cands {
			c := &cands[i]
			if _, dup := seen[c.ID()]; dup || !f.Matches(c.Attributes()) {
				continue
			}
			seen[c.ID()] = struct{}{}
			merged = append(merged, scored{c: *c, score: score(c)})
		}
	}
	add(vector, func(c *result.Candidate) float64 { return clamp01(c.Score()) })
	add(sql, func(*result.Candidate) float64 { return baseline })

	slices.SortStableFunc(merged, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := b.c.Attributes().ListedAt.Compare(a.c.Attributes().ListedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.c.ID(), b.c.ID())
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]result.Ranked, len(merged))
	for i, m := range merged {
		out[i] = result.NewRanked(m.c, m.score, i+1)
	}
	return out
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
