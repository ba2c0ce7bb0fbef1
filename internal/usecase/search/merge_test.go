package search

import (
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

func cand(id string, src result.Source, score float64, attrs property.Attributes) result.Candidate {
	return result.NewCandidate(id, src, score, attrs)
}

func TestMerge(t *testing.T) {
	old := property.Attributes{Type: property.House, Price: 1_000_000, ListedAt: day}
	recent := property.Attributes{Type: property.House, Price: 1_000_000, ListedAt: day.Add(48 * time.Hour)}
	condo := property.Attributes{Type: property.Condo, Price: 1_000_000, ListedAt: day}
	houses := property.Filters{PropertyType: property.House}

	tests := []struct {
		name   string
		vector []result.Candidate
		sql    []result.Candidate
		f      property.Filters
		limit  int
		want   []string
		scores []float64
	}{
		{
			name:   "empty",
			want:   []string{},
			scores: []float64{},
		},
		{
			name:   "vector by similarity",
			vector: []result.Candidate{cand("b", result.Vector, 0.6, old), cand("a", result.Vector, 0.9, old)},
			want:   []string{"a", "b"},
			scores: []float64{0.9, 0.6},
		},
		{
			name:   "sql-only gets baseline",
			vector: []result.Candidate{cand("v", result.Vector, 0.4, old)},
			sql:    []result.Candidate{cand("s", result.SQL, 1, old)},
			want:   []string{"s", "v"},
			scores: []float64{0.5, 0.4},
		},
		{
			name:   "duplicate keeps vector score",
			vector: []result.Candidate{cand("x", result.Vector, 0.2, old)},
			sql:    []result.Candidate{cand("x", result.SQL, 1, old), cand("y", result.SQL, 1, old)},
			want:   []string{"y", "x"},
			scores: []float64{0.5, 0.2},
		},
		{
			name: "ties by recency then id",
			sql: []result.Candidate{
				cand("c", result.SQL, 1, old),
				cand("b", result.SQL, 1, old),
				cand("z", result.SQL, 1, recent),
			},
			want:   []string{"z", "b", "c"},
			scores: []float64{0.5, 0.5, 0.5},
		},
		{
			name:   "post-filter drops nonconforming vector hit",
			vector: []result.Candidate{cand("v", result.Vector, 0.99, condo)},
			sql:    []result.Candidate{cand("s", result.SQL, 1, old)},
			f:      houses,
			want:   []string{"s"},
			scores: []float64{0.5},
		},
		{
			name:   "stale vector entry does not hide sql row",
			vector: []result.Candidate{cand("x", result.Vector, 0.99, condo)},
			sql:    []result.Candidate{cand("x", result.SQL, 1, old)},
			f:      houses,
			want:   []string{"x"},
			scores: []float64{0.5},
		},
		{
			name: "truncate after merge",
			vector: []result.Candidate{
				cand("v1", result.Vector, 0.9, old),
				cand("v2", result.Vector, 0.1, old),
			},
			sql:    []result.Candidate{cand("s1", result.SQL, 1, old)},
			limit:  2,
			want:   []string{"v1", "s1"},
			scores: []float64{0.9, 0.5},
		},
		{
			name:   "scores clamped",
			vector: []result.Candidate{cand("hi", result.Vector, 1.4, old), cand("lo", result.Vector, -0.2, old)},
			want:   []string{"hi", "lo"},
			scores: []float64{1, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.vector, tc.sql, tc.f, tc.limit, DefaultBaseline)

			if !slices.Equal(ids(got), tc.want) {
				t.Fatalf("ids = %v, want %v", ids(got), tc.want)
			}
			for i := range got {
				if got[i].Relevance() != tc.scores[i] {
					t.Errorf("%s relevance = %v, want %v", got[i].ID(), got[i].Relevance(), tc.scores[i])
				}
				if got[i].Rank() != i+1 {
					t.Errorf("%s rank = %d, want %d", got[i].ID(), got[i].Rank(), i+1)
				}
			}
		})
	}
}

func TestMerge_CustomBaseline(t *testing.T) {
	got := Merge(
		[]result.Candidate{cand("v", result.Vector, 0.5, property.Attributes{ListedAt: day})},
		[]result.Candidate{cand("s", result.SQL, 1, property.Attributes{ListedAt: day})},
		property.Filters{}, 0, 0.7,
	)
	if !slices.Equal(ids(got), []string{"s", "v"}) {
		t.Errorf("ids = %v", ids(got))
	}
}
