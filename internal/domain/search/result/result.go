package result

import "github.com/kailas-cloud/propfinder/internal/domain/property"

// Source identifies which search path produced a candidate.
type Source string

// Candidate sources.
const (
	Vector Source = "vector"
	SQL    Source = "sql"
)

// Candidate is one property match before final ranking.
type Candidate struct {
	id     string
	source Source
	score  float64
	attrs  property.Attributes
}

// NewCandidate creates a candidate. score is the similarity in [0,1] for
// vector matches and 1.0 for SQL matches.
func NewCandidate(id string, source Source, score float64, attrs property.Attributes) Candidate {
	return Candidate{id: id, source: source, score: score, attrs: attrs}
}

// ID returns the property identifier.
func (c *Candidate) ID() string { return c.id }

// Source returns the producing search path.
func (c *Candidate) Source() Source { return c.source }

// Score returns the raw path score.
func (c *Candidate) Score() float64 { return c.score }

// Attributes returns the listing attributes used for post-filtering.
func (c *Candidate) Attributes() property.Attributes { return c.attrs }

// Ranked is a candidate with its composite relevance and 1-based position.
type Ranked struct {
	Candidate
	relevance float64
	rank      int
}

// NewRanked creates a ranked result.
func NewRanked(c Candidate, relevance float64, rank int) Ranked {
	return Ranked{Candidate: c, relevance: relevance, rank: rank}
}

// Relevance returns the composite score in [0,1].
func (r *Ranked) Relevance() float64 { return r.relevance }

// Rank returns the 1-based position in the final list.
func (r *Ranked) Rank() int { return r.rank }
