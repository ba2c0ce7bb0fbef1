// Package vector runs pre-filtered KNN queries over the listing index.
package vector

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/propfinder/internal/db"
	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/fold"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

// Index layout shared with the ingestion job.
const (
	KeyPrefix   = "propfinder:listing:"
	IndexName   = "propfinder:listings:idx"
	VectorField = "vector"

	hnswM           = 16
	hnswEFConstruct = 200
)

// Hash fields of one listing.
const (
	fieldTitle     = "title"
	fieldPrice     = "price"
	fieldBedrooms  = "bedrooms"
	fieldBathrooms = "bathrooms"
	fieldType      = "property_type"
	fieldCity      = "city"
	fieldCityKey   = "city_key"
	fieldRegion    = "region"
	fieldRegionKey = "region_key"
	fieldFeatures  = "features"
	fieldListedAt  = "listed_at"
)

var returnFields = []string{
	fieldTitle, fieldPrice, fieldBedrooms, fieldBathrooms, fieldType,
	fieldCity, fieldRegion, fieldFeatures, fieldListedAt,
}

// store is the consumer interface for vector operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string) error
}

// Repo implements usecase/search.VectorSearcher.
type Repo struct {
	store store
}

// New creates a vector repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search returns up to topK listings nearest to vec that satisfy the
// structured filters, most similar first.
func (r *Repo) Search(
	ctx context.Context, vec []float32, filters property.Filters, topK int,
) ([]result.Candidate, error) {
	expr, err := BuildExpression(filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorSearchUnavailable, err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		VectorField:  VectorField,
		Filters:      expr,
		Vector:       vec,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorSearchUnavailable, err)
	}
	return parseCandidates(sr), nil
}

// DropIndex removes the listing index. A missing index is not an error;
// the indexed hashes stay in place and are picked up again on re-create.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// EnsureIndex creates the listing index for dim-sized vectors unless it exists.
// It reports whether the index was created.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) (bool, error) {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	if exists {
		return false, nil
	}

	def, err := Schema(dim)
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index: %w", err)
	}
	return true, nil
}

// Schema describes the listing index for dim-sized vectors.
func Schema(dim int) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Numeric(fieldPrice, fieldBedrooms, fieldBathrooms, fieldListedAt).
		Tag(fieldType).
		Tag(fieldCityKey).
		Tag(fieldRegionKey).
		TagSep(fieldFeatures, ",").
		VectorHNSW(VectorField, dim, db.DistanceCosine, hnswM, hnswEFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("listing schema: %w", err)
	}
	return def, nil
}

// BuildExpression renders structured filters as index pre-filter conditions.
// City and region match the folded tag exactly; substring matching is left
// to the post-filter.
func BuildExpression(f property.Filters) (filter.Expression, error) {
	var conds []filter.Condition
	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		conds = append(conds, c)
		return nil
	}

	var errs []error
	if f.PropertyType != "" {
		errs = append(errs, add(filter.NewTag(fieldType, string(f.PropertyType))))
	}
	if f.City != "" {
		errs = append(errs, add(filter.NewTag(fieldCityKey, fold.String(f.City))))
	}
	if f.Region != "" {
		errs = append(errs, add(filter.NewTag(fieldRegionKey, fold.String(f.Region))))
	}
	for _, tag := range f.Features {
		errs = append(errs, add(filter.NewTag(fieldFeatures, tag)))
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		errs = append(errs, addRange(&conds, fieldPrice, f.PriceMin, f.PriceMax))
	}
	if f.Bedrooms != nil {
		errs = append(errs, addRange(&conds, fieldBedrooms, intBound(f.Bedrooms), nil))
	}
	if f.Bathrooms != nil {
		errs = append(errs, addRange(&conds, fieldBathrooms, intBound(f.Bathrooms), nil))
	}
	if err := errors.Join(errs...); err != nil {
		return filter.Expression{}, fmt.Errorf("build pre-filter: %w", err)
	}
	return filter.NewExpression(conds...)
}

func addRange(conds *[]filter.Condition, key string, lo, hi *float64) error {
	r, err := filter.NewRangeFilter(lo, hi)
	if err != nil {
		return err
	}
	c, err := filter.NewRange(key, r)
	if err != nil {
		return err
	}
	*conds = append(*conds, c)
	return nil
}

func intBound(n *int) *float64 {
	v := float64(*n)
	return &v
}

// parseCandidates converts store entries, most similar first, ties by ID.
func parseCandidates(sr *db.SearchResult) []result.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, KeyPrefix)
		out = append(out, result.NewCandidate(id, result.Vector, entry.Score, parseAttributes(entry.Fields)))
	}

	slices.SortStableFunc(out, func(a, b result.Candidate) int {
		if c := cmp.Compare(b.Score(), a.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}

// parseAttributes reads listing fields; malformed numbers read as zero.
func parseAttributes(fields map[string]string) property.Attributes {
	a := property.Attributes{
		Title:    fields[fieldTitle],
		Price:    parseFloat(fields[fieldPrice]),
		Type:     property.Type(fields[fieldType]),
		City:     fields[fieldCity],
		Region:   fields[fieldRegion],
		Features: property.SplitFeatures(fields[fieldFeatures]),
	}
	a.Bedrooms = int(parseFloat(fields[fieldBedrooms]))
	a.Bathrooms = int(parseFloat(fields[fieldBathrooms]))
	if ts := int64(parseFloat(fields[fieldListedAt])); ts > 0 {
		a.ListedAt = time.Unix(ts, 0).UTC()
	}
	return a
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
