// Package listing answers structured-only searches from the relational
// properties table.
package listing

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/fold"
	"github.com/kailas-cloud/propfinder/internal/domain/property"
	"github.com/kailas-cloud/propfinder/internal/domain/search/result"
)

// SQLScore is the path score of every relational match.
const SQLScore = 1.0

// Repo implements usecase/search.SQLSearcher.
type Repo struct {
	db *gorm.DB
}

// New creates a listing repository.
func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Search returns up to limit listings satisfying f, newest first, ties by ID.
func (r *Repo) Search(ctx context.Context, f property.Filters, limit int) ([]result.Candidate, error) {
	var rows []Record
	if err := buildQuery(r.db.WithContext(ctx), f, limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSQLSearchFailure, err)
	}

	out := make([]result.Candidate, 0, len(rows))
	for i := range rows {
		out = append(out, result.NewCandidate(rows[i].ID, result.SQL, SQLScore, rows[i].Attributes()))
	}
	return out, nil
}

// Ping checks that the database answers.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// buildQuery renders f with the shared filter semantics: inclusive price,
// minimum counts, exact type, case-insensitive substring location and
// all-of features.
func buildQuery(tx *gorm.DB, f property.Filters, limit int) *gorm.DB {
	tx = tx.Model(&Record{})

	if f.PriceMin != nil {
		tx = tx.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		tx = tx.Where("price <= ?", *f.PriceMax)
	}
	if f.Bedrooms != nil {
		tx = tx.Where("bedrooms >= ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		tx = tx.Where("bathrooms >= ?", *f.Bathrooms)
	}
	if f.PropertyType != "" {
		tx = tx.Where("property_type = ?", string(f.PropertyType))
	}
	if f.City != "" {
		tx = whereContains(tx, "city", f.City)
	}
	if f.Region != "" {
		tx = whereContains(tx, "region", f.Region)
	}
	for _, tag := range f.Features {
		tx = tx.Where("? = ANY(string_to_array(replace(lower(features), ' ', ''), ','))", tag)
	}

	tx = tx.Order("listed_at DESC").Order("id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return tx
}

// whereContains matches value as a substring of column ignoring case and
// accents on both sides, so "cancun" finds "Cancún" and vice versa.
func whereContains(tx *gorm.DB, column, value string) *gorm.DB {
	return tx.Where(foldColumn(column)+" LIKE ?", likePattern(fold.String(value)))
}

// Accented letters translate() maps to ASCII; mirrors fold.String for the
// Spanish and Portuguese spellings found in listing data.
const (
	accented   = "áàäâãéèëêíìïîóòöôõúùüûñç"
	unaccented = "aaaaaeeeeiiiiooooouuuunc"
)

func foldColumn(column string) string {
	return "translate(lower(" + column + "), '" + accented + "', '" + unaccented + "')"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
