package listing

import (
	"math"
	"time"

	"github.com/kailas-cloud/propfinder/internal/domain/property"
)

// Record is one row of the properties table. Prices are stored in MXN;
// features is a comma-delimited tag list.
type Record struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Title        string    `gorm:"column:title"`
	Price        float64   `gorm:"column:price"`
	Bedrooms     int       `gorm:"column:bedrooms"`
	Bathrooms    float64   `gorm:"column:bathrooms"`
	PropertyType string    `gorm:"column:property_type"`
	City         string    `gorm:"column:city"`
	Region       string    `gorm:"column:region"`
	Features     string    `gorm:"column:features"`
	ListedAt     time.Time `gorm:"column:listed_at"`
}

// TableName pins the gorm table name.
func (Record) TableName() string { return "properties" }

// Attributes converts the row; fractional bathrooms floor.
func (r *Record) Attributes() property.Attributes {
	return property.Attributes{
		Title:     r.Title,
		Price:     r.Price,
		Bedrooms:  r.Bedrooms,
		Bathrooms: int(math.Floor(r.Bathrooms)),
		Type:      property.Type(r.PropertyType),
		City:      r.City,
		Region:    r.Region,
		Features:  property.SplitFeatures(r.Features),
		ListedAt:  r.ListedAt,
	}
}
