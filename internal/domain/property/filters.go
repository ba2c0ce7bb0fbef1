package property

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/propfinder/internal/domain/fold"
)

// MaxFeatures bounds the number of feature tags in one filter set.
const MaxFeatures = 16

// Filters are discrete constraints on listings. Every field is optional;
// the zero value means "no structured constraint".
type Filters struct {
	PriceMin     *float64
	PriceMax     *float64
	Currency     string
	Bedrooms     *int
	Bathrooms    *int
	PropertyType Type
	City         string
	Region       string
	Features     []string
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return f.PriceMin == nil && f.PriceMax == nil &&
		f.Bedrooms == nil && f.Bathrooms == nil &&
		f.PropertyType == "" && f.City == "" && f.Region == "" &&
		len(f.Features) == 0
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := f
	out.PriceMin = cloneFloat(f.PriceMin)
	out.PriceMax = cloneFloat(f.PriceMax)
	out.Bedrooms = cloneInt(f.Bedrooms)
	out.Bathrooms = cloneInt(f.Bathrooms)
	out.Features = slices.Clone(f.Features)
	return out
}

// Merge overlays explicit on top of f. Scalar fields set in explicit win;
// feature sets are unioned, keeping f's order first.
func (f Filters) Merge(explicit Filters) Filters {
	out := f.Clone()
	if explicit.PriceMin != nil {
		out.PriceMin = cloneFloat(explicit.PriceMin)
	}
	if explicit.PriceMax != nil {
		out.PriceMax = cloneFloat(explicit.PriceMax)
	}
	if explicit.Currency != "" {
		out.Currency = strings.ToUpper(explicit.Currency)
	}
	if explicit.Bedrooms != nil {
		out.Bedrooms = cloneInt(explicit.Bedrooms)
	}
	if explicit.Bathrooms != nil {
		out.Bathrooms = cloneInt(explicit.Bathrooms)
	}
	if explicit.PropertyType != "" {
		out.PropertyType = explicit.PropertyType
	}
	if explicit.City != "" {
		out.City = explicit.City
	}
	if explicit.Region != "" {
		out.Region = explicit.Region
	}
	for _, tag := range explicit.Features {
		out = out.WithFeature(tag)
	}
	return out
}

// WithFeature adds tag unless already present.
func (f Filters) WithFeature(tag string) Filters {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || slices.Contains(f.Features, tag) {
		return f
	}
	f.Features = append(slices.Clone(f.Features), tag)
	return f
}

// Validate rejects filters that cannot match anything sensible.
func (f Filters) Validate() error {
	var errs []error
	if f.PriceMin != nil && *f.PriceMin < 0 {
		errs = append(errs, errors.New("priceMin must be non-negative"))
	}
	if f.PriceMax != nil && *f.PriceMax < 0 {
		errs = append(errs, errors.New("priceMax must be non-negative"))
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		errs = append(errs, fmt.Errorf("priceMin %g exceeds priceMax %g", *f.PriceMin, *f.PriceMax))
	}
	if f.Bedrooms != nil && *f.Bedrooms < 0 {
		errs = append(errs, errors.New("bedrooms must be non-negative"))
	}
	if f.Bathrooms != nil && *f.Bathrooms < 0 {
		errs = append(errs, errors.New("bathrooms must be non-negative"))
	}
	if f.PropertyType != "" && !f.PropertyType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown propertyType %q", f.PropertyType))
	}
	switch f.Currency {
	case "", MXN, USD:
	default:
		errs = append(errs, fmt.Errorf("unsupported currency %q", f.Currency))
	}
	if len(f.Features) > MaxFeatures {
		errs = append(errs, fmt.Errorf("too many features (max %d)", MaxFeatures))
	}
	return errors.Join(errs...)
}

// InMXN returns a copy with USD price bounds converted at rate MXN per USD.
// Listings are priced in MXN.
func (f Filters) InMXN(usdRate float64) Filters {
	out := f.Clone()
	if out.Currency != USD || usdRate <= 0 {
		return out
	}
	if out.PriceMin != nil {
		v := *out.PriceMin * usdRate
		out.PriceMin = &v
	}
	if out.PriceMax != nil {
		v := *out.PriceMax * usdRate
		out.PriceMax = &v
	}
	out.Currency = MXN
	return out
}

// Matches applies the filter semantics shared by every search path:
// inclusive price range, minimum bedroom/bathroom counts, exact type,
// folded substring city/region and all-of features.
func (f Filters) Matches(a Attributes) bool {
	if f.PriceMin != nil && a.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && a.Price > *f.PriceMax {
		return false
	}
	if f.Bedrooms != nil && a.Bedrooms < *f.Bedrooms {
		return false
	}
	if f.Bathrooms != nil && a.Bathrooms < *f.Bathrooms {
		return false
	}
	if f.PropertyType != "" && a.Type != f.PropertyType {
		return false
	}
	if !fold.Contains(a.City, f.City) || !fold.Contains(a.Region, f.Region) {
		return false
	}
	for _, tag := range f.Features {
		if !a.HasFeature(tag) {
			return false
		}
	}
	return true
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
