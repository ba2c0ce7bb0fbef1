// Package filter describes metadata pre-filters pushed down to the vector index.
package filter

import "fmt"

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 32

// Expression is a conjunction of conditions: a listing must satisfy all of them.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(conds ...Condition) (Expression, error) {
	if len(conds) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conds}, nil
}

// Conditions returns the conditions in insertion order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Condition is a single clause: a tag set (any of the values) or a numeric range.
type Condition struct {
	key       string
	anyOf     []string
	rangeExpr *Range
}

// NewTag creates a tag condition matching any of values.
func NewTag(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one tag value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty tag value for key %q", key)
		}
	}
	return Condition{key: key, anyOf: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the indexed field name.
func (c Condition) Key() string { return c.key }

// Tags returns the accepted tag values.
func (c Condition) Tags() []string { return c.anyOf }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsTag reports whether this is a tag condition.
func (c Condition) IsTag() bool { return len(c.anyOf) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is an inclusive numeric interval; a nil bound is open.
type Range struct {
	min *float64
	max *float64
}

// NewRangeFilter validates and creates a Range. At least one bound is required.
func NewRangeFilter(minV, maxV *float64) (Range, error) {
	if minV == nil && maxV == nil {
		return Range{}, fmt.Errorf("at least one range bound is required")
	}
	if minV != nil && maxV != nil && *minV > *maxV {
		return Range{}, fmt.Errorf("range min %g exceeds max %g", *minV, *maxV)
	}
	return Range{min: minV, max: maxV}, nil
}

// Min returns the inclusive lower bound.
func (r Range) Min() *float64 { return r.min }

// Max returns the inclusive upper bound.
func (r Range) Max() *float64 { return r.max }
