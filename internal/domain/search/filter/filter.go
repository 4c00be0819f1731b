package filter

import "fmt"

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// MaxValuesPerCondition caps the any-of list of a single tag condition.
const MaxValuesPerCondition = 64

// Expression is a structured filter with must/should/must_not boolean semantics.
// Must conditions are ANDed, should conditions form one OR group, must_not are negated.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

type kind int

const (
	kindMatch kind = iota + 1
	kindRange
	kindMissing
	kindAnyOf
)

// Condition is a single filter clause: a tag any-of match, a numeric range,
// a field-absence test, or an OR group of nested conditions.
type Condition struct {
	kind      kind
	key       string
	values    []string
	rangeExpr *Range
	anyOf     []Condition
}

// NewMatch creates a tag condition satisfied when the field holds any of the values.
func NewMatch(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	if len(values) > MaxValuesPerCondition {
		return Condition{}, fmt.Errorf("too many values for key %q (max %d)", key, MaxValuesPerCondition)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty match value for key %q", key)
		}
	}
	return Condition{kind: kindMatch, key: key, values: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: kindRange, key: key, rangeExpr: &r}, nil
}

// NewMissing creates a condition satisfied when the field is absent from the document.
func NewMissing(key string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: kindMissing, key: key}, nil
}

// NewAnyOf creates an OR group over nested conditions.
func NewAnyOf(conditions ...Condition) (Condition, error) {
	if len(conditions) == 0 {
		return Condition{}, fmt.Errorf("any-of group requires at least one condition")
	}
	if len(conditions) > MaxConditionsPerGroup {
		return Condition{}, fmt.Errorf("too many any-of conditions (max %d)", MaxConditionsPerGroup)
	}
	return Condition{kind: kindAnyOf, anyOf: conditions}, nil
}

// Key returns the field name (empty for any-of groups).
func (c Condition) Key() string { return c.key }

// Values returns all match values.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// AnyOf returns the nested conditions of an OR group.
func (c Condition) AnyOf() []Condition { return c.anyOf }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.kind == kindMatch }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.kind == kindRange }

// IsMissing reports whether this is a field-absence condition.
func (c Condition) IsMissing() bool { return c.kind == kindMissing }

// IsAnyOf reports whether this is an OR group.
func (c Condition) IsAnyOf() bool { return c.kind == kindAnyOf }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	lower, upper := gt, lt
	if lower == nil {
		lower = gte
	}
	if upper == nil {
		upper = lte
	}
	if lower != nil && upper != nil && *lower > *upper {
		return Range{}, fmt.Errorf("lower bound %g exceeds upper bound %g", *lower, *upper)
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
