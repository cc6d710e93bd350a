// Package filters implements the typed predicate language over finding
// fields: criteria specialized per value kind, OR-combined filters per
// field, and the AND-combined AllFilters composite, together with the
// factory that builds and validates them from declarative input.
package filters

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cloudposture/findingsman/internal/schema"
)

// Comparison is the operator of a single criterion.
type Comparison string

const (
	CompEquals          Comparison = "EQUALS"
	CompNotEquals       Comparison = "NOT_EQUALS"
	CompPrefix          Comparison = "PREFIX"
	CompPrefixNotEquals Comparison = "PREFIX_NOT_EQUALS"
	CompGTE             Comparison = "GTE"
	CompLTE             Comparison = "LTE"
	CompRange           Comparison = "RANGE"
	CompBefore          Comparison = "BEFORE"
	CompAfter           Comparison = "AFTER"
	CompExists          Comparison = "EXISTS"
	CompNotExists       Comparison = "NOT_EXISTS"
)

var (
	stringComparisons = map[Comparison]struct{}{
		CompEquals: {}, CompNotEquals: {}, CompPrefix: {}, CompPrefixNotEquals: {},
	}
	numberComparisons = map[Comparison]struct{}{
		CompEquals: {}, CompGTE: {}, CompLTE: {}, CompRange: {},
	}
	dateComparisons = map[Comparison]struct{}{
		CompEquals: {}, CompBefore: {}, CompAfter: {}, CompRange: {},
	}
	mapComparisons = map[Comparison]struct{}{
		CompEquals: {}, CompExists: {}, CompNotExists: {},
	}
)

// Criterion is one (comparison, value) predicate over a single finding
// field value. The union is closed: String, Number, Date, and Map are the
// only implementations.
type Criterion interface {
	// Kind reports the value kind the criterion operates on.
	Kind() schema.Kind
	// Negative reports whether the comparison is an exclusion. Negative
	// criteria are trivially satisfied by an absent field value and must
	// hold for every element of a list-valued field.
	Negative() bool
	// Matches evaluates the criterion against one scalar value from a
	// finding. A value of the wrong kind never matches.
	Matches(value any) bool

	criterion()
}

// StringCriterion compares a string field against a fixed value.
type StringCriterion struct {
	Comparison Comparison
	Value      string
}

func (c StringCriterion) Kind() schema.Kind { return schema.KindString }

func (c StringCriterion) Negative() bool {
	return c.Comparison == CompNotEquals || c.Comparison == CompPrefixNotEquals
}

func (c StringCriterion) Matches(value any) bool {
	s, ok := toString(value)
	if !ok {
		return false
	}
	switch c.Comparison {
	case CompEquals:
		return s == c.Value
	case CompNotEquals:
		return s != c.Value
	case CompPrefix:
		return strings.HasPrefix(s, c.Value)
	case CompPrefixNotEquals:
		return !strings.HasPrefix(s, c.Value)
	}
	return false
}

func (StringCriterion) criterion() {}

// NumberCriterion compares a numeric field against a bound or an inclusive
// range. Value carries the operand for EQUALS/GTE/LTE; Low and High carry
// the RANGE bounds.
type NumberCriterion struct {
	Comparison Comparison
	Value      float64
	Low        float64
	High       float64
}

func (c NumberCriterion) Kind() schema.Kind { return schema.KindNumber }

func (c NumberCriterion) Negative() bool { return false }

func (c NumberCriterion) Matches(value any) bool {
	n, ok := toFloat64(value)
	if !ok {
		return false
	}
	switch c.Comparison {
	case CompEquals:
		return n == c.Value
	case CompGTE:
		return n >= c.Value
	case CompLTE:
		return n <= c.Value
	case CompRange:
		return n >= c.Low && n <= c.High
	}
	return false
}

func (NumberCriterion) criterion() {}

// DateCriterion compares a timestamp field against an instant or an
// inclusive interval. Value carries the operand for EQUALS/BEFORE/AFTER;
// Start and End carry the RANGE bounds.
type DateCriterion struct {
	Comparison Comparison
	Value      time.Time
	Start      time.Time
	End        time.Time
}

func (c DateCriterion) Kind() schema.Kind { return schema.KindDate }

func (c DateCriterion) Negative() bool { return false }

func (c DateCriterion) Matches(value any) bool {
	t, ok := toTime(value)
	if !ok {
		return false
	}
	switch c.Comparison {
	case CompEquals:
		return t.Equal(c.Value)
	case CompBefore:
		return t.Before(c.Value)
	case CompAfter:
		return t.After(c.Value)
	case CompRange:
		return !t.Before(c.Start) && !t.After(c.End)
	}
	return false
}

func (DateCriterion) criterion() {}

// MapCriterion tests a map-valued field for key presence or for the value
// stored under a key.
type MapCriterion struct {
	Comparison Comparison
	Key        string
	Value      string
}

func (c MapCriterion) Kind() schema.Kind { return schema.KindMap }

func (c MapCriterion) Negative() bool { return c.Comparison == CompNotExists }

func (c MapCriterion) Matches(value any) bool {
	m, ok := toMap(value)
	if !ok {
		return false
	}
	entry, present := m[c.Key]
	switch c.Comparison {
	case CompExists:
		return present
	case CompNotExists:
		return !present
	case CompEquals:
		if !present {
			return false
		}
		s, ok := toString(entry)
		return ok && s == c.Value
	}
	return false
}

func (MapCriterion) criterion() {}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
