package filters

import (
	"fmt"
	"time"

	"github.com/cloudposture/findingsman/internal/schema"
)

// timeNow is swapped out in tests that exercise relative date ranges.
var timeNow = func() time.Time { return time.Now().UTC() }

// RawCriterion is one declarative filter entry as produced by an external
// loader. Which fields are meaningful depends on the target field's kind:
// string/number/date entries carry Value and Comparison, map entries add
// Key, and date entries may instead carry a relative DateRange.
type RawCriterion struct {
	Comparison string         `yaml:"Comparison,omitempty" json:"Comparison,omitempty"`
	Value      any            `yaml:"Value,omitempty" json:"Value,omitempty"`
	Key        string         `yaml:"Key,omitempty" json:"Key,omitempty"`
	DateRange  *RelativeRange `yaml:"DateRange,omitempty" json:"DateRange,omitempty"`
}

// RelativeRange selects findings from the last Value units, resolved to an
// absolute range when the filter is built.
type RelativeRange struct {
	Value int    `yaml:"Value" json:"Value"`
	Unit  string `yaml:"Unit,omitempty" json:"Unit,omitempty"`
}

// Build turns raw declarative input into a validated AllFilters. It is a
// pure function of its input (relative date ranges excepted, which anchor
// to build time) and fails on the first invalid field name, comparison
// operator, or value shape without retaining partial state.
func Build(raw map[string][]RawCriterion) (AllFilters, error) {
	built := make(AllFilters, len(raw))
	for name, entries := range raw {
		field, ok := schema.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: field %q", ErrEmptyFilter, name)
		}

		criteria := make([]Criterion, 0, len(entries))
		for i, entry := range entries {
			expanded, err := buildCriterion(field, entry)
			if err != nil {
				return nil, fmt.Errorf("field %q entry %d: %w", name, i, err)
			}
			criteria = append(criteria, expanded...)
		}
		built[name] = Filter{Kind: field.Kind, Criteria: criteria}
	}
	return built, nil
}

// buildCriterion returns one or more criteria for a raw entry. String
// entries with a list-valued Value expand into one criterion per element.
func buildCriterion(field schema.Field, entry RawCriterion) ([]Criterion, error) {
	switch field.Kind {
	case schema.KindString:
		return buildStringCriteria(entry)
	case schema.KindNumber:
		c, err := buildNumberCriterion(entry)
		if err != nil {
			return nil, err
		}
		return []Criterion{c}, nil
	case schema.KindDate:
		c, err := buildDateCriterion(entry)
		if err != nil {
			return nil, err
		}
		return []Criterion{c}, nil
	case schema.KindMap:
		c, err := buildMapCriterion(entry)
		if err != nil {
			return nil, err
		}
		return []Criterion{c}, nil
	}
	return nil, fmt.Errorf("%w: unsupported field kind %q", ErrInvalidShape, field.Kind)
}

func buildStringCriteria(entry RawCriterion) ([]Criterion, error) {
	comparison := Comparison(entry.Comparison)
	if _, ok := stringComparisons[comparison]; !ok {
		return nil, fmt.Errorf("%w: string comparison %q", ErrInvalidComparison, entry.Comparison)
	}

	values, err := stringValues(entry.Value)
	if err != nil {
		return nil, err
	}
	criteria := make([]Criterion, 0, len(values))
	for _, v := range values {
		criteria = append(criteria, StringCriterion{Comparison: comparison, Value: v})
	}
	return criteria, nil
}

func stringValues(v any) ([]string, error) {
	switch value := v.(type) {
	case string:
		return []string{value}, nil
	case []string:
		if len(value) == 0 {
			return nil, fmt.Errorf("%w: empty string list", ErrInvalidShape)
		}
		return value, nil
	case []any:
		if len(value) == 0 {
			return nil, fmt.Errorf("%w: empty string list", ErrInvalidShape)
		}
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: string list element %v", ErrInvalidShape, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected string value, got %T", ErrInvalidShape, v)
	}
}

func buildNumberCriterion(entry RawCriterion) (Criterion, error) {
	comparison := Comparison(entry.Comparison)
	if _, ok := numberComparisons[comparison]; !ok {
		return nil, fmt.Errorf("%w: number comparison %q", ErrInvalidComparison, entry.Comparison)
	}

	if comparison == CompRange {
		low, high, err := floatPair(entry.Value)
		if err != nil {
			return nil, err
		}
		return NumberCriterion{Comparison: comparison, Low: low, High: high}, nil
	}

	n, ok := toFloat64(entry.Value)
	if !ok {
		return nil, fmt.Errorf("%w: expected numeric value, got %T", ErrInvalidShape, entry.Value)
	}
	return NumberCriterion{Comparison: comparison, Value: n}, nil
}

func floatPair(v any) (float64, float64, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, fmt.Errorf("%w: range value must be a [low, high] pair", ErrInvalidShape)
	}
	low, okLow := toFloat64(pair[0])
	high, okHigh := toFloat64(pair[1])
	if !okLow || !okHigh {
		return 0, 0, fmt.Errorf("%w: range bounds must be numeric", ErrInvalidShape)
	}
	if low > high {
		return 0, 0, fmt.Errorf("%w: range low %v exceeds high %v", ErrInvalidShape, low, high)
	}
	return low, high, nil
}

func buildDateCriterion(entry RawCriterion) (Criterion, error) {
	if entry.DateRange != nil {
		return buildRelativeDateCriterion(entry)
	}

	comparison := Comparison(entry.Comparison)
	if _, ok := dateComparisons[comparison]; !ok {
		return nil, fmt.Errorf("%w: date comparison %q", ErrInvalidComparison, entry.Comparison)
	}

	if comparison == CompRange {
		start, end, err := timePair(entry.Value)
		if err != nil {
			return nil, err
		}
		return DateCriterion{Comparison: comparison, Start: start, End: end}, nil
	}

	t, err := parseTimestamp(entry.Value)
	if err != nil {
		return nil, err
	}
	return DateCriterion{Comparison: comparison, Value: t}, nil
}

// buildRelativeDateCriterion resolves a "last N days" entry into an
// absolute inclusive range anchored at build time.
func buildRelativeDateCriterion(entry RawCriterion) (Criterion, error) {
	if entry.Comparison != "" && Comparison(entry.Comparison) != CompRange {
		return nil, fmt.Errorf("%w: date comparison %q with DateRange", ErrInvalidComparison, entry.Comparison)
	}
	if entry.DateRange.Value <= 0 {
		return nil, fmt.Errorf("%w: relative range value %d", ErrInvalidShape, entry.DateRange.Value)
	}
	if entry.DateRange.Unit != "" && entry.DateRange.Unit != "DAYS" {
		return nil, fmt.Errorf("%w: relative range unit %q", ErrInvalidShape, entry.DateRange.Unit)
	}

	now := timeNow()
	start := now.Add(-time.Duration(entry.DateRange.Value) * 24 * time.Hour)
	return DateCriterion{Comparison: CompRange, Start: start, End: now}, nil
}

func timePair(v any) (time.Time, time.Time, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range value must be a [start, end] pair", ErrInvalidShape)
	}
	start, err := parseTimestamp(pair[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimestamp(pair[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range start %v after end %v", ErrInvalidShape, start, end)
	}
	return start, end, nil
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalidShape, t)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%w: expected RFC3339 timestamp, got %T", ErrInvalidShape, v)
	}
}

func buildMapCriterion(entry RawCriterion) (Criterion, error) {
	comparison := Comparison(entry.Comparison)
	if _, ok := mapComparisons[comparison]; !ok {
		return nil, fmt.Errorf("%w: map comparison %q", ErrInvalidComparison, entry.Comparison)
	}
	if entry.Key == "" {
		return nil, fmt.Errorf("%w: map criterion requires a key", ErrInvalidShape)
	}

	value := ""
	if comparison == CompEquals {
		s, ok := entry.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: map EQUALS requires a string value", ErrInvalidShape)
		}
		value = s
	} else if entry.Value != nil {
		return nil, fmt.Errorf("%w: map %s does not take a value", ErrInvalidShape, comparison)
	}

	return MapCriterion{Comparison: comparison, Key: entry.Key, Value: value}, nil
}
