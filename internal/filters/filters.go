package filters

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cloudposture/findingsman/internal/schema"
)

// Filter is the ordered, non-empty set of same-kind criteria declared for a
// single finding field. A set of resolved field values matches the Filter
// when it matches any one criterion (OR).
type Filter struct {
	Kind     schema.Kind
	Criteria []Criterion
}

// MatchValues evaluates the filter against the values resolved for its
// field. An empty values slice means the field is absent from the finding:
// negative criteria then hold trivially, positive ones fail. For
// multi-valued fields a positive criterion needs any element to satisfy it,
// a negative criterion needs every element to.
func (f Filter) MatchValues(values []any) bool {
	for _, c := range f.Criteria {
		if criterionMatches(c, values) {
			return true
		}
	}
	return false
}

func criterionMatches(c Criterion, values []any) bool {
	if len(values) == 0 {
		return c.Negative()
	}
	if c.Negative() {
		for _, v := range values {
			if !c.Matches(v) {
				return false
			}
		}
		return true
	}
	for _, v := range values {
		if c.Matches(v) {
			return true
		}
	}
	return false
}

// AllFilters is the full match predicate of a rule: one Filter per field
// name, combined with AND. An empty AllFilters matches every finding.
type AllFilters map[string]Filter

// FieldNames returns the filtered field names in sorted order.
func (a AllFilters) FieldNames() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint returns a stable hash of the predicate, used to correlate log
// lines across apply runs. Structurally equal AllFilters hash identically.
func (a AllFilters) Fingerprint() uint64 {
	digest := xxhash.New()
	for _, name := range a.FieldNames() {
		f := a[name]
		fmt.Fprintf(digest, "%s/%s:%v;", name, f.Kind, f.Criteria)
	}
	return digest.Sum64()
}
