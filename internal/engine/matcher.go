// Package engine evaluates finding documents against an AllFilters
// predicate without calling the remote service. It is used both to apply
// filters the remote query cannot express and to re-verify findings the
// remote query returned.
package engine

import (
	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/finding"
	"github.com/cloudposture/findingsman/internal/schema"
)

// Matches reports whether a finding satisfies every filter in all (AND
// across fields, OR within each field). It is total: a finding whose shape
// is incompatible with a filter's kind simply fails to match. An empty
// AllFilters matches everything.
func Matches(doc finding.Document, all filters.AllFilters) bool {
	for name, filter := range all {
		if !matchesField(doc, name, filter) {
			return false
		}
	}
	return true
}

func matchesField(doc finding.Document, name string, filter filters.Filter) bool {
	field, ok := schema.Lookup(name)
	if !ok {
		// Build rejects unknown names, so a stray one can only mean the
		// predicate was assembled by hand; treat it as a non-match.
		return false
	}
	return filter.MatchValues(doc.Resolve(field.Path))
}
