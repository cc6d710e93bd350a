package rules

import "github.com/cloudposture/findingsman/internal/filters"

// Definition is the declarative form of a rule as an external loader
// produces it: filter entries keyed by field name, plus the update to apply
// to every finding they select.
type Definition struct {
	Filters                   map[string][]filters.RawCriterion `yaml:"Filters" json:"Filters"`
	UpdatesToFilteredFindings map[string]any                    `yaml:"UpdatesToFilteredFindings" json:"UpdatesToFilteredFindings"`
}

// FromDefinition builds a Rule from its declarative form.
func FromDefinition(def Definition, acquire ClientFunc, opts ...Option) (*Rule, error) {
	return New(def.Filters, def.UpdatesToFilteredFindings, acquire, opts...)
}
