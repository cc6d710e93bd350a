package filters

import "errors"

// Sentinel errors returned by Build. All of them are construction-time
// failures: no partial AllFilters is ever returned alongside one.
var (
	// ErrUnknownField reports a filter name that is not in the finding
	// schema registry.
	ErrUnknownField = errors.New("unknown filter field")
	// ErrInvalidComparison reports a comparison operator that is not legal
	// for the field's value kind.
	ErrInvalidComparison = errors.New("comparison not valid for field kind")
	// ErrInvalidShape reports a criterion value that cannot be parsed into
	// the field's value kind.
	ErrInvalidShape = errors.New("malformed criterion value")
	// ErrEmptyFilter reports a declared filter group with zero entries.
	ErrEmptyFilter = errors.New("filter must contain at least one criterion")
)
