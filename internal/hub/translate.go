package hub

import (
	"time"

	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/schema"
)

// Translate splits an AllFilters into the fragment the remote query
// capability can express and the residual that must be applied offline
// after retrieval. A filter moves to the query only when every one of its
// criteria is representable: the service ORs terms within a field, so
// sending a partial criterion set would wrongly narrow the result set.
//
// Representable: string filters whose criteria are all positive or all
// negative (the service cannot mix signs on one field), and number/date
// filters whose criteria are all bounded ranges (EQUALS collapses to a
// point range). Map filters and one-sided number/date bounds stay offline.
func Translate(all filters.AllFilters) (QueryFilters, filters.AllFilters) {
	query := make(QueryFilters)
	residual := make(filters.AllFilters)
	for name, f := range all {
		if terms, ok := translateFilter(f); ok {
			query[name] = terms
		} else {
			residual[name] = f
		}
	}
	return query, residual
}

func translateFilter(f filters.Filter) ([]Term, bool) {
	switch f.Kind {
	case schema.KindString:
		return translateStringFilter(f)
	case schema.KindNumber:
		return translateNumberFilter(f)
	case schema.KindDate:
		return translateDateFilter(f)
	default:
		return nil, false
	}
}

func translateStringFilter(f filters.Filter) ([]Term, bool) {
	terms := make([]Term, 0, len(f.Criteria))
	positives, negatives := 0, 0
	for _, c := range f.Criteria {
		sc, ok := c.(filters.StringCriterion)
		if !ok {
			return nil, false
		}
		if sc.Negative() {
			negatives++
		} else {
			positives++
		}
		terms = append(terms, Term{Comparison: string(sc.Comparison), Value: sc.Value})
	}
	if positives > 0 && negatives > 0 {
		return nil, false
	}
	return terms, true
}

func translateNumberFilter(f filters.Filter) ([]Term, bool) {
	terms := make([]Term, 0, len(f.Criteria))
	for _, c := range f.Criteria {
		nc, ok := c.(filters.NumberCriterion)
		if !ok {
			return nil, false
		}
		switch nc.Comparison {
		case filters.CompEquals:
			terms = append(terms, Term{Gte: ptr(nc.Value), Lte: ptr(nc.Value)})
		case filters.CompRange:
			terms = append(terms, Term{Gte: ptr(nc.Low), Lte: ptr(nc.High)})
		default:
			// GTE/LTE are one-sided; the query needs bounded ranges.
			return nil, false
		}
	}
	return terms, true
}

func translateDateFilter(f filters.Filter) ([]Term, bool) {
	terms := make([]Term, 0, len(f.Criteria))
	for _, c := range f.Criteria {
		dc, ok := c.(filters.DateCriterion)
		if !ok {
			return nil, false
		}
		switch dc.Comparison {
		case filters.CompEquals:
			terms = append(terms, Term{Start: wire(dc.Value), End: wire(dc.Value)})
		case filters.CompRange:
			terms = append(terms, Term{Start: wire(dc.Start), End: wire(dc.End)})
		default:
			// BEFORE/AFTER are unbounded on one side.
			return nil, false
		}
	}
	return terms, true
}

// wire keeps sub-second precision: factory-built bounds can carry
// fractional seconds (relative ranges anchor at now), and truncating the
// End bound would make the remote query exclude findings the offline
// matcher selects.
func wire(t time.Time) string { return t.Format(time.RFC3339Nano) }

func ptr(v float64) *float64 { return &v }
