// Package hubtest provides an in-memory stand-in for the remote finding
// store, used by client and rule tests. It implements the service's query
// semantics (terms OR-ed within a field, fields AND-ed) over a fixed
// finding set and records every update call it receives.
package hubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/finding"
	"github.com/cloudposture/findingsman/internal/hub"
	"github.com/cloudposture/findingsman/internal/schema"
)

// Server is a scripted finding store.
type Server struct {
	mu       sync.Mutex
	findings []finding.Document
	failIDs  map[string]struct{}

	searchCalls int
	updateCalls []finding.Identifier
	updates     []hub.FindingUpdate
}

// New creates a server seeded with the given findings.
func New(findings ...finding.Document) *Server {
	return &Server{
		findings: findings,
		failIDs:  make(map[string]struct{}),
	}
}

// FailUpdates makes update calls for the given finding IDs return 500.
func (s *Server) FailUpdates(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.failIDs[id] = struct{}{}
	}
}

// SearchCalls reports how many query requests were served.
func (s *Server) SearchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls
}

// UpdateCalls reports every update attempt in order, including failed ones.
func (s *Server) UpdateCalls() []finding.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]finding.Identifier(nil), s.updateCalls...)
}

// Updates reports the payload of every update attempt in order.
func (s *Server) Updates() []hub.FindingUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hub.FindingUpdate(nil), s.updates...)
}

// Handler returns the HTTP surface of the stub.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/findings/search", s.handleSearch)
	r.Post("/v1/findings/update", s.handleUpdate)
	return r
}

type searchRequest struct {
	Filters    hub.QueryFilters `json:"Filters"`
	NextToken  string           `json:"NextToken"`
	MaxResults int              `json:"MaxResults"`
}

type updateRequest struct {
	Finding finding.Identifier `json:"Finding"`
	Update  hub.FindingUpdate  `json:"Update"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	compiled, err := compileQuery(req.Filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.searchCalls++
	var matched []finding.Document
	for _, doc := range s.findings {
		if matchesQuery(doc, compiled) {
			matched = append(matched, doc)
		}
	}
	s.mu.Unlock()

	pageSize := req.MaxResults
	if pageSize <= 0 {
		pageSize = 100
	}
	offset := 0
	if req.NextToken != "" {
		offset, _ = strconv.Atoi(req.NextToken)
	}

	page := hub.FindingsPage{}
	if offset < len(matched) {
		end := offset + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		page.Findings = matched[offset:end]
		if end < len(matched) {
			page.NextToken = strconv.Itoa(end)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.updateCalls = append(s.updateCalls, req.Finding)
	s.updates = append(s.updates, req.Update)
	_, fail := s.failIDs[req.Finding.ID]
	s.mu.Unlock()

	if fail {
		http.Error(w, "finding update rejected", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

type compiledFilter struct {
	path   string
	filter filters.Filter
}

// compileQuery rebuilds each term set into criteria once per request; a
// malformed query (unknown field, unparsable timestamp) is a 400, not a
// silent non-match.
func compileQuery(query hub.QueryFilters) ([]compiledFilter, error) {
	compiled := make([]compiledFilter, 0, len(query))
	for name, terms := range query {
		field, ok := schema.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown filter field %q", name)
		}
		criteria, err := termCriteria(field.Kind, terms)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		compiled = append(compiled, compiledFilter{
			path:   field.Path,
			filter: filters.Filter{Kind: field.Kind, Criteria: criteria},
		})
	}
	return compiled, nil
}

// matchesQuery applies the remote filtering semantics: terms OR within a
// field, fields AND.
func matchesQuery(doc finding.Document, compiled []compiledFilter) bool {
	for _, cf := range compiled {
		if !cf.filter.MatchValues(doc.Resolve(cf.path)) {
			return false
		}
	}
	return true
}

func termCriteria(kind schema.Kind, terms []hub.Term) ([]filters.Criterion, error) {
	criteria := make([]filters.Criterion, 0, len(terms))
	for _, term := range terms {
		switch kind {
		case schema.KindString:
			criteria = append(criteria, filters.StringCriterion{
				Comparison: filters.Comparison(term.Comparison),
				Value:      term.Value,
			})
		case schema.KindNumber:
			c := filters.NumberCriterion{Comparison: filters.CompRange}
			if term.Gte != nil {
				c.Low = *term.Gte
			}
			if term.Lte != nil {
				c.High = *term.Lte
			}
			criteria = append(criteria, c)
		case schema.KindDate:
			start, err := parseWire(term.Start)
			if err != nil {
				return nil, fmt.Errorf("range start %q: %w", term.Start, err)
			}
			end, err := parseWire(term.End)
			if err != nil {
				return nil, fmt.Errorf("range end %q: %w", term.End, err)
			}
			criteria = append(criteria, filters.DateCriterion{
				Comparison: filters.CompRange,
				Start:      start,
				End:        end,
			})
		}
	}
	return criteria, nil
}

func parseWire(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
