// Package hub speaks to the remote finding store: the wire shapes its query
// and update capabilities accept, the translator from the internal predicate
// language to those shapes, and an HTTP client implementation.
package hub

import (
	"context"
	"fmt"

	"github.com/cloudposture/findingsman/internal/finding"
)

// Term is one server-side filter condition. Exactly one of the three forms
// is populated: Comparison+Value for strings, Gte/Lte for number ranges, or
// Start/End (RFC3339) for date ranges. Terms on the same field are OR-ed by
// the service, fields are AND-ed.
type Term struct {
	Comparison string   `json:"Comparison,omitempty"`
	Value      string   `json:"Value,omitempty"`
	Gte        *float64 `json:"Gte,omitempty"`
	Lte        *float64 `json:"Lte,omitempty"`
	Start      string   `json:"Start,omitempty"`
	End        string   `json:"End,omitempty"`
}

// QueryFilters is the filter fragment of a findings query, keyed by filter
// field name.
type QueryFilters map[string][]Term

// FindingsPage is one page of query results. An empty NextToken means the
// result set is exhausted.
type FindingsPage struct {
	Findings  []finding.Document `json:"Findings"`
	NextToken string             `json:"NextToken,omitempty"`
}

// WorkflowUpdate moves a finding to a new workflow status.
type WorkflowUpdate struct {
	Status string `json:"Status"`
}

// NoteUpdate attaches a note to a finding. The service requires both the
// text and its author.
type NoteUpdate struct {
	Text      string `json:"Text"`
	UpdatedBy string `json:"UpdatedBy"`
}

// SeverityUpdate overrides a finding's severity.
type SeverityUpdate struct {
	Label      string `json:"Label,omitempty"`
	Normalized *int   `json:"Normalized,omitempty"`
}

// FindingUpdate is a validated update payload. Only the attributes the
// remote service permits updates to appear here; nil/empty members are
// omitted from the wire.
type FindingUpdate struct {
	Workflow          *WorkflowUpdate   `json:"Workflow,omitempty"`
	Note              *NoteUpdate       `json:"Note,omitempty"`
	Severity          *SeverityUpdate   `json:"Severity,omitempty"`
	VerificationState string            `json:"VerificationState,omitempty"`
	Confidence        *int              `json:"Confidence,omitempty"`
	Criticality       *int              `json:"Criticality,omitempty"`
	UserDefinedFields map[string]string `json:"UserDefinedFields,omitempty"`
}

// Client is the remote finding-store capability a rule needs: paginated
// queries and per-finding updates.
type Client interface {
	GetFindings(ctx context.Context, query QueryFilters, nextToken string, pageSize int) (*FindingsPage, error)
	UpdateFinding(ctx context.Context, id finding.Identifier, update FindingUpdate) error
}

// APIError is a non-2xx response from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hub API error (status %d): %s", e.StatusCode, e.Body)
}
