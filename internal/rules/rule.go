// Package rules ties the pieces together: a Rule owns a validated match
// predicate, a validated update payload, and a remote client handle, and
// exposes the selection-and-update workflow.
package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudposture/findingsman/internal/engine"
	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/finding"
	"github.com/cloudposture/findingsman/internal/hub"
	"github.com/cloudposture/findingsman/internal/telemetry"
)

const defaultPageSize = 100

var errNoClient = errors.New("no remote client configured")
var errMissingIdentifier = errors.New("finding has no identifier")

// ClientFunc acquires the remote client. It is invoked at most once per
// Rule, on the first Apply call, so constructing a Rule that is never run
// costs no credentials or connections.
type ClientFunc func() (hub.Client, error)

// StaticClient adapts an already constructed client into a ClientFunc.
func StaticClient(c hub.Client) ClientFunc {
	return func() (hub.Client, error) { return c, nil }
}

// UpdateOutcome records one per-finding update attempt, as returned by
// ApplyDetailed.
type UpdateOutcome struct {
	Finding finding.Identifier
	Err     error
}

// Rule is immutable after construction. All validation happens in New;
// Apply performs no validation of its own.
type Rule struct {
	filters  filters.AllFilters
	update   hub.FindingUpdate
	acquire  ClientFunc
	client   hub.Client
	pageSize int
	log      zerolog.Logger
}

// Option adjusts optional Rule behavior.
type Option func(*Rule)

// WithPageSize overrides the remote query page size.
func WithPageSize(n int) Option {
	return func(r *Rule) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithLogger attaches a logger to the rule. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Rule) { r.log = log }
}

// New builds a Rule from declarative input. Filters and the update payload
// are validated eagerly; any failure aborts construction before the client
// function is ever called, so misconfigured rules produce zero remote side
// effects.
func New(rawFilters map[string][]filters.RawCriterion, rawUpdate map[string]any, acquire ClientFunc, opts ...Option) (*Rule, error) {
	built, err := filters.Build(rawFilters)
	if err != nil {
		return nil, fmt.Errorf("build filters: %w", err)
	}
	update, err := ValidateUpdate(rawUpdate)
	if err != nil {
		return nil, fmt.Errorf("validate update: %w", err)
	}

	r := &Rule{
		filters:  built,
		update:   update,
		acquire:  acquire,
		pageSize: defaultPageSize,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Filters returns the rule's validated predicate.
func (r *Rule) Filters() filters.AllFilters { return r.filters }

// Update returns the rule's validated update payload.
func (r *Rule) Update() hub.FindingUpdate { return r.update }

// Match evaluates one finding document against the rule's filters offline.
func (r *Rule) Match(doc finding.Document) bool {
	return engine.Matches(doc, r.filters)
}

// Apply runs the workflow and reduces the per-finding outcomes to a single
// verdict: true only when every attempted update succeeded. A fault in the
// query phase (or in client acquisition) aborts the run with an error.
func (r *Rule) Apply(ctx context.Context) (bool, error) {
	outcomes, err := r.ApplyDetailed(ctx)
	if err != nil {
		return false, err
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return false, nil
		}
	}
	return true, nil
}

// ApplyDetailed runs the workflow: translate the representable filter
// subset into the remote query, paginate through matching findings,
// re-check each one offline against the full predicate, and update every
// confirmed finding.
//
// Per-finding update failures are recorded in the returned outcomes and do
// not stop the loop; only a query-phase fault (or a failed client
// acquisition) aborts the run with an error.
func (r *Rule) ApplyDetailed(ctx context.Context) ([]UpdateOutcome, error) {
	client, err := r.ensureClient()
	if err != nil {
		return nil, err
	}

	query, residual := hub.Translate(r.filters)
	log := r.log.With().
		Str("run_id", uuid.NewString()).
		Uint64("filter_fingerprint", r.filters.Fingerprint()).
		Logger()
	log.Info().
		Int("remote_fields", len(query)).
		Strs("offline_fields", residual.FieldNames()).
		Msg("applying rule")

	var outcomes []UpdateOutcome
	token := ""
	for {
		page, err := client.GetFindings(ctx, query, token, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("query findings: %w", err)
		}
		telemetry.PagesFetched.Inc()

		for _, doc := range page.Findings {
			if !engine.Matches(doc, r.filters) {
				continue
			}
			telemetry.FindingsMatched.Inc()

			id, ok := doc.Identifier()
			if !ok {
				telemetry.UpdatesFailed.Inc()
				log.Warn().Msg("matched finding has no identifier, skipping")
				outcomes = append(outcomes, UpdateOutcome{Err: errMissingIdentifier})
				continue
			}

			err := client.UpdateFinding(ctx, id, r.update)
			outcomes = append(outcomes, UpdateOutcome{Finding: id, Err: err})
			if err != nil {
				telemetry.UpdatesFailed.Inc()
				log.Warn().Err(err).Str("finding_id", id.ID).Msg("finding update failed")
			} else {
				telemetry.UpdatesSucceeded.Inc()
			}
		}

		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	log.Info().
		Int("updated", len(outcomes)-failed).
		Int("failed", failed).
		Msg("rule applied")
	return outcomes, nil
}

// Preview runs the query phase only: it returns every finding the rule
// would update, without issuing any updates.
func (r *Rule) Preview(ctx context.Context) ([]finding.Document, error) {
	client, err := r.ensureClient()
	if err != nil {
		return nil, err
	}

	query, _ := hub.Translate(r.filters)
	var matched []finding.Document
	token := ""
	for {
		page, err := client.GetFindings(ctx, query, token, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("query findings: %w", err)
		}
		for _, doc := range page.Findings {
			if engine.Matches(doc, r.filters) {
				matched = append(matched, doc)
			}
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	return matched, nil
}

// ensureClient resolves the client handle on first use and caches it. A
// failed acquisition is retried on the next Apply; a successful one is
// reused for the life of the Rule.
func (r *Rule) ensureClient() (hub.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	if r.acquire == nil {
		return nil, errNoClient
	}
	client, err := r.acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire hub client: %w", err)
	}
	r.client = client
	return client, nil
}
