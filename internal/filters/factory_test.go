package filters

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuildDeterministic(t *testing.T) {
	raw := map[string][]RawCriterion{
		"ResourceId": {
			{Comparison: "PREFIX", Value: "arn:aws:s3:::"},
			{Comparison: "NOT_EQUALS", Value: "arn:aws:s3:::excluded-bucket"},
		},
		"Criticality": {{Comparison: "RANGE", Value: []any{50, 90}}},
		"CreatedAt":   {{Comparison: "AFTER", Value: "2026-01-01T00:00:00Z"}},
		"ResourceTags": {
			{Comparison: "EQUALS", Key: "team", Value: "core"},
			{Comparison: "NOT_EXISTS", Key: "exempt"},
		},
	}

	first, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	second, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() second run error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Build is not deterministic for identical input")
	}

	if got := first["ResourceId"].Kind; got != "string" {
		t.Fatalf("ResourceId kind = %s", got)
	}
	if len(first["ResourceTags"].Criteria) != 2 {
		t.Fatalf("ResourceTags criteria = %d, want 2", len(first["ResourceTags"].Criteria))
	}
}

func TestBuildStringListExpands(t *testing.T) {
	built, err := Build(map[string][]RawCriterion{
		"WorkflowStatus": {{Comparison: "EQUALS", Value: []any{"NEW", "NOTIFIED"}}},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	want := []Criterion{
		StringCriterion{Comparison: CompEquals, Value: "NEW"},
		StringCriterion{Comparison: CompEquals, Value: "NOTIFIED"},
	}
	if !reflect.DeepEqual(built["WorkflowStatus"].Criteria, want) {
		t.Fatalf("criteria = %v, want %v", built["WorkflowStatus"].Criteria, want)
	}
}

func TestBuildRelativeDateRange(t *testing.T) {
	anchor := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	restore := timeNow
	timeNow = func() time.Time { return anchor }
	defer func() { timeNow = restore }()

	built, err := Build(map[string][]RawCriterion{
		"UpdatedAt": {{DateRange: &RelativeRange{Value: 30, Unit: "DAYS"}}},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	criterion := built["UpdatedAt"].Criteria[0].(DateCriterion)
	if criterion.Comparison != CompRange {
		t.Fatalf("comparison = %s, want RANGE", criterion.Comparison)
	}
	if !criterion.End.Equal(anchor) {
		t.Fatalf("end = %v, want %v", criterion.End, anchor)
	}
	if !criterion.Start.Equal(anchor.Add(-30 * 24 * time.Hour)) {
		t.Fatalf("start = %v", criterion.Start)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string][]RawCriterion
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown field",
			raw:     map[string][]RawCriterion{"NotAField": {{Comparison: "EQUALS", Value: "x"}}},
			wantErr: ErrUnknownField,
			wantMsg: "NotAField",
		},
		{
			name:    "empty group",
			raw:     map[string][]RawCriterion{"Title": {}},
			wantErr: ErrEmptyFilter,
			wantMsg: "Title",
		},
		{
			name:    "comparison wrong for kind",
			raw:     map[string][]RawCriterion{"Criticality": {{Comparison: "PREFIX", Value: 10}}},
			wantErr: ErrInvalidComparison,
			wantMsg: "PREFIX",
		},
		{
			name:    "date comparison on string field",
			raw:     map[string][]RawCriterion{"Title": {{Comparison: "BEFORE", Value: "x"}}},
			wantErr: ErrInvalidComparison,
			wantMsg: "Title",
		},
		{
			name:    "non-numeric number value",
			raw:     map[string][]RawCriterion{"Confidence": {{Comparison: "GTE", Value: "high"}}},
			wantErr: ErrInvalidShape,
			wantMsg: "Confidence",
		},
		{
			name:    "malformed timestamp",
			raw:     map[string][]RawCriterion{"CreatedAt": {{Comparison: "AFTER", Value: "yesterday"}}},
			wantErr: ErrInvalidShape,
			wantMsg: "yesterday",
		},
		{
			name:    "number range not a pair",
			raw:     map[string][]RawCriterion{"Criticality": {{Comparison: "RANGE", Value: []any{10}}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "number range inverted",
			raw:     map[string][]RawCriterion{"Criticality": {{Comparison: "RANGE", Value: []any{90, 10}}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "date range inverted",
			raw:     map[string][]RawCriterion{"CreatedAt": {{Comparison: "RANGE", Value: []any{"2026-02-01T00:00:00Z", "2026-01-01T00:00:00Z"}}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "relative range without days",
			raw:     map[string][]RawCriterion{"UpdatedAt": {{DateRange: &RelativeRange{Value: 0}}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "map criterion without key",
			raw:     map[string][]RawCriterion{"ResourceTags": {{Comparison: "EQUALS", Value: "core"}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "map exists with value",
			raw:     map[string][]RawCriterion{"ResourceTags": {{Comparison: "EXISTS", Key: "team", Value: "core"}}},
			wantErr: ErrInvalidShape,
		},
		{
			name:    "empty string list",
			raw:     map[string][]RawCriterion{"Title": {{Comparison: "EQUALS", Value: []any{}}}},
			wantErr: ErrInvalidShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built, err := Build(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if built != nil {
				t.Fatal("Build() must not return partial filters on error")
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}
