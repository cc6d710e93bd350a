package engine

import (
	"testing"

	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/finding"
)

func buildFilters(t *testing.T, raw map[string][]filters.RawCriterion) filters.AllFilters {
	t.Helper()
	built, err := filters.Build(raw)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return built
}

func s3Finding(workflowStatus string) finding.Document {
	return finding.Document{
		"Id":         "finding-1",
		"ProductArn": "arn:aws:securityhub:eu-west-1::product/aws/securityhub",
		"Title":      "S3 bucket allows public read",
		"CreatedAt":  "2026-08-01T09:30:00Z",
		"Severity":   map[string]any{"Label": "HIGH", "Normalized": 70},
		"Workflow":   map[string]any{"Status": workflowStatus},
		"Resources": []any{
			map[string]any{"Id": "arn:aws:s3:::bucket", "Type": "AwsS3Bucket", "Tags": map[string]any{"team": "core"}},
		},
	}
}

func TestMatchesTwoFieldSelection(t *testing.T) {
	all := buildFilters(t, map[string][]filters.RawCriterion{
		"ResourceId":     {{Comparison: "EQUALS", Value: "arn:aws:s3:::bucket"}},
		"WorkflowStatus": {{Comparison: "EQUALS", Value: "NEW"}},
	})

	if !Matches(s3Finding("NEW"), all) {
		t.Fatal("finding with both field values should match")
	}
	if Matches(s3Finding("NOTIFIED"), all) {
		t.Fatal("finding with a different workflow status should not match")
	}
}

func TestMatchesPrefixOrNotEquals(t *testing.T) {
	// The excluded bucket equals the NOT_EQUALS operand but satisfies the
	// PREFIX criterion; OR across criteria keeps it matching.
	all := buildFilters(t, map[string][]filters.RawCriterion{
		"ResourceId": {
			{Comparison: "PREFIX", Value: "arn:aws:s3:::"},
			{Comparison: "NOT_EQUALS", Value: "arn:aws:s3:::excluded-bucket"},
		},
	})

	doc := finding.Document{
		"Resources": []any{map[string]any{"Id": "arn:aws:s3:::excluded-bucket"}},
	}
	if !Matches(doc, all) {
		t.Fatal("OR-combined filter should match the excluded bucket via PREFIX")
	}
}

func TestMatchesEmptyFiltersIsVacuouslyTrue(t *testing.T) {
	if !Matches(s3Finding("NEW"), filters.AllFilters{}) {
		t.Fatal("empty AllFilters must match every finding")
	}
	if !Matches(finding.Document{}, nil) {
		t.Fatal("nil AllFilters must match every finding")
	}
}

func TestMatchesAbsentField(t *testing.T) {
	positive := buildFilters(t, map[string][]filters.RawCriterion{
		"ComplianceStatus": {{Comparison: "EQUALS", Value: "FAILED"}},
	})
	if Matches(s3Finding("NEW"), positive) {
		t.Fatal("absent field must fail a positive comparison")
	}

	negative := buildFilters(t, map[string][]filters.RawCriterion{
		"ComplianceStatus": {{Comparison: "NOT_EQUALS", Value: "PASSED"}},
	})
	if !Matches(s3Finding("NEW"), negative) {
		t.Fatal("absent field must satisfy a negative comparison")
	}
}

func TestMatchesListValuedField(t *testing.T) {
	doc := finding.Document{
		"Resources": []any{
			map[string]any{"Id": "arn:aws:s3:::bucket-a"},
			map[string]any{"Id": "arn:aws:s3:::bucket-b"},
		},
	}

	anyElement := buildFilters(t, map[string][]filters.RawCriterion{
		"ResourceId": {{Comparison: "EQUALS", Value: "arn:aws:s3:::bucket-b"}},
	})
	if !Matches(doc, anyElement) {
		t.Fatal("positive comparison should match on any element")
	}

	// One element equals the excluded value, so the negation does not hold
	// for every element and the field fails.
	allElements := buildFilters(t, map[string][]filters.RawCriterion{
		"ResourceId": {{Comparison: "NOT_EQUALS", Value: "arn:aws:s3:::bucket-b"}},
	})
	if Matches(doc, allElements) {
		t.Fatal("negative comparison must hold for every element")
	}
}

func TestMatchesKindMismatchIsNonMatch(t *testing.T) {
	all := buildFilters(t, map[string][]filters.RawCriterion{
		"Title": {{Comparison: "EQUALS", Value: "S3 bucket allows public read"}},
	})

	// Title resolves to a map here; the string filter treats that as a
	// non-match rather than an error.
	doc := finding.Document{"Title": map[string]any{"Text": "S3 bucket allows public read"}}
	if Matches(doc, all) {
		t.Fatal("structurally incompatible value must not match")
	}
}

func TestMatchesDateAndNumberAndMapFields(t *testing.T) {
	all := buildFilters(t, map[string][]filters.RawCriterion{
		"CreatedAt":          {{Comparison: "RANGE", Value: []any{"2026-08-01T00:00:00Z", "2026-08-31T00:00:00Z"}}},
		"SeverityNormalized": {{Comparison: "GTE", Value: 50}},
		"ResourceTags":       {{Comparison: "EQUALS", Key: "team", Value: "core"}},
	})

	if !Matches(s3Finding("NEW"), all) {
		t.Fatal("finding should satisfy date, number and map filters")
	}

	late := s3Finding("NEW")
	late["CreatedAt"] = "2026-09-15T00:00:00Z"
	if Matches(late, all) {
		t.Fatal("finding outside the date range should not match")
	}
}
