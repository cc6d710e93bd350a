package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudposture/findingsman/internal/rules"
)

func TestValidateUpdate(t *testing.T) {
	raw := map[string]any{
		"Workflow":          map[string]any{"Status": "SUPPRESSED"},
		"Note":              map[string]any{"Text": "known finding, suppressed by rule", "UpdatedBy": "findingsman"},
		"VerificationState": "BENIGN_POSITIVE",
		"Severity":          map[string]any{"Label": "LOW", "Normalized": 10},
		"Confidence":        float64(95), // JSON numbers decode as float64
		"UserDefinedFields": map[string]any{"rule": "suppress-known"},
	}

	update, err := rules.ValidateUpdate(raw)
	require.NoError(t, err)

	require.NotNil(t, update.Workflow)
	assert.Equal(t, "SUPPRESSED", update.Workflow.Status)
	require.NotNil(t, update.Note)
	assert.Equal(t, "findingsman", update.Note.UpdatedBy)
	assert.Equal(t, "BENIGN_POSITIVE", update.VerificationState)
	require.NotNil(t, update.Severity)
	assert.Equal(t, "LOW", update.Severity.Label)
	require.NotNil(t, update.Severity.Normalized)
	assert.Equal(t, 10, *update.Severity.Normalized)
	require.NotNil(t, update.Confidence)
	assert.Equal(t, 95, *update.Confidence)
	assert.Equal(t, map[string]string{"rule": "suppress-known"}, update.UserDefinedFields)
}

func TestValidateUpdateRejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr error
	}{
		{name: "empty payload", raw: map[string]any{}, wantErr: rules.ErrEmptyUpdate},
		{name: "unknown attribute", raw: map[string]any{"Remediation": "closed"}, wantErr: rules.ErrUnknownAttribute},
		{name: "unknown workflow key", raw: map[string]any{"Workflow": map[string]any{"State": "NEW"}}, wantErr: rules.ErrUnknownAttribute},
		{name: "bad workflow status", raw: map[string]any{"Workflow": map[string]any{"Status": "CLOSED"}}, wantErr: rules.ErrInvalidUpdate},
		{name: "workflow not a mapping", raw: map[string]any{"Workflow": "SUPPRESSED"}, wantErr: rules.ErrInvalidUpdate},
		{name: "note without author", raw: map[string]any{"Note": map[string]any{"Text": "hi"}}, wantErr: rules.ErrInvalidUpdate},
		{name: "note unknown key", raw: map[string]any{"Note": map[string]any{"Text": "hi", "UpdatedBy": "me", "Id": "n-1"}}, wantErr: rules.ErrUnknownAttribute},
		{name: "severity empty", raw: map[string]any{"Severity": map[string]any{}}, wantErr: rules.ErrInvalidUpdate},
		{name: "severity bad label", raw: map[string]any{"Severity": map[string]any{"Label": "SEVERE"}}, wantErr: rules.ErrInvalidUpdate},
		{name: "confidence out of range", raw: map[string]any{"Confidence": 101}, wantErr: rules.ErrInvalidUpdate},
		{name: "confidence not integral", raw: map[string]any{"Confidence": 50.5}, wantErr: rules.ErrInvalidUpdate},
		{name: "verification state unknown", raw: map[string]any{"VerificationState": "MAYBE"}, wantErr: rules.ErrInvalidUpdate},
		{name: "user defined field non-string", raw: map[string]any{"UserDefinedFields": map[string]any{"count": 3}}, wantErr: rules.ErrInvalidUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.ValidateUpdate(tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
