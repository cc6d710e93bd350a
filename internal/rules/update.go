package rules

import (
	"errors"
	"fmt"

	"github.com/cloudposture/findingsman/internal/hub"
	"github.com/cloudposture/findingsman/internal/schema"
)

// Sentinel errors returned by ValidateUpdate.
var (
	// ErrUnknownAttribute reports an update key outside the closed set of
	// updatable finding attributes.
	ErrUnknownAttribute = errors.New("attribute not updatable")
	// ErrInvalidUpdate reports an update value of the wrong shape for its
	// attribute.
	ErrInvalidUpdate = errors.New("invalid update value")
	// ErrEmptyUpdate reports an update payload with nothing to apply.
	ErrEmptyUpdate = errors.New("update payload is empty")
)

// ValidateUpdate checks a raw update payload against the updatable-attribute
// registry and returns its typed form. It runs once, at rule construction,
// and performs no I/O.
func ValidateUpdate(raw map[string]any) (hub.FindingUpdate, error) {
	if len(raw) == 0 {
		return hub.FindingUpdate{}, ErrEmptyUpdate
	}

	var update hub.FindingUpdate
	for key, value := range raw {
		if _, ok := schema.UpdatableAttributes[key]; !ok {
			return hub.FindingUpdate{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
		}

		var err error
		switch key {
		case "Workflow":
			update.Workflow, err = validateWorkflow(value)
		case "Note":
			update.Note, err = validateNote(value)
		case "Severity":
			update.Severity, err = validateSeverity(value)
		case "VerificationState":
			update.VerificationState, err = validateEnum(value, schema.VerificationStates, "VerificationState")
		case "Confidence":
			update.Confidence, err = validateScore(value, "Confidence")
		case "Criticality":
			update.Criticality, err = validateScore(value, "Criticality")
		case "UserDefinedFields":
			update.UserDefinedFields, err = validateUserDefinedFields(value)
		}
		if err != nil {
			return hub.FindingUpdate{}, err
		}
	}
	return update, nil
}

func validateWorkflow(v any) (*hub.WorkflowUpdate, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: Workflow must be a mapping", ErrInvalidUpdate)
	}
	for key := range m {
		if key != "Status" {
			return nil, fmt.Errorf("%w: Workflow.%s", ErrUnknownAttribute, key)
		}
	}
	status, err := validateEnum(m["Status"], schema.WorkflowStatuses, "Workflow.Status")
	if err != nil {
		return nil, err
	}
	return &hub.WorkflowUpdate{Status: status}, nil
}

func validateNote(v any) (*hub.NoteUpdate, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: Note must be a mapping", ErrInvalidUpdate)
	}
	for key := range m {
		if key != "Text" && key != "UpdatedBy" {
			return nil, fmt.Errorf("%w: Note.%s", ErrUnknownAttribute, key)
		}
	}
	text, _ := m["Text"].(string)
	author, _ := m["UpdatedBy"].(string)
	if text == "" || author == "" {
		return nil, fmt.Errorf("%w: a note requires both Text and UpdatedBy", ErrInvalidUpdate)
	}
	return &hub.NoteUpdate{Text: text, UpdatedBy: author}, nil
}

func validateSeverity(v any) (*hub.SeverityUpdate, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: Severity must be a mapping", ErrInvalidUpdate)
	}
	for key := range m {
		if key != "Label" && key != "Normalized" {
			return nil, fmt.Errorf("%w: Severity.%s", ErrUnknownAttribute, key)
		}
	}

	var severity hub.SeverityUpdate
	if raw, ok := m["Label"]; ok {
		label, err := validateEnum(raw, schema.SeverityLabels, "Severity.Label")
		if err != nil {
			return nil, err
		}
		severity.Label = label
	}
	if raw, ok := m["Normalized"]; ok {
		normalized, err := validateScore(raw, "Severity.Normalized")
		if err != nil {
			return nil, err
		}
		severity.Normalized = normalized
	}
	if severity.Label == "" && severity.Normalized == nil {
		return nil, fmt.Errorf("%w: Severity requires Label or Normalized", ErrInvalidUpdate)
	}
	return &severity, nil
}

func validateEnum(v any, allowed map[string]struct{}, attr string) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidUpdate, attr)
	}
	if _, ok := allowed[s]; !ok {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidUpdate, attr, s)
	}
	return s, nil
}

func validateScore(v any, attr string) (*int, error) {
	n, ok := asInt(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidUpdate, attr)
	}
	if n < 0 || n > 100 {
		return nil, fmt.Errorf("%w: %s %d outside 0-100", ErrInvalidUpdate, attr, n)
	}
	return &n, nil
}

func validateUserDefinedFields(v any) (map[string]string, error) {
	m, ok := asMap(v)
	if !ok || len(m) == 0 {
		return nil, fmt.Errorf("%w: UserDefinedFields must be a non-empty string mapping", ErrInvalidUpdate)
	}
	out := make(map[string]string, len(m))
	for key, raw := range m {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: UserDefinedFields.%s must be a string", ErrInvalidUpdate, key)
		}
		out[key] = s
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
