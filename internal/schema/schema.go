// Package schema defines the closed registry of finding fields that can be
// filtered on, and the closed set of finding attributes the remote service
// permits updates to. Field names, value kinds, and update targets all come
// from the target service's published finding schema; nothing here is
// extensible at runtime.
package schema

import "sort"

// Kind classifies the value type of a filterable finding field.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindMap    Kind = "map"
)

// Field describes one filterable finding field. Path is the location of the
// value inside the finding document; a "[]" suffix on a segment means the
// segment is a list and the remainder applies to each element. Several
// filter names are flattened relative to the raw document (WorkflowStatus
// lives at Workflow.Status, ResourceId at Resources[].Id).
type Field struct {
	Name string
	Kind Kind
	Path string
}

var fields = map[string]Field{
	// Top-level string fields.
	"Id":                {Name: "Id", Kind: KindString, Path: "Id"},
	"ProductArn":        {Name: "ProductArn", Kind: KindString, Path: "ProductArn"},
	"AwsAccountId":      {Name: "AwsAccountId", Kind: KindString, Path: "AwsAccountId"},
	"GeneratorId":       {Name: "GeneratorId", Kind: KindString, Path: "GeneratorId"},
	"Region":            {Name: "Region", Kind: KindString, Path: "Region"},
	"Title":             {Name: "Title", Kind: KindString, Path: "Title"},
	"Description":       {Name: "Description", Kind: KindString, Path: "Description"},
	"CompanyName":       {Name: "CompanyName", Kind: KindString, Path: "CompanyName"},
	"ProductName":       {Name: "ProductName", Kind: KindString, Path: "ProductName"},
	"RecordState":       {Name: "RecordState", Kind: KindString, Path: "RecordState"},
	"VerificationState": {Name: "VerificationState", Kind: KindString, Path: "VerificationState"},

	// Flattened and list-valued string fields.
	"Type":             {Name: "Type", Kind: KindString, Path: "Types[]"},
	"ResourceId":       {Name: "ResourceId", Kind: KindString, Path: "Resources[].Id"},
	"ResourceType":     {Name: "ResourceType", Kind: KindString, Path: "Resources[].Type"},
	"SeverityLabel":    {Name: "SeverityLabel", Kind: KindString, Path: "Severity.Label"},
	"WorkflowStatus":   {Name: "WorkflowStatus", Kind: KindString, Path: "Workflow.Status"},
	"ComplianceStatus": {Name: "ComplianceStatus", Kind: KindString, Path: "Compliance.Status"},
	"NoteText":         {Name: "NoteText", Kind: KindString, Path: "Note.Text"},
	"NoteUpdatedBy":    {Name: "NoteUpdatedBy", Kind: KindString, Path: "Note.UpdatedBy"},

	// Number fields.
	"Confidence":         {Name: "Confidence", Kind: KindNumber, Path: "Confidence"},
	"Criticality":        {Name: "Criticality", Kind: KindNumber, Path: "Criticality"},
	"SeverityNormalized": {Name: "SeverityNormalized", Kind: KindNumber, Path: "Severity.Normalized"},

	// Date fields (RFC3339 strings in the document).
	"CreatedAt":       {Name: "CreatedAt", Kind: KindDate, Path: "CreatedAt"},
	"UpdatedAt":       {Name: "UpdatedAt", Kind: KindDate, Path: "UpdatedAt"},
	"FirstObservedAt": {Name: "FirstObservedAt", Kind: KindDate, Path: "FirstObservedAt"},
	"LastObservedAt":  {Name: "LastObservedAt", Kind: KindDate, Path: "LastObservedAt"},
	"NoteUpdatedAt":   {Name: "NoteUpdatedAt", Kind: KindDate, Path: "Note.UpdatedAt"},

	// Map fields.
	"ProductFields":     {Name: "ProductFields", Kind: KindMap, Path: "ProductFields"},
	"UserDefinedFields": {Name: "UserDefinedFields", Kind: KindMap, Path: "UserDefinedFields"},
	"ResourceTags":      {Name: "ResourceTags", Kind: KindMap, Path: "Resources[].Tags"},
}

// Lookup resolves a filter field name against the registry.
func Lookup(name string) (Field, bool) {
	f, ok := fields[name]
	return f, ok
}

// FieldNames returns all registered filter field names in sorted order.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Workflow statuses accepted by the remote update capability.
var WorkflowStatuses = map[string]struct{}{
	"NEW":        {},
	"NOTIFIED":   {},
	"RESOLVED":   {},
	"SUPPRESSED": {},
}

// Verification states accepted by the remote update capability.
var VerificationStates = map[string]struct{}{
	"UNKNOWN":         {},
	"TRUE_POSITIVE":   {},
	"FALSE_POSITIVE":  {},
	"BENIGN_POSITIVE": {},
}

// Severity labels accepted by the remote update capability.
var SeverityLabels = map[string]struct{}{
	"INFORMATIONAL": {},
	"LOW":           {},
	"MEDIUM":        {},
	"HIGH":          {},
	"CRITICAL":      {},
}

// UpdatableAttributes is the closed set of top-level keys allowed in an
// update payload.
var UpdatableAttributes = map[string]struct{}{
	"Workflow":          {},
	"Note":              {},
	"VerificationState": {},
	"Severity":          {},
	"Confidence":        {},
	"Criticality":       {},
	"UserDefinedFields": {},
}
