// Package cli holds output formatting for the findingsman commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/cloudposture/findingsman/internal/filters"
	"github.com/cloudposture/findingsman/internal/finding"
	"github.com/cloudposture/findingsman/internal/hub"
	"github.com/cloudposture/findingsman/internal/schema"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFindings outputs findings in the specified format.
func PrintFindings(findings []finding.Document, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(findings)
	case FormatYAML:
		return printYAML(findings)
	case FormatTable:
		return printFindingsTable(findings)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFilterSummary outputs one row per filter field, showing whether the
// remote query expresses it or the offline matcher will.
func PrintFilterSummary(all filters.AllFilters) error {
	query, residual := hub.Translate(all)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Kind", "Criteria", "Evaluated")

	for _, name := range all.FieldNames() {
		f := all[name]
		evaluated := "remote"
		if _, offline := residual[name]; offline {
			evaluated = "offline"
		}
		table.Append(name, string(f.Kind), fmt.Sprintf("%d", len(f.Criteria)), evaluated)
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Printf("%d field(s) remote, %d offline, fingerprint %016x\n",
		len(query), len(residual), all.Fingerprint())
	return nil
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFindingsTable(findings []finding.Document) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Id", "Title", "Severity", "Workflow", "Updated At")

	for _, doc := range findings {
		table.Append(
			firstString(doc, "Id"),
			truncate(firstString(doc, "Title"), 40),
			firstString(doc, "SeverityLabel"),
			firstString(doc, "WorkflowStatus"),
			firstString(doc, "UpdatedAt"),
		)
	}
	return table.Render()
}

func firstString(doc finding.Document, fieldName string) string {
	field, ok := schema.Lookup(fieldName)
	if !ok {
		return ""
	}
	values := doc.Resolve(field.Path)
	if len(values) == 0 {
		return ""
	}
	s, _ := values[0].(string)
	return s
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
