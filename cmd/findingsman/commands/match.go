package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudposture/findingsman/internal/finding"
	"github.com/cloudposture/findingsman/internal/rules"
)

var matchCmd = &cobra.Command{
	Use:   "match <rule-file> <finding-file>",
	Short: "Check a finding document against a rule offline",
	Long: `Match evaluates one finding document (JSON) against a rule's filters
using the offline matcher. No remote calls are made.

Examples:
  findingsman match suppress-known.yaml finding.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(args[0])
		if err != nil {
			return err
		}
		rule, err := rules.FromDefinition(def, nil)
		if err != nil {
			return fmt.Errorf("invalid rule: %w", err)
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read finding file: %w", err)
		}
		var doc finding.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse finding file %s: %w", args[1], err)
		}

		if rule.Match(doc) {
			fmt.Println("finding matches the rule's filters")
		} else {
			fmt.Println("finding does not match the rule's filters")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
