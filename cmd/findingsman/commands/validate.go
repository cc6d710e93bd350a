package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cloudposture/findingsman/internal/cli"
	"github.com/cloudposture/findingsman/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rule-file>",
	Short: "Validate a rule file without touching the finding store",
	Long: `Validate builds the rule's filters and update payload and reports how
each filter would be evaluated. No remote calls are made.

Examples:
  findingsman validate suppress-known.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(args[0])
		if err != nil {
			return err
		}

		rule, err := rules.FromDefinition(def, nil)
		if err != nil {
			return fmt.Errorf("invalid rule: %w", err)
		}

		if err := cli.PrintFilterSummary(rule.Filters()); err != nil {
			return err
		}

		fmt.Println("Update payload:")
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(rule.Update()); err != nil {
			return err
		}
		return encoder.Close()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
