package commands

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cloudposture/findingsman/internal/cli"
	"github.com/cloudposture/findingsman/internal/hub"
	"github.com/cloudposture/findingsman/internal/rules"
	"github.com/cloudposture/findingsman/internal/telemetry"
)

var (
	dryRun      bool
	metricsAddr string
)

var applyCmd = &cobra.Command{
	Use:   "apply <rule-file>",
	Short: "Apply a rule to the remote finding store",
	Long: `Apply builds the rule from its declarative file, queries the finding
store for matching findings, and applies the rule's update to each of them.

With --dry-run the findings the rule would update are listed and nothing is
modified.

Examples:
  findingsman apply suppress-known.yaml
  findingsman apply suppress-known.yaml --dry-run --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadDefinition(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		log := newLogger(cfg)

		if metricsAddr != "" {
			cfg.MetricsAddr = metricsAddr
		}
		if cfg.MetricsAddr != "" {
			telemetry.Init()
			go func() {
				if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
					log.Warn().Err(err).Msg("metrics listener stopped")
				}
			}()
		}

		// The client is only constructed when the rule first talks to the
		// store; a rule that fails validation never gets this far.
		acquire := func() (hub.Client, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return hub.NewHTTPClient(cfg.HubEndpoint, cfg.APIToken), nil
		}

		rule, err := rules.FromDefinition(def, acquire,
			rules.WithPageSize(cfg.PageSize),
			rules.WithLogger(log),
		)
		if err != nil {
			return fmt.Errorf("invalid rule: %w", err)
		}

		ctx := cmd.Context()
		if dryRun {
			matched, err := rule.Preview(ctx)
			if err != nil {
				return err
			}
			if err := cli.PrintFindings(matched, cli.OutputFormat(format)); err != nil {
				return err
			}
			fmt.Printf("%d finding(s) would be updated\n", len(matched))
			return nil
		}

		ok, err := rule.Apply(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("some finding updates failed")
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List matching findings without updating them")
	applyCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose prometheus metrics on this address during the run")
	rootCmd.AddCommand(applyCmd)
}
