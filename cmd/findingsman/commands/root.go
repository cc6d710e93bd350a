package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cloudposture/findingsman/internal/config"
	"github.com/cloudposture/findingsman/internal/rules"
)

var (
	// Global flags
	endpoint string
	apiToken string
	format   string
	verbose  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "findingsman",
	Short: "Rule-driven management of security findings",
	Long: `Findingsman applies declarative rules to the findings of a cloud
security-posture service: each rule selects findings by filter criteria and
applies an update (workflow status, note, severity, ...) to every match.

Examples:
  findingsman validate suppress-known.yaml
  findingsman match suppress-known.yaml finding.json
  findingsman apply suppress-known.yaml --dry-run
  findingsman apply suppress-known.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Base URL of the finding store API")
	rootCmd.PersistentFlags().StringVar(&apiToken, "api-token", "", "API token for the finding store")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// loadConfig merges the environment configuration with command-line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.HubEndpoint = endpoint
	}
	if apiToken != "" {
		cfg.APIToken = apiToken
	}
	return cfg, nil
}

// newLogger builds the CLI logger honoring --verbose and LOG_LEVEL.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// loadDefinition reads a declarative rule file (YAML or JSON).
func loadDefinition(path string) (rules.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.Definition{}, fmt.Errorf("read rule file: %w", err)
	}
	var def rules.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return rules.Definition{}, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return def, nil
}
