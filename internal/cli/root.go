// Package cli provides the command-line interface for edamatch.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bioforge/edamatch-go/internal/config"
	"github.com/bioforge/edamatch-go/internal/llm"
	"github.com/bioforge/edamatch-go/internal/metrics"
	"github.com/bioforge/edamatch-go/internal/ontology"
	"github.com/bioforge/edamatch-go/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Loaded once in PersistentPreRunE, shared by all commands.
	cfg        config.Config
	table      *ontology.Table
	selector   *ontology.Selector
	validator  *ontology.Validator
	collector  = metrics.NewCollector()
	logCleanup func() error

	// Lazy-initialized: only commands that call the delegate pay for it.
	model *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "edamatch",
	Short: "Match software packages to EDAM ontology terms",
	Long: `Edamatch annotates bioinformatics software packages with EDAM ontology
terms. Given a package name and free-text description it selects candidate
terms by lexical overlap, asks an LLM to pick the best identifier/label pair,
and validates the answer against the ontology table.

Batch runs are checkpointed per batch and resume where they left off.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// No ontology needed for version and help.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logCleanup = cleanup

		var err error
		table, err = ontology.Load(cfg.OntologyPath)
		if err != nil {
			return fmt.Errorf("load ontology: %w", err)
		}

		selector = ontology.NewSelector(table, cfg.CandidateK, ontology.FallbackPolicy(cfg.Fallback))
		validator = ontology.NewValidator(table, cfg.UseSynonyms)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// getMatchService builds the match pipeline, initializing the LLM client on
// first use. Commands that only read the ontology never touch it.
func getMatchService() (*service.MatchService, error) {
	if model == nil {
		var err error
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}

	opts := service.MatchOptions{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		CallTimeout:         cfg.CallTimeout,
		SimpleMode:          cfg.SimpleMode,
		SamplePerCategory:   5,
		RequestsPerSecond:   cfg.RateLimit,
	}
	return service.NewMatchService(table, selector, validator, llm.NewDelegate(model), collector, opts), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(termsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
