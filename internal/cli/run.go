package cli

import (
	"context"
	"fmt"

	"github.com/bioforge/edamatch-go/internal/parser"
	"github.com/bioforge/edamatch-go/internal/service"
	"github.com/spf13/cobra"
)

var (
	runCheckpointDir string
	runOutput        string
	runBatchSize     int
	runWorkers       int
	runNoProgress    bool
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Match every package in an input file, with checkpointed batches",
	Long: `Run the matcher over a whole package list. Input is either a JSON array
of {"name", "description"} objects or a Bioconductor VIEWS/biocViews file.

Each batch is written to the checkpoint directory as it completes. Rerunning
with the same input and checkpoint directory resumes at the first unfinished
batch instead of repeating delegate calls.

Examples:
  edamatch run packages.json --output matches.json
  edamatch run VIEWS --checkpoint-dir .edamatch --batch-size 1000
  edamatch run packages.json --workers 4`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runCheckpointDir, "checkpoint-dir", "c", ".edamatch", "directory for run state and batch files")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "matches.json", "path for the final report")
	runCmd.Flags().IntVarP(&runBatchSize, "batch-size", "b", 0, "records per batch (default from EDAMATCH_BATCH_SIZE)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "concurrent delegate calls per batch (default from EDAMATCH_WORKERS)")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "disable the interactive progress display")
}

func runRun(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	records, err := parser.LoadPackages(inputPath)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No packages to process.")
		return nil
	}

	svc, err := getMatchService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	store, err := service.NewCheckpointStore(runCheckpointDir)
	if err != nil {
		return fmt.Errorf("open checkpoint dir: %w", err)
	}

	opts := service.RunOptions{
		BatchSize:      cfg.BatchSize,
		Workers:        cfg.Workers,
		HighConfidence: cfg.HighConfidence,
	}
	if runBatchSize > 0 {
		opts.BatchSize = runBatchSize
	}
	if runWorkers > 0 {
		opts.Workers = runWorkers
	}

	runner := service.NewRunner(svc, store, collector, opts)

	ctx := context.Background()
	var result *service.RunResult
	if runNoProgress {
		result, err = runner.Run(ctx, inputPath, records)
	} else {
		result, err = runWithProgress(ctx, runner, inputPath, records)
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := service.WriteReport(runOutput, result.Results); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printSummary(result, runOutput)
	return nil
}

func printSummary(result *service.RunResult, output string) {
	s := result.Summary
	fmt.Printf("\nRun %s complete: %d packages\n", result.State.RunID, s.Total)
	fmt.Printf("  Validated:          %d\n", s.Validated)
	fmt.Printf("  High confidence:    %d\n", s.HighConfidence)
	fmt.Printf("  Suggestions:        %d\n", s.Suggestions)
	if s.DelegateFailures > 0 {
		fmt.Printf("  Delegate failures:  %d\n", s.DelegateFailures)
	}
	if s.Mismatches > 0 {
		fmt.Printf("  Repaired pairs:     %d\n", s.Mismatches)
	}
	if s.Unrecoverable > 0 {
		fmt.Printf("  Unrecoverable:      %d\n", s.Unrecoverable)
	}
	if stats := formatSnapshot(collector.Snapshot()); stats != "" {
		fmt.Printf("\n%s", stats)
	}
	fmt.Printf("Report written to %s\n", output)
}
