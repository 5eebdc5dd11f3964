package cli

import (
	"fmt"
	"strings"

	"github.com/bioforge/edamatch-go/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ontology table statistics",
	Long: `Print term counts per EDAM branch for the loaded ontology.

Pipeline timing statistics are per-process; a batch run prints its own
operation metrics with its summary.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	counts := map[string]int{}
	for _, term := range table.Terms {
		counts[string(term.Category)]++
	}
	fmt.Printf("Active terms: %d\n", table.Len())
	known := 0
	for _, cat := range []string{"topic", "operation", "data", "format"} {
		if n := counts[cat]; n > 0 {
			fmt.Printf("  %-10s %d\n", cat, n)
			known += n
		}
	}
	if other := table.Len() - known; other > 0 {
		fmt.Printf("  %-10s %d\n", "other", other)
	}
	return nil
}

// formatSnapshot renders collected operation metrics for terminal output.
// Returns "" when nothing was recorded.
func formatSnapshot(snap metrics.Snapshot) string {
	var b strings.Builder
	writeOp := func(name string, op *metrics.OperationSnapshot) {
		if op == nil {
			return
		}
		fmt.Fprintf(&b, "  %-18s %d calls", name, op.Count)
		if op.Failures > 0 {
			fmt.Fprintf(&b, ", %d failed", op.Failures)
		}
		if op.Count > 0 {
			fmt.Fprintf(&b, ", avg %.0fms (min %dms, max %dms)",
				op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
		}
		b.WriteString("\n")
	}

	writeOp("candidate_select", snap.CandidateSelect)
	writeOp("llm_match", snap.Match)
	writeOp("llm_suggest", snap.Suggest)
	writeOp("batch", snap.Batch)

	if b.Len() == 0 {
		return ""
	}
	return "Operation metrics:\n" + b.String()
}
