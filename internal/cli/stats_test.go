package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/bioforge/edamatch-go/internal/metrics"
)

func TestFormatSnapshot(t *testing.T) {
	t.Run("empty collector renders nothing", func(t *testing.T) {
		c := metrics.NewCollector()
		if got := formatSnapshot(c.Snapshot()); got != "" {
			t.Errorf("formatSnapshot(empty) = %q, want empty", got)
		}
	})

	t.Run("recorded operations are rendered", func(t *testing.T) {
		c := metrics.NewCollector()
		c.RecordTiming(metrics.OpMatch, 120*time.Millisecond)
		c.RecordTiming(metrics.OpMatch, 80*time.Millisecond)
		c.RecordFailure(metrics.OpMatch)
		c.RecordTiming(metrics.OpCandidateSelect, time.Millisecond)
		c.RecordTiming(metrics.OpBatch, 500*time.Millisecond)

		out := formatSnapshot(c.Snapshot())
		for _, want := range []string{
			"Operation metrics:",
			"llm_match",
			"2 calls",
			"1 failed",
			"candidate_select",
			"batch",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("formatSnapshot() missing %q in:\n%s", want, out)
			}
		}
		if strings.Contains(out, "llm_suggest") {
			t.Errorf("formatSnapshot() rendered an operation with no data:\n%s", out)
		}
	})
}
