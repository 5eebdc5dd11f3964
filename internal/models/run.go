package models

import "time"

// BatchStatus is the state of one batch in a run. Batches advance
// pending -> completed; failed batches stay failed for this run and are
// retried by a later resume.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// BatchState records one batch's position and outcome in the run manifest.
type BatchState struct {
	Index  int         `json:"index"`
	Start  int         `json:"start"` // first record index, inclusive
	End    int         `json:"end"`   // last record index, exclusive
	Status BatchStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
	File   string      `json:"file,omitempty"` // checkpoint file, set when completed
}

// RunState is the persisted manifest for a batch run. It is rewritten after
// every batch transition so a restarted run resumes at the first batch that
// is not completed.
type RunState struct {
	RunID       string       `json:"run_id"`
	InputPath   string       `json:"input_path"`
	TotalInputs int          `json:"total_inputs"`
	BatchSize   int          `json:"batch_size"`
	Batches     []BatchState `json:"batches"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NextPending returns the index of the first batch that still needs work,
// or -1 when every batch is completed.
func (r *RunState) NextPending() int {
	for i := range r.Batches {
		if r.Batches[i].Status != BatchCompleted {
			return i
		}
	}
	return -1
}

// Done reports whether every batch completed.
func (r *RunState) Done() bool {
	return r.NextPending() == -1
}

// Summary aggregates a finished run. Failure categories are reported
// distinctly from validated matches.
type Summary struct {
	Total            int `json:"total"`
	Validated        int `json:"validated"`
	HighConfidence   int `json:"high_confidence"`
	Suggestions      int `json:"suggestions"`
	DelegateFailures int `json:"delegate_failures"`
	Mismatches       int `json:"validation_mismatches"`
	Unrecoverable    int `json:"unrecoverable_pairs"`
}

// Summarize computes run statistics over the ordered result list.
// highThreshold is the reporting cut for "high confidence" (0.8 by default).
func Summarize(results []PackageMatch, highThreshold float64) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		m := r.Match
		if m.Validated {
			s.Validated++
		}
		if m.Confidence >= highThreshold {
			s.HighConfidence++
		}
		if m.Suggestion != nil {
			s.Suggestions++
		}
		switch m.Failure {
		case FailureDelegate:
			s.DelegateFailures++
		case FailureValidation:
			s.Mismatches++
		case FailureUnrecoverable:
			s.Unrecoverable++
		}
	}
	return s
}
