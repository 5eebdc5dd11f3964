package models

import "testing"

func TestSummarize(t *testing.T) {
	results := []PackageMatch{
		{Name: "a", Match: MatchResult{Confidence: 0.9, Validated: true}},
		{Name: "b", Match: MatchResult{Confidence: 0.6, Validated: true, Failure: FailureValidation}},
		{Name: "c", Match: MatchResult{Confidence: 0.3, Validated: true, Suggestion: &Suggestion{Label: "New term"}}},
		{Name: "d", Match: FailureSentinel("timeout")},
		{Name: "e", Match: MatchResult{Confidence: 0.9, Failure: FailureUnrecoverable}},
	}

	s := Summarize(results, 0.8)

	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.Validated != 3 {
		t.Errorf("Validated = %d, want 3", s.Validated)
	}
	if s.HighConfidence != 2 {
		t.Errorf("HighConfidence = %d, want 2", s.HighConfidence)
	}
	if s.Suggestions != 1 {
		t.Errorf("Suggestions = %d, want 1", s.Suggestions)
	}
	if s.DelegateFailures != 1 {
		t.Errorf("DelegateFailures = %d, want 1", s.DelegateFailures)
	}
	if s.Mismatches != 1 {
		t.Errorf("Mismatches = %d, want 1", s.Mismatches)
	}
	if s.Unrecoverable != 1 {
		t.Errorf("Unrecoverable = %d, want 1", s.Unrecoverable)
	}
}

func TestRunStateNextPending(t *testing.T) {
	state := &RunState{Batches: []BatchState{
		{Index: 1, Status: BatchCompleted},
		{Index: 2, Status: BatchFailed},
		{Index: 3, Status: BatchPending},
	}}

	if got := state.NextPending(); got != 1 {
		t.Errorf("NextPending() = %d, want 1 (failed batch needs work)", got)
	}
	if state.Done() {
		t.Error("Done() = true with unfinished batches")
	}

	for i := range state.Batches {
		state.Batches[i].Status = BatchCompleted
	}
	if got := state.NextPending(); got != -1 {
		t.Errorf("NextPending() = %d, want -1", got)
	}
	if !state.Done() {
		t.Error("Done() = false with all batches completed")
	}
}

func TestPackageRecordValid(t *testing.T) {
	tests := []struct {
		name string
		rec  PackageRecord
		want bool
	}{
		{"complete", PackageRecord{Name: "DESeq2", Description: "differential expression"}, true},
		{"missing name", PackageRecord{Description: "text"}, false},
		{"missing description", PackageRecord{Name: "pkg"}, false},
		{"empty", PackageRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
