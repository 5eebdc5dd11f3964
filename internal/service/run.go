package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bioforge/edamatch-go/internal/metrics"
	"github.com/bioforge/edamatch-go/internal/models"
	"github.com/google/uuid"
)

// RunOptions configures batch orchestration.
type RunOptions struct {
	// BatchSize is the fixed maximum records per batch (default 5000).
	BatchSize int
	// Workers bounds concurrent delegate calls within a batch. 1 keeps
	// the original strictly sequential behavior; batch size remains the
	// throttle against the external API either way.
	Workers int
	// HighConfidence is the reporting threshold for the summary.
	HighConfidence float64
}

// RunResult is the aggregate outcome of a run.
type RunResult struct {
	Results []models.PackageMatch
	Summary models.Summary
	State   *models.RunState
}

// Progress is a point-in-time view of a running batch job, polled by the
// progress UI.
type Progress struct {
	RunID     string
	Batch     int
	Batches   int
	Processed int
	Total     int
	Done      bool
	Err       error
}

// Runner drives records through the match pipeline in checkpointed
// batches. One batch is in flight at a time; within a batch the worker
// count bounds delegate concurrency.
type Runner struct {
	match     *MatchService
	store     *CheckpointStore
	collector *metrics.Collector
	opts      RunOptions

	mu       sync.Mutex
	progress Progress
}

// NewRunner builds a batch runner. collector may be nil.
func NewRunner(match *MatchService, store *CheckpointStore, collector *metrics.Collector, opts RunOptions) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.HighConfidence == 0 {
		opts.HighConfidence = 0.8
	}
	return &Runner{match: match, store: store, collector: collector, opts: opts}
}

// Progress returns a snapshot of the current run state.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Run processes records in order, resuming from persisted state when the
// checkpoint directory already holds a manifest for the same input shape.
// Completed batches are never reprocessed; batches that failed in an
// earlier run are retried after the remaining pending batches.
func (r *Runner) Run(ctx context.Context, inputPath string, records []models.PackageRecord) (*RunResult, error) {
	state, err := r.loadOrInitState(inputPath, len(records))
	if err != nil {
		return nil, err
	}

	done := 0
	for _, b := range state.Batches {
		if b.Status == models.BatchCompleted {
			done += b.End - b.Start
		}
	}
	r.setProgress(func(p *Progress) {
		p.RunID = state.RunID
		p.Batches = len(state.Batches)
		p.Total = len(records)
		p.Processed = done
	})

	// Pending batches run before retries of previously failed ones, so a
	// batch that keeps failing cannot starve the rest of the input.
	for _, i := range batchOrder(state) {
		b := &state.Batches[i]
		if b.Status == models.BatchCompleted {
			continue
		}

		r.setProgress(func(p *Progress) { p.Batch = b.Index })
		slog.Info("processing batch",
			"run_id", state.RunID,
			"batch", b.Index,
			"batches", len(state.Batches),
			"records", b.End-b.Start)

		start := time.Now()
		results, err := r.processBatch(ctx, records[b.Start:b.End])
		if err != nil {
			// Fatal: mark the batch failed so a later run retries it,
			// then stop. Per-record failures never land here.
			b.Status = models.BatchFailed
			b.Error = err.Error()
			if saveErr := r.store.SaveState(state); saveErr != nil {
				slog.Error("failed to persist failed batch state", "error", saveErr)
			}
			r.setProgress(func(p *Progress) { p.Done = true; p.Err = err })
			return nil, fmt.Errorf("batch %d: %w", b.Index, err)
		}
		r.timeBatch(time.Since(start))

		file, err := r.store.WriteBatch(b.Index, results)
		if err != nil {
			return nil, fmt.Errorf("persist batch %d: %w", b.Index, err)
		}
		b.Status = models.BatchCompleted
		b.Error = ""
		b.File = file
		if err := r.store.SaveState(state); err != nil {
			return nil, fmt.Errorf("persist run state: %w", err)
		}

		slog.Info("batch complete", "batch", b.Index, "file", file)
	}

	now := time.Now().UTC()
	state.CompletedAt = &now
	if err := r.store.SaveState(state); err != nil {
		return nil, fmt.Errorf("persist run state: %w", err)
	}

	// Concatenating batch outputs in order reproduces the input order.
	var all []models.PackageMatch
	for _, b := range state.Batches {
		results, err := r.store.ReadBatch(b.File)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}

	summary := models.Summarize(all, r.opts.HighConfidence)
	slog.Info("run complete",
		"run_id", state.RunID,
		"total", summary.Total,
		"validated", summary.Validated,
		"high_confidence", summary.HighConfidence,
		"suggestions", summary.Suggestions,
		"delegate_failures", summary.DelegateFailures,
		"mismatches", summary.Mismatches,
		"unrecoverable", summary.Unrecoverable)

	r.setProgress(func(p *Progress) { p.Done = true; p.Processed = len(records) })
	return &RunResult{Results: all, Summary: summary, State: state}, nil
}

// loadOrInitState resumes a persisted manifest when it matches the input,
// otherwise starts a fresh run.
func (r *Runner) loadOrInitState(inputPath string, total int) (*models.RunState, error) {
	state, err := r.store.LoadState()
	if err != nil {
		return nil, err
	}
	if state != nil && state.TotalInputs == total && state.BatchSize == r.opts.BatchSize {
		if next := state.NextPending(); next >= 0 {
			slog.Info("resuming run",
				"run_id", state.RunID,
				"next_batch", state.Batches[next].Index,
				"batches", len(state.Batches))
		}
		return state, nil
	}
	if state != nil {
		slog.Warn("checkpoint does not match input, starting fresh",
			"old_total", state.TotalInputs, "new_total", total)
	}

	state = &models.RunState{
		RunID:       uuid.New().String()[:8],
		InputPath:   inputPath,
		TotalInputs: total,
		BatchSize:   r.opts.BatchSize,
		StartedAt:   time.Now().UTC(),
	}
	for start := 0; start < total; start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > total {
			end = total
		}
		state.Batches = append(state.Batches, models.BatchState{
			Index:  len(state.Batches) + 1,
			Start:  start,
			End:    end,
			Status: models.BatchPending,
		})
	}
	if err := r.store.SaveState(state); err != nil {
		return nil, err
	}
	return state, nil
}

// batchOrder returns batch indexes with pending batches first and
// previously failed batches last. A failed batch is retried on resume,
// but never before the batches it would otherwise block.
func batchOrder(state *models.RunState) []int {
	var order, retries []int
	for i := range state.Batches {
		if state.Batches[i].Status == models.BatchFailed {
			retries = append(retries, i)
			continue
		}
		order = append(order, i)
	}
	return append(order, retries...)
}

// processBatch resolves every record in the slice, preserving input order.
// Workers share no mutable state beyond indexed result assignment.
func (r *Runner) processBatch(ctx context.Context, batch []models.PackageRecord) ([]models.PackageMatch, error) {
	results := make([]models.PackageMatch, len(batch))

	if r.opts.Workers == 1 {
		for i, rec := range batch {
			match, err := r.matchRecord(ctx, rec)
			if err != nil {
				return nil, err
			}
			results[i] = models.PackageMatch{Name: rec.Name, Description: rec.Description, Match: match}
			r.setProgress(func(p *Progress) { p.Processed++ })
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indexes := make(chan int)
	var wg sync.WaitGroup
	var errOnce sync.Once
	var fatal error

	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rec := batch[i]
				match, err := r.matchRecord(ctx, rec)
				if err != nil {
					errOnce.Do(func() {
						fatal = err
						cancel()
					})
					return
				}
				results[i] = models.PackageMatch{Name: rec.Name, Description: rec.Description, Match: match}
				r.setProgress(func(p *Progress) { p.Processed++ })
			}
		}()
	}

feed:
	for i := range batch {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// matchRecord validates the record shape before spending a delegate call.
func (r *Runner) matchRecord(ctx context.Context, rec models.PackageRecord) (models.MatchResult, error) {
	if !rec.Valid() {
		return models.FailureSentinel("record is missing name or description"), nil
	}
	return r.match.Match(ctx, rec)
}

func (r *Runner) setProgress(fn func(*Progress)) {
	r.mu.Lock()
	fn(&r.progress)
	r.mu.Unlock()
}

func (r *Runner) timeBatch(d time.Duration) {
	if r.collector != nil {
		r.collector.RecordTiming(metrics.OpBatch, d)
	}
}
