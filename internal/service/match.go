// Package service wires the candidate selector, the hosted-model
// delegates, and the validator into the per-record and batch pipelines.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bioforge/edamatch-go/internal/llm"
	"github.com/bioforge/edamatch-go/internal/metrics"
	"github.com/bioforge/edamatch-go/internal/models"
	"github.com/bioforge/edamatch-go/internal/ontology"
)

// MatchOptions configures the per-record pipeline.
type MatchOptions struct {
	// ConfidenceThreshold triggers a new-designation suggestion when the
	// match confidence falls below it.
	ConfidenceThreshold float64
	// CallTimeout bounds each delegate call. The external dependency has
	// no response-time guarantee of its own.
	CallTimeout time.Duration
	// SimpleMode sends label-only candidate lines.
	SimpleMode bool
	// SamplePerCategory is how many terms per EDAM branch to include as
	// context in suggestion requests.
	SamplePerCategory int
	// RequestsPerSecond is the delegate-call budget shared by every caller
	// of this service, including concurrent batch workers. 0 disables it.
	RequestsPerSecond float64
}

// DefaultMatchOptions are the production defaults.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		ConfidenceThreshold: 0.5,
		CallTimeout:         2 * time.Minute,
		SimpleMode:          true,
		SamplePerCategory:   5,
		RequestsPerSecond:   2,
	}
}

// MatchService runs the select -> delegate -> validate -> escalate pipeline
// for single records. Safe for concurrent use: all shared state is the
// immutable ontology table.
type MatchService struct {
	table     *ontology.Table
	selector  *ontology.Selector
	validator *ontology.Validator
	delegate  llm.Delegate
	collector *metrics.Collector
	// limiter is the single request budget for the external API. Every
	// delegate call waits on it, so concurrent workers share one budget.
	limiter *rate.Limiter
	opts    MatchOptions
}

// NewMatchService builds the pipeline. collector may be nil.
func NewMatchService(table *ontology.Table, selector *ontology.Selector, validator *ontology.Validator,
	delegate llm.Delegate, collector *metrics.Collector, opts MatchOptions) *MatchService {
	if opts.ConfidenceThreshold == 0 {
		opts.ConfidenceThreshold = 0.5
	}
	if opts.SamplePerCategory <= 0 {
		opts.SamplePerCategory = 5
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &MatchService{
		table:     table,
		selector:  selector,
		validator: validator,
		delegate:  delegate,
		collector: collector,
		limiter:   limiter,
		opts:      opts,
	}
}

// Match produces the MatchResult for one package. Per-record failures come
// back as sentinel results, never as errors; the returned error is reserved
// for fatal conditions (ErrFatalAPI) that must abort the whole run.
func (s *MatchService) Match(ctx context.Context, rec models.PackageRecord) (models.MatchResult, error) {
	start := time.Now()
	cands := s.selector.Select(rec.Description)
	s.record(metrics.OpCandidateSelect, time.Since(start))

	if len(cands) == 0 {
		// Only reachable under the "none" fallback policy.
		slog.Warn("no candidates for record", "package", rec.Name)
		return models.FailureSentinel("no candidate terms shared a token with the description"), nil
	}

	req := llm.MatchRequest{
		PackageName: rec.Name,
		Description: rec.Description,
		Candidates:  make([]llm.CandidateTerm, 0, len(cands)),
		SimpleMode:  s.opts.SimpleMode,
	}
	for _, c := range cands {
		req.Candidates = append(req.Candidates, llm.CandidateTerm{
			ID:         c.Term.ID,
			Label:      c.Term.Label,
			Definition: c.Term.Definition,
		})
	}

	resp, err := s.callMatch(ctx, req)
	if err != nil {
		if errors.Is(err, llm.ErrFatalAPI) {
			return models.MatchResult{}, fmt.Errorf("match %s: %w", rec.Name, err)
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Run-level cancellation, not a per-record problem.
			return models.MatchResult{}, err
		}
		slog.Warn("delegate call failed", "package", rec.Name, "error", err)
		s.fail(metrics.OpMatch)
		return models.FailureSentinel(err.Error()), nil
	}

	result := s.validate(rec.Name, resp)

	if result.Confidence < s.opts.ConfidenceThreshold {
		s.escalate(ctx, rec, &result)
	}
	return result, nil
}

// validate cross-checks and, when needed, repairs the delegate's pair.
func (s *MatchService) validate(pkg string, resp llm.MatchResponse) models.MatchResult {
	result := models.MatchResult{
		ID:         resp.ID,
		Label:      resp.Label,
		Confidence: resp.Confidence,
		Reasoning:  resp.Reasoning,
	}

	// A synonym label normalizes to its canonical pair before validation.
	if id, label, ok := s.validator.Normalize(resp.Label); ok && id == resp.ID {
		result.ID, result.Label = id, label
	}

	ok, msg := s.validator.Validate(result.ID, result.Label)
	if ok {
		result.Validated = true
		return result
	}

	slog.Warn("validation failed", "package", pkg, "detail", msg)
	id, label, repaired := s.validator.Reconcile(result.ID, result.Label)
	if !repaired {
		result.Failure = models.FailureUnrecoverable
		return result
	}

	result.ID, result.Label = id, label
	result.Validated = true
	result.Failure = models.FailureValidation
	slog.Info("repaired mismatched pair", "package", pkg, "id", id, "label", label)
	return result
}

// escalate asks the suggestion delegate for a new-term proposal. Failures
// degrade to a missing suggestion; they never fail the record.
func (s *MatchService) escalate(ctx context.Context, rec models.PackageRecord, result *models.MatchResult) {
	if result.Failure == models.FailureDelegate {
		return
	}

	sample := s.table.SampleByCategory(s.opts.SamplePerCategory)
	req := llm.SuggestRequest{
		PackageName:        rec.Name,
		Description:        rec.Description,
		LowConfidenceMatch: fmt.Sprintf("%s (confidence: %.3f)", result.Label, result.Confidence),
		ExistingTerms:      make([]llm.CandidateTerm, 0, len(sample)),
	}
	for _, term := range sample {
		req.ExistingTerms = append(req.ExistingTerms, llm.CandidateTerm{ID: term.ID, Label: term.Label})
	}

	resp, err := s.callSuggest(ctx, req)
	if err != nil {
		slog.Warn("suggestion call failed", "package", rec.Name, "error", err)
		s.fail(metrics.OpSuggest)
		return
	}

	result.Suggestion = &models.Suggestion{
		Label:         resp.Label,
		Category:      resp.Category,
		Justification: resp.Justification,
		SimilarTerms:  resp.SimilarTerms,
		Confidence:    resp.Confidence,
	}
}

func (s *MatchService) callMatch(ctx context.Context, req llm.MatchRequest) (llm.MatchResponse, error) {
	if err := s.waitBudget(ctx); err != nil {
		return llm.MatchResponse{}, err
	}
	if s.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := s.delegate.Match(ctx, req)
	if err == nil {
		s.record(metrics.OpMatch, time.Since(start))
	}
	return resp, err
}

// waitBudget blocks until the shared rate budget admits one request.
// Returns early only when the run context is cancelled.
func (s *MatchService) waitBudget(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *MatchService) callSuggest(ctx context.Context, req llm.SuggestRequest) (llm.SuggestResponse, error) {
	if err := s.waitBudget(ctx); err != nil {
		return llm.SuggestResponse{}, err
	}
	if s.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := s.delegate.Suggest(ctx, req)
	if err == nil {
		s.record(metrics.OpSuggest, time.Since(start))
	}
	return resp, err
}

func (s *MatchService) record(op string, d time.Duration) {
	if s.collector != nil {
		s.collector.RecordTiming(op, d)
	}
}

func (s *MatchService) fail(op string) {
	if s.collector != nil {
		s.collector.RecordFailure(op)
	}
}
