package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bioforge/edamatch-go/internal/llm"
	"github.com/bioforge/edamatch-go/internal/models"
	"github.com/bioforge/edamatch-go/internal/ontology"
)

const (
	t1 = "http://edamontology.org/operation_0001"
	t2 = "http://edamontology.org/data_0002"
)

const matchTestCSV = `Class ID,Preferred Label,Definitions,Synonyms,Obsolete
http://edamontology.org/operation_0001,RNA-Seq quantification,Quantify expression from RNA-Seq data.,,false
http://edamontology.org/data_0002,Sequence variations,Data on sequence variations.,,false
http://edamontology.org/topic_0003,Proteomics,Protein expression studies.,,false
`

// fakeDelegate scripts Match/Suggest responses per package name and counts
// calls, so tests can assert escalation behavior.
type fakeDelegate struct {
	mu           sync.Mutex
	matches      map[string]llm.MatchResponse
	matchErr     map[string]error
	suggestion   llm.SuggestResponse
	suggestErr   error
	matchCalls   map[string]int
	suggestCalls map[string]int
}

func newFakeDelegate() *fakeDelegate {
	return &fakeDelegate{
		matches:      map[string]llm.MatchResponse{},
		matchErr:     map[string]error{},
		matchCalls:   map[string]int{},
		suggestCalls: map[string]int{},
	}
}

func (f *fakeDelegate) Match(ctx context.Context, req llm.MatchRequest) (llm.MatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchCalls[req.PackageName]++
	if err := f.matchErr[req.PackageName]; err != nil {
		return llm.MatchResponse{}, err
	}
	if resp, ok := f.matches[req.PackageName]; ok {
		return resp, nil
	}
	return llm.MatchResponse{}, fmt.Errorf("no scripted response for %s", req.PackageName)
}

func (f *fakeDelegate) Suggest(ctx context.Context, req llm.SuggestRequest) (llm.SuggestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestCalls[req.PackageName]++
	if f.suggestErr != nil {
		return llm.SuggestResponse{}, f.suggestErr
	}
	return f.suggestion, nil
}

func newTestMatchService(t *testing.T, delegate llm.Delegate) *MatchService {
	t.Helper()
	opts := DefaultMatchOptions()
	// No throttling in tests; the budget has its own test.
	opts.RequestsPerSecond = 0
	return newTestMatchServiceOpts(t, delegate, opts)
}

func newTestMatchServiceOpts(t *testing.T, delegate llm.Delegate, opts MatchOptions) *MatchService {
	t.Helper()
	table, err := ontology.Parse(strings.NewReader(matchTestCSV))
	if err != nil {
		t.Fatalf("parse test ontology: %v", err)
	}
	sel := ontology.NewSelector(table, 10, ontology.FallbackHead)
	val := ontology.NewValidator(table, false)
	return NewMatchService(table, sel, val, delegate, nil, opts)
}

func TestMatch_HighConfidenceValidated(t *testing.T) {
	fake := newFakeDelegate()
	fake.matches["DESeq2"] = llm.MatchResponse{
		ID: t1, Label: "RNA-Seq quantification", Confidence: 0.9, Reasoning: "direct fit",
	}
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name:        "DESeq2",
		Description: "tools for differential expression analysis of RNA-Seq count data",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !result.Validated {
		t.Error("result not validated")
	}
	if result.Failure != models.FailureNone {
		t.Errorf("Failure = %q, want none", result.Failure)
	}
	if result.Suggestion != nil {
		t.Error("suggestion triggered at confidence 0.9")
	}
	if fake.suggestCalls["DESeq2"] != 0 {
		t.Errorf("suggest called %d times, want 0", fake.suggestCalls["DESeq2"])
	}
}

func TestMatch_LowConfidenceEscalatesOnce(t *testing.T) {
	fake := newFakeDelegate()
	fake.matches["oddpkg"] = llm.MatchResponse{
		ID: t2, Label: "Sequence variations", Confidence: 0.3, Reasoning: "weak fit",
	}
	fake.suggestion = llm.SuggestResponse{
		Label: "Spatial omics analysis", Category: "operation",
		Justification: "no existing term", Confidence: 0.7,
	}
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "oddpkg", Description: "sequence variation toolkit for spatial omics",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !result.Validated {
		t.Error("result not validated")
	}
	if result.Suggestion == nil {
		t.Fatal("no suggestion attached at confidence 0.3")
	}
	if result.Suggestion.Label != "Spatial omics analysis" {
		t.Errorf("suggestion label = %q", result.Suggestion.Label)
	}
	if fake.suggestCalls["oddpkg"] != 1 {
		t.Errorf("suggest called %d times, want exactly 1", fake.suggestCalls["oddpkg"])
	}
}

func TestMatch_MismatchedPairRepaired(t *testing.T) {
	fake := newFakeDelegate()
	// Identifier T1 with T2's label: identifier wins.
	fake.matches["crossed"] = llm.MatchResponse{
		ID: t1, Label: "Sequence variations", Confidence: 0.8, Reasoning: "confused",
	}
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "crossed", Description: "RNA-Seq expression quantification",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if result.ID != t1 || result.Label != "RNA-Seq quantification" {
		t.Errorf("repaired pair = (%q, %q), want identifier's canonical label", result.ID, result.Label)
	}
	if !result.Validated {
		t.Error("repaired pair not validated")
	}
	if result.Failure != models.FailureValidation {
		t.Errorf("Failure = %q, want validation_mismatch", result.Failure)
	}
}

func TestMatch_UnrecoverablePairRecorded(t *testing.T) {
	fake := newFakeDelegate()
	fake.matches["lost"] = llm.MatchResponse{
		ID: "http://edamontology.org/topic_9999", Label: "Imaginary term", Confidence: 0.9,
	}
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "lost", Description: "sequence analysis",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if result.Validated {
		t.Error("unknown pair validated")
	}
	if result.Failure != models.FailureUnrecoverable {
		t.Errorf("Failure = %q, want unrecoverable_pair", result.Failure)
	}
	// The pair is reported as returned, never dropped.
	if result.ID == "" || result.Label == "" {
		t.Error("unrecoverable pair was blanked instead of recorded")
	}
}

func TestMatch_DelegateErrorBecomesSentinel(t *testing.T) {
	fake := newFakeDelegate()
	fake.matchErr["flaky"] = errors.New("connection reset by peer")
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "flaky", Description: "sequence analysis",
	})
	if err != nil {
		t.Fatalf("Match() error = %v, want sentinel result", err)
	}
	if result.Failure != models.FailureDelegate {
		t.Errorf("Failure = %q, want delegate_call_failure", result.Failure)
	}
	if result.Confidence != 0 || result.Validated {
		t.Errorf("sentinel = %+v, want confidence 0 and validated=false", result)
	}
	if !strings.Contains(result.Reasoning, "connection reset") {
		t.Errorf("reasoning %q does not capture the cause", result.Reasoning)
	}
	if fake.suggestCalls["flaky"] != 0 {
		t.Error("suggestion escalated for a delegate failure sentinel")
	}
}

func TestMatch_ExhaustedRateLimitBecomesSentinel(t *testing.T) {
	fake := newFakeDelegate()
	fake.matchErr["throttled"] = errors.New("generate: 429 rate limit exceeded")
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "throttled", Description: "sequence analysis",
	})
	if err != nil {
		t.Fatalf("Match() error = %v, rate limiting must not abort the run", err)
	}
	if result.Failure != models.FailureDelegate {
		t.Errorf("Failure = %q, want delegate_call_failure", result.Failure)
	}
}

func TestMatch_FatalAPIErrorAborts(t *testing.T) {
	fake := newFakeDelegate()
	fake.matchErr["doomed"] = llm.ErrFatalAPI
	svc := newTestMatchService(t, fake)

	_, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "doomed", Description: "sequence analysis",
	})
	if !errors.Is(err, llm.ErrFatalAPI) {
		t.Errorf("Match() error = %v, want ErrFatalAPI to propagate", err)
	}
}

func TestMatch_SuggestFailureDegrades(t *testing.T) {
	fake := newFakeDelegate()
	fake.matches["lowconf"] = llm.MatchResponse{
		ID: t2, Label: "Sequence variations", Confidence: 0.2,
	}
	fake.suggestErr = errors.New("model overloaded")
	svc := newTestMatchService(t, fake)

	result, err := svc.Match(context.Background(), models.PackageRecord{
		Name: "lowconf", Description: "sequence variation explorer",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if result.Suggestion != nil {
		t.Error("failed suggestion call still attached a suggestion")
	}
	if !result.Validated {
		t.Error("suggest failure corrupted the validated match")
	}
}
