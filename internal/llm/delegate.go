package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CandidateTerm is one prefiltered ontology term handed to the delegate.
type CandidateTerm struct {
	ID         string
	Label      string
	Definition string
}

// MatchRequest asks the delegate to pick the best ontology term for a
// package from the candidate list.
type MatchRequest struct {
	PackageName string
	Description string
	Candidates  []CandidateTerm
	// SimpleMode drops definitions from the candidate lines to keep the
	// prompt small.
	SimpleMode bool
}

// MatchResponse is the delegate's structured pick. The validator, not the
// delegate, is the authority: the pair may name a term outside the
// candidate list or outside the ontology entirely.
type MatchResponse struct {
	ID         string  `json:"edam_id"`
	Label      string  `json:"edam_label"`
	Confidence float64 `json:"confidence_score"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestRequest asks for a new-term proposal after a low-confidence match.
type SuggestRequest struct {
	PackageName        string
	Description        string
	LowConfidenceMatch string // "label (confidence: 0.300)"
	ExistingTerms      []CandidateTerm
}

// SuggestResponse is the delegate's new-designation proposal.
type SuggestResponse struct {
	Label         string   `json:"suggested_label"`
	Category      string   `json:"suggested_category"`
	Justification string   `json:"justification"`
	SimilarTerms  []string `json:"similar_terms"`
	Confidence    float64  `json:"confidence_score"`
}

// Delegate is the capability interface for the hosted model. The batch
// pipeline depends only on this so tests substitute a fake.
type Delegate interface {
	Match(ctx context.Context, req MatchRequest) (MatchResponse, error)
	Suggest(ctx context.Context, req SuggestRequest) (SuggestResponse, error)
}

const (
	maxAttempts      = 3
	rateLimitBackoff = 10 * time.Second
)

const matchSystemPrompt = `You are an ontology curator. Match the software package to the single most relevant EDAM ontology term from the candidate list.

Respond with ONLY a JSON object, no other text:
{"edam_id": "<EDAM ontology URI>", "edam_label": "<preferred label>", "confidence_score": <0.0-1.0>, "reasoning": "<brief explanation>"}`

const suggestSystemPrompt = `You are an ontology curator. The package below did not match any existing EDAM term with confidence. Propose a new EDAM term for it.

Respond with ONLY a JSON object, no other text:
{"suggested_label": "<new term label>", "suggested_category": "<topic|operation|data|format>", "justification": "<why this term is needed>", "similar_terms": ["<existing label>", ...], "confidence_score": <0.0-1.0>}`

// ModelDelegate implements Delegate on top of a langchaingo Model.
type ModelDelegate struct {
	model *Model
}

// NewDelegate wraps a model as the production delegate.
func NewDelegate(model *Model) *ModelDelegate {
	return &ModelDelegate{model: model}
}

// Match prompts the model for the best candidate and parses its JSON reply.
// Rate-limited calls are retried with linear backoff; anything else fails
// on the first attempt.
func (d *ModelDelegate) Match(ctx context.Context, req MatchRequest) (MatchResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Package name: %s\n\nPackage description:\n%s\n\nCandidate EDAM terms:\n",
		req.PackageName, req.Description)
	for _, c := range req.Candidates {
		if req.SimpleMode || c.Definition == "" {
			fmt.Fprintf(&sb, "- %s: %s\n", c.ID, c.Label)
		} else {
			fmt.Fprintf(&sb, "- %s: %s: %s\n", c.ID, c.Label, c.Definition)
		}
	}

	raw, err := d.generateWithRetry(ctx, matchSystemPrompt, sb.String())
	if err != nil {
		return MatchResponse{}, err
	}

	return ParseMatchReply(raw)
}

// ParseMatchReply decodes a raw model reply into a MatchResponse. Every
// field is required; a reply without a confidence score is a delegate
// failure, not a zero-confidence match.
func ParseMatchReply(raw string) (MatchResponse, error) {
	var reply struct {
		ID         *string  `json:"edam_id"`
		Label      *string  `json:"edam_label"`
		Confidence *float64 `json:"confidence_score"`
		Reasoning  *string  `json:"reasoning"`
	}
	if err := decodeJSONReply(raw, &reply); err != nil {
		return MatchResponse{}, fmt.Errorf("parse match response: %w", err)
	}
	switch {
	case reply.ID == nil || *reply.ID == "":
		return MatchResponse{}, fmt.Errorf("match response missing edam_id")
	case reply.Label == nil || *reply.Label == "":
		return MatchResponse{}, fmt.Errorf("match response missing edam_label")
	case reply.Confidence == nil:
		return MatchResponse{}, fmt.Errorf("match response missing confidence_score")
	}
	resp := MatchResponse{
		ID:         *reply.ID,
		Label:      *reply.Label,
		Confidence: *reply.Confidence,
	}
	if reply.Reasoning != nil {
		resp.Reasoning = *reply.Reasoning
	}
	return resp, nil
}

// Suggest prompts the model for a new-designation proposal.
func (d *ModelDelegate) Suggest(ctx context.Context, req SuggestRequest) (SuggestResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Package name: %s\n\nPackage description:\n%s\n\nBest existing match (low confidence): %s\n\nSample of existing EDAM terms:\n",
		req.PackageName, req.Description, req.LowConfidenceMatch)
	for _, c := range req.ExistingTerms {
		fmt.Fprintf(&sb, "- %s: %s\n", c.ID, c.Label)
	}

	raw, err := d.generateWithRetry(ctx, suggestSystemPrompt, sb.String())
	if err != nil {
		return SuggestResponse{}, err
	}

	var resp SuggestResponse
	if err := decodeJSONReply(raw, &resp); err != nil {
		return SuggestResponse{}, fmt.Errorf("parse suggest response: %w", err)
	}
	if resp.Label == "" {
		return SuggestResponse{}, fmt.Errorf("suggest response missing suggested_label")
	}
	return resp, nil
}

func (d *ModelDelegate) generateWithRetry(ctx context.Context, system, user string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		raw, err := d.model.GenerateWithSystem(ctx, system, user)
		if err == nil {
			slog.Debug("delegate call complete",
				"model", d.model.Model(),
				"duration_ms", time.Since(start).Milliseconds(),
				"attempt", attempt)
			return raw, nil
		}
		lastErr = err
		if !isRateLimited(err) || attempt == maxAttempts {
			return "", err
		}
		backoff := rateLimitBackoff * time.Duration(attempt)
		slog.Warn("rate limited, backing off",
			"attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// decodeJSONReply extracts and decodes the first JSON object in a model
// reply. Models occasionally wrap the object in code fences or prose.
func decodeJSONReply(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in reply")
	}
	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		// Retry without the strict field check: providers add fields.
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), v); err2 != nil {
			return err2
		}
	}
	return nil
}
