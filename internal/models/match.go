package models

// FailureCategory classifies why a record did not produce a clean validated
// match. Categories are counted separately in the run summary.
type FailureCategory string

const (
	// FailureNone means the record matched and validated.
	FailureNone FailureCategory = ""
	// FailureDelegate means the external call errored, timed out, or
	// returned an unparsable structure. The record carries a sentinel.
	FailureDelegate FailureCategory = "delegate_call_failure"
	// FailureValidation means the returned identifier/label pair did not
	// line up with the ontology table but one side was repairable.
	FailureValidation FailureCategory = "validation_mismatch"
	// FailureUnrecoverable means neither identifier nor label is known.
	FailureUnrecoverable FailureCategory = "unrecoverable_pair"
)

// Suggestion is a delegate-proposed ontology term that does not exist in the
// current table, produced for low-confidence matches.
type Suggestion struct {
	Label         string   `json:"suggested_label"`
	Category      string   `json:"suggested_category"`
	Justification string   `json:"justification"`
	SimilarTerms  []string `json:"similar_terms,omitempty"`
	Confidence    float64  `json:"confidence_score"`
}

// MatchResult is the outcome for a single package. Immutable once the
// validator has run; the orchestrator only ever appends results.
type MatchResult struct {
	ID         string          `json:"edam_id"`
	Label      string          `json:"edam_label"`
	Confidence float64         `json:"confidence_score"`
	Reasoning  string          `json:"reasoning"`
	Validated  bool            `json:"validated"`
	Failure    FailureCategory `json:"failure,omitempty"`
	Suggestion *Suggestion     `json:"suggestion,omitempty"`
}

// FailureSentinel builds the result recorded when the delegate call failed
// for a record. Confidence 0, never validated, reasoning carries the cause.
func FailureSentinel(cause string) MatchResult {
	return MatchResult{
		Confidence: 0,
		Validated:  false,
		Failure:    FailureDelegate,
		Reasoning:  "delegate call failed: " + cause,
	}
}

// PackageMatch pairs an input record with its match, the unit persisted in
// batch checkpoint files and in the final report.
type PackageMatch struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Match       MatchResult `json:"edam_match"`
}
