package ontology

import (
	"sort"
	"strings"
)

// FallbackPolicy controls the candidate set when no term shares a token
// with the description. The policy is explicit so the degenerate case is
// a documented choice rather than an accident of table order.
type FallbackPolicy string

const (
	// FallbackHead returns the first K active terms in table order.
	FallbackHead FallbackPolicy = "head"
	// FallbackNone returns an empty candidate set and leaves the caller
	// to decide.
	FallbackNone FallbackPolicy = "none"
)

// Candidate is one ranked prefilter hit.
type Candidate struct {
	Term  Term
	Score int // shared-token count against the description
}

// Selector ranks ontology terms by lexical overlap with a description.
// It is a prefilter to keep delegate prompts small, not a decision maker.
type Selector struct {
	table    *Table
	k        int
	fallback FallbackPolicy

	// token sets per term, built once
	termTokens []map[string]struct{}
	// per-synonym token sets, aligned with table order
	synTokens [][]map[string]struct{}
}

// NewSelector builds a selector over the loaded table.
// k <= 0 defaults to 10.
func NewSelector(table *Table, k int, fallback FallbackPolicy) *Selector {
	if k <= 0 {
		k = 10
	}
	if fallback == "" {
		fallback = FallbackHead
	}
	s := &Selector{
		table:      table,
		k:          k,
		fallback:   fallback,
		termTokens: make([]map[string]struct{}, len(table.Terms)),
		synTokens:  make([][]map[string]struct{}, len(table.Terms)),
	}
	for i, term := range table.Terms {
		s.termTokens[i] = tokenize(term.Label + " " + term.Definition + " " + strings.Join(term.Synonyms, " "))
		for _, syn := range term.Synonyms {
			s.synTokens[i] = append(s.synTokens[i], tokenize(syn))
		}
	}
	return s
}

// Select returns the top-K candidates for a description, ranked by shared
// token count with ties broken by table order (stable sort).
func (s *Selector) Select(description string) []Candidate {
	words := tokenize(description)

	var hits []Candidate
	for i, term := range s.table.Terms {
		score := overlap(words, s.termTokens[i])
		// A single synonym can outscore the combined text when its
		// words all appear in the description.
		for _, syn := range s.synTokens[i] {
			if o := overlap(words, syn); o > score {
				score = o
			}
		}
		if score > 0 {
			hits = append(hits, Candidate{Term: term, Score: score})
		}
	}

	if len(hits) == 0 {
		return s.fallbackCandidates()
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > s.k {
		hits = hits[:s.k]
	}
	return hits
}

// fallbackCandidates applies the configured no-overlap policy.
func (s *Selector) fallbackCandidates() []Candidate {
	switch s.fallback {
	case FallbackNone:
		return nil
	default: // FallbackHead
		n := s.k
		if n > len(s.table.Terms) {
			n = len(s.table.Terms)
		}
		out := make([]Candidate, 0, n)
		for _, term := range s.table.Terms[:n] {
			out = append(out, Candidate{Term: term, Score: 0})
		}
		return out
	}
}

func tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	// iterate over the smaller set
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
