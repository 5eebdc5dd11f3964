// Package ontology loads the EDAM reference table and provides the
// lexical candidate selector and the identifier/label validator.
package ontology

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrDataLoad marks a fatal ontology source problem: missing file,
// unreadable content, or required columns absent. A run never starts
// when the table cannot be loaded.
var ErrDataLoad = errors.New("ontology data load failed")

// Category is the EDAM branch a term belongs to, derived from its URI.
type Category string

const (
	CategoryTopic     Category = "topic"
	CategoryOperation Category = "operation"
	CategoryData      Category = "data"
	CategoryFormat    Category = "format"
	CategoryUnknown   Category = "unknown"
)

// Term is one active ontology entry. Immutable once loaded.
type Term struct {
	ID         string
	Label      string
	Definition string
	Synonyms   []string
	Category   Category
}

// Table is the in-memory ontology, active (non-obsolete) terms only,
// kept in source file order. Read-only after Load.
type Table struct {
	Terms []Term

	byID    map[string]int
	byLabel map[string]int
}

// Required CSV columns. Synonyms is optional in practice but present in
// every EDAM export, so it is required too.
var requiredColumns = []string{"Class ID", "Preferred Label", "Definitions", "Synonyms", "Obsolete"}

// Load reads the EDAM CSV from path, excluding obsolete rows.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataLoad, path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an EDAM CSV from r. Exposed separately so tests can load
// tables from literals.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // EDAM exports carry many trailing columns

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrDataLoad, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrDataLoad, name)
		}
	}

	t := &Table{
		byID:    make(map[string]int),
		byLabel: make(map[string]int),
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", ErrDataLoad, err)
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		if strings.EqualFold(field("Obsolete"), "true") {
			continue
		}
		id := field("Class ID")
		label := field("Preferred Label")
		if id == "" || label == "" {
			continue
		}

		term := Term{
			ID:         id,
			Label:      label,
			Definition: field("Definitions"),
			Synonyms:   splitSynonyms(field("Synonyms")),
			Category:   categoryOf(id),
		}
		t.byID[term.ID] = len(t.Terms)
		t.byLabel[term.Label] = len(t.Terms)
		t.Terms = append(t.Terms, term)
	}

	if len(t.Terms) == 0 {
		return nil, fmt.Errorf("%w: no active terms", ErrDataLoad)
	}
	return t, nil
}

// ByID returns the term for an identifier, if loaded.
func (t *Table) ByID(id string) (Term, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Term{}, false
	}
	return t.Terms[i], true
}

// ByLabel returns the term for a preferred label, if loaded.
func (t *Table) ByLabel(label string) (Term, bool) {
	i, ok := t.byLabel[label]
	if !ok {
		return Term{}, false
	}
	return t.Terms[i], true
}

// Len returns the number of active terms.
func (t *Table) Len() int {
	return len(t.Terms)
}

// SampleByCategory returns up to n terms from each EDAM branch in table
// order, used as context when asking for new-term suggestions.
func (t *Table) SampleByCategory(n int) []Term {
	counts := map[Category]int{}
	var sample []Term
	for _, term := range t.Terms {
		if counts[term.Category] >= n {
			continue
		}
		counts[term.Category]++
		sample = append(sample, term)
	}
	return sample
}

// splitSynonyms parses the pipe-separated Synonyms column.
func splitSynonyms(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// categoryOf derives the EDAM branch from the class URI fragment,
// e.g. http://edamontology.org/topic_0080 -> topic.
func categoryOf(id string) Category {
	frag := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		frag = id[i+1:]
	}
	switch {
	case strings.HasPrefix(frag, "topic_"):
		return CategoryTopic
	case strings.HasPrefix(frag, "operation_"):
		return CategoryOperation
	case strings.HasPrefix(frag, "data_"):
		return CategoryData
	case strings.HasPrefix(frag, "format_"):
		return CategoryFormat
	default:
		return CategoryUnknown
	}
}
