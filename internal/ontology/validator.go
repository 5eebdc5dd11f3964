package ontology

import "fmt"

// Validator cross-checks delegate-proposed (identifier, label) pairs
// against the loaded table. Pure functions over immutable data; safe for
// concurrent use.
type Validator struct {
	table       *Table
	useSynonyms bool

	synToTerm map[string]Term
}

// NewValidator builds a validator. When useSynonyms is set, a synonym is
// accepted as a label and normalized to the preferred label of its term.
func NewValidator(table *Table, useSynonyms bool) *Validator {
	v := &Validator{table: table, useSynonyms: useSynonyms}
	if useSynonyms {
		v.synToTerm = make(map[string]Term)
		for _, term := range table.Terms {
			for _, syn := range term.Synonyms {
				if _, taken := v.synToTerm[syn]; !taken {
					v.synToTerm[syn] = term
				}
			}
		}
	}
	return v
}

// ValidID reports whether the identifier exists in the table.
func (v *Validator) ValidID(id string) bool {
	_, ok := v.table.ByID(id)
	return ok
}

// ValidLabel reports whether the label (or, with synonyms enabled, a
// synonym) exists in the table.
func (v *Validator) ValidLabel(label string) bool {
	if _, ok := v.table.ByLabel(label); ok {
		return true
	}
	if v.useSynonyms {
		_, ok := v.synToTerm[label]
		return ok
	}
	return false
}

// Validate checks that identifier and label both exist and belong to the
// same table row. The message explains any failure, including the label
// the identifier should have carried.
func (v *Validator) Validate(id, label string) (bool, string) {
	term, ok := v.table.ByID(id)
	if !ok {
		return false, fmt.Sprintf("EDAM ID %q not found in ontology", id)
	}
	if !v.ValidLabel(label) {
		return false, fmt.Sprintf("EDAM label %q not found in ontology", label)
	}
	if term.Label == label {
		return true, "valid match"
	}
	if v.useSynonyms {
		if synTerm, ok := v.synToTerm[label]; ok {
			if synTerm.ID == id {
				return true, "valid match (via synonym)"
			}
			return false, fmt.Sprintf("label %q is a synonym of %q (%s), not of %q",
				label, synTerm.Label, synTerm.ID, term.Label)
		}
	}
	return false, fmt.Sprintf("ID %q should have label %q, not %q", id, term.Label, label)
}

// Normalize resolves a label or synonym to its canonical (id, label) pair.
// Returns ok=false when the string is neither.
func (v *Validator) Normalize(labelOrSynonym string) (id, label string, ok bool) {
	if term, found := v.table.ByLabel(labelOrSynonym); found {
		return term.ID, term.Label, true
	}
	if v.useSynonyms {
		if term, found := v.synToTerm[labelOrSynonym]; found {
			return term.ID, term.Label, true
		}
	}
	return "", "", false
}

// Reconcile repairs a mismatched pair. A known identifier wins and forces
// its canonical label; otherwise a known label forces its canonical
// identifier. When neither side is known the pair comes back unchanged
// with ok=false — the caller records it, never drops it.
func (v *Validator) Reconcile(id, label string) (string, string, bool) {
	if term, found := v.table.ByID(id); found {
		return term.ID, term.Label, true
	}
	if cid, clabel, found := v.Normalize(label); found {
		return cid, clabel, true
	}
	return id, label, false
}
