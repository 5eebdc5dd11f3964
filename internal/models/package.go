// Package models defines data structures shared across the edamatch pipeline.
package models

// PackageRecord is one software package to annotate: a name and a free-text
// description of what it does. Records are supplied externally and read-only.
type PackageRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Valid reports whether the record carries both fields the matcher needs.
func (p PackageRecord) Valid() bool {
	return p.Name != "" && p.Description != ""
}
