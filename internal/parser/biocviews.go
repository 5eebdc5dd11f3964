// Package parser reads package input lists: biocViews-style flat files
// and plain JSON arrays of {name, description}.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/bioforge/edamatch-go/internal/models"
)

var fieldRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*):\s*(.*)$`)

// ParseBiocViews reads a VIEWS/PACKAGES-style flat file: stanzas separated
// by blank lines, `Field: value` lines with indented continuation lines.
// Only Package and Description are kept; stanzas without both are skipped.
func ParseBiocViews(r io.Reader) ([]models.PackageRecord, error) {
	var records []models.PackageRecord

	var name string
	var desc strings.Builder
	var inDescription bool

	flush := func() {
		rec := models.PackageRecord{
			Name:        name,
			Description: strings.Join(strings.Fields(desc.String()), " "),
		}
		if rec.Valid() {
			records = append(records, rec)
		}
		name = ""
		desc.Reset()
		inDescription = false
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		// Continuation lines of a folded field start with whitespace.
		if line[0] == ' ' || line[0] == '\t' {
			if inDescription {
				desc.WriteByte(' ')
				desc.WriteString(strings.TrimSpace(line))
			}
			continue
		}

		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field, value := m[1], m[2]
		inDescription = false
		switch field {
		case "Package":
			name = strings.TrimSpace(value)
		case "Description":
			desc.Reset()
			desc.WriteString(value)
			inDescription = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan biocviews input: %w", err)
	}
	flush()

	if len(records) == 0 {
		return nil, fmt.Errorf("no package stanzas with name and description found")
	}
	return records, nil
}

// LoadBiocViews reads a biocViews flat file from disk.
func LoadBiocViews(path string) ([]models.PackageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseBiocViews(f)
}
