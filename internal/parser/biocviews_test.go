package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bioforge/edamatch-go/internal/models"
)

const sampleViews = `Package: DESeq2
Version: 1.44.0
Description: Estimate variance-mean dependence in count data from
        high-throughput sequencing assays and test for differential
        expression based on a model using the negative binomial
        distribution.
biocViews: Sequencing, RNASeq

Package: limma
Description: Data analysis, linear models and differential expression
        for omics data.

Package: NoDescription
Version: 0.1.0
`

func TestParseBiocViews(t *testing.T) {
	records, err := ParseBiocViews(strings.NewReader(sampleViews))
	if err != nil {
		t.Fatalf("ParseBiocViews() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (stanza without description skipped)", len(records))
	}

	if records[0].Name != "DESeq2" {
		t.Errorf("records[0].Name = %q, want DESeq2", records[0].Name)
	}
	// Folded continuation lines collapse to single-spaced text.
	if !strings.Contains(records[0].Description, "variance-mean dependence") ||
		strings.Contains(records[0].Description, "\n") ||
		strings.Contains(records[0].Description, "  ") {
		t.Errorf("description not unfolded cleanly: %q", records[0].Description)
	}
	if records[1].Name != "limma" {
		t.Errorf("records[1].Name = %q, want limma", records[1].Name)
	}
}

func TestParseBiocViews_Empty(t *testing.T) {
	if _, err := ParseBiocViews(strings.NewReader("Version: 1.0\n")); err == nil {
		t.Error("expected error for input without package stanzas")
	}
}

func TestLoadPackages_JSON(t *testing.T) {
	want := []models.PackageRecord{
		{Name: "DESeq2", Description: "differential expression analysis"},
		{Name: "xcms", Description: "mass spectrometry data processing"},
	}
	data, _ := json.Marshal(want)
	path := filepath.Join(t.TempDir(), "packages.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPackages(path)
	if err != nil {
		t.Fatalf("LoadPackages() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadPackages_ViewsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "VIEWS")
	if err := os.WriteFile(path, []byte(sampleViews), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPackages(path)
	if err != nil {
		t.Fatalf("LoadPackages() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestLoadPackages_MissingFile(t *testing.T) {
	if _, err := LoadPackages("no-such-file"); err == nil {
		t.Error("expected error for missing input file")
	}
}
