package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bioforge/edamatch-go/internal/models"
)

// LoadPackages reads an input package list from path. JSON arrays of
// {name, description} are detected by extension or leading bracket;
// anything else is parsed as a biocViews flat file.
func LoadPackages(path string) ([]models.PackageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasSuffix(path, ".json") || strings.HasPrefix(trimmed, "[") {
		var records []models.PackageRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse JSON input %s: %w", path, err)
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("input %s contains no packages", path)
		}
		return records, nil
	}

	records, err := ParseBiocViews(strings.NewReader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
