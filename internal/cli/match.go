package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bioforge/edamatch-go/internal/models"
	"github.com/spf13/cobra"
)

var matchJSON bool

var matchCmd = &cobra.Command{
	Use:   "match <name> <description>",
	Short: "Match a single package description to an EDAM term",
	Long: `Match one package against the ontology and print the result.

Examples:
  edamatch match DESeq2 "Differential gene expression analysis based on the negative binomial distribution"
  edamatch match limma "Linear models for microarray and RNA-Seq data" --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print the raw result as JSON")
}

func runMatch(cmd *cobra.Command, args []string) error {
	rec := models.PackageRecord{
		Name:        args[0],
		Description: strings.Join(args[1:], " "),
	}

	svc, err := getMatchService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	result, err := svc.Match(context.Background(), rec)
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}

	if matchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models.PackageMatch{Name: rec.Name, Description: rec.Description, Match: result})
	}

	printMatch(rec.Name, result)
	return nil
}

func printMatch(name string, m models.MatchResult) {
	fmt.Printf("%s\n", name)
	fmt.Printf("  Term:       %s [%s]\n", m.Label, m.ID)
	fmt.Printf("  Confidence: %.2f\n", m.Confidence)
	fmt.Printf("  Validated:  %v\n", m.Validated)
	if m.Failure != models.FailureNone {
		fmt.Printf("  Failure:    %s\n", m.Failure)
	}
	if verbose && m.Reasoning != "" {
		fmt.Printf("  Reasoning:  %s\n", m.Reasoning)
	}
	if m.Suggestion != nil {
		fmt.Printf("  Suggested new term: %s (%s, confidence %.2f)\n",
			m.Suggestion.Label, m.Suggestion.Category, m.Suggestion.Confidence)
		if verbose && m.Suggestion.Justification != "" {
			fmt.Printf("    %s\n", m.Suggestion.Justification)
		}
	}
}
