package cli

import (
	"fmt"
	"strings"

	"github.com/bioforge/edamatch-go/internal/ontology"
	"github.com/spf13/cobra"
)

var termsLimit int

var termsCmd = &cobra.Command{
	Use:   "terms <description>",
	Short: "Show candidate ontology terms for a description",
	Long: `Rank ontology terms by lexical overlap with the given text, the same
prefilter a match run uses to build the delegate prompt. Useful for checking
why a term did or did not reach the candidate list.

Examples:
  edamatch terms "differential expression analysis of RNA-Seq data"
  edamatch terms "variant calling" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTerms,
}

func init() {
	termsCmd.Flags().IntVarP(&termsLimit, "limit", "n", 0, "max candidates (default from EDAMATCH_CANDIDATES)")
}

func runTerms(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")

	sel := selector
	if termsLimit > 0 {
		sel = ontology.NewSelector(table, termsLimit, ontology.FallbackPolicy(cfg.Fallback))
	}

	candidates := sel.Select(description)
	if len(candidates) == 0 {
		fmt.Println("No candidate terms.")
		return nil
	}

	fmt.Printf("Top %d candidates:\n\n", len(candidates))
	for i, c := range candidates {
		fmt.Printf("%d. %s [%s] (%s, score %d)\n", i+1, c.Term.Label, c.Term.ID, c.Term.Category, c.Score)
		if verbose && c.Term.Definition != "" {
			fmt.Printf("   %s\n", c.Term.Definition)
		}
		if verbose && len(c.Term.Synonyms) > 0 {
			fmt.Printf("   Synonyms: %s\n", strings.Join(c.Term.Synonyms, ", "))
		}
	}
	return nil
}
