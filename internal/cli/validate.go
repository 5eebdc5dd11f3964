package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <class-id> <label>",
	Short: "Validate an identifier/label pair against the ontology",
	Long: `Check whether a Class ID and Preferred Label form a consistent pair in
the loaded ontology. Inconsistent but repairable pairs print the reconciled
pair (a known identifier wins over a known label).

Examples:
  edamatch validate http://edamontology.org/operation_3800 "RNA-Seq quantification"
  edamatch validate http://edamontology.org/operation_3800 "Sequence analysis"`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	id, label := args[0], args[1]

	ok, detail := validator.Validate(id, label)
	if ok {
		fmt.Println("✓ Valid pair")
		return nil
	}

	fmt.Printf("✗ %s\n", detail)

	fixedID, fixedLabel, repaired := validator.Reconcile(id, label)
	if repaired {
		fmt.Printf("Reconciled: %s [%s]\n", fixedLabel, fixedID)
		return nil
	}

	fmt.Println("Neither side is known to the ontology; pair is unrecoverable.")
	return nil
}
