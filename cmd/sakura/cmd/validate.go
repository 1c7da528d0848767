package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakura-stack/sakura-tree/internal/blossom"
	"github.com/sakura-stack/sakura-tree/internal/executor"
	"github.com/sakura-stack/sakura-tree/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <tree-file>",
	Short: "Validate a task tree without executing it",
	Long: `Validate a task tree file without executing it.

Checks:
- YAML syntax and b_type tags
- Blossom registry membership
- Required input keys
- Output declarations
- Uninitialized value sentinels`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	tree, err := loadTree(dir, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parsing failed:\n  %v\n", err)
		return fmt.Errorf("validation failed")
	}

	registry := blossom.DefaultRegistry(executor.NewShellExecutor())
	errs := validator.New(registry).Validate(tree)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Validation errors:")
		for _, verr := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", verr)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}

	fmt.Printf("%s is valid\n", args[0])
	return nil
}
