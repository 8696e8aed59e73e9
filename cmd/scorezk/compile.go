package scorezk

import (
	"fmt"
	"os"
	"time"

	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof/gnarkbackend"
	"github.com/spf13/cobra"
)

type compileConfig struct {
	outputDir string
	circuits  []string
	force     bool
}

func NewCompileCmd() *cobra.Command {
	cfg := &compileConfig{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile circuits and generate setup files",
		Long:  `Compile the credit predicate circuits and generate constraint systems, proving keys and verification keys for the gnark backend.`,
		Example: `  # Compile all circuits
  scorezk compile -o ./setup

  # Compile specific circuits
  scorezk compile -o ./setup -c prove_score_threshold,prove_dti_ratio
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.outputDir, "output", "o", "./setup", "Output directory for compiled circuits")
	cmd.Flags().StringSliceVarP(&cfg.circuits, "circuits", "c", []string{}, "Specific circuits to compile (comma-separated, empty = all)")
	cmd.Flags().BoolVarP(&cfg.force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func runCompile(cfg *compileConfig) error {
	if err := os.MkdirAll(cfg.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	selected := gnarkbackend.CircuitList
	if len(cfg.circuits) > 0 {
		selected = nil
		for _, name := range cfg.circuits {
			ci, ok := gnarkbackend.Lookup(models.Circuit(name))
			if !ok {
				fmt.Printf("Circuit %s not found, skipping\n", name)
				continue
			}
			selected = append(selected, ci)
		}
	}

	fmt.Printf("\n==== Compiling %d circuits to %s ====\n", len(selected), cfg.outputDir)

	failed := 0
	for _, ci := range selected {
		if !cfg.force && ci.Paths(cfg.outputDir).Exists() {
			fmt.Printf("%s already exists, skipping (use --force to overwrite)\n", ci.Circuit)
			continue
		}

		start := time.Now()
		fmt.Printf("Compiling %s...\n", ci.Circuit)

		constraints, err := ci.Compile(cfg.outputDir)
		if err != nil {
			fmt.Printf("[X] %v\n", err)
			failed++
			continue
		}

		fmt.Printf("[OK] Compiled %s (%d constraints) in %s\n", ci.Circuit, constraints, time.Since(start).Round(time.Second))
	}

	fmt.Println("\n==== Compilation complete ====")
	if failed > 0 {
		return fmt.Errorf("%d circuits failed to compile", failed)
	}
	return nil
}
