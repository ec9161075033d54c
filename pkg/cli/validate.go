package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mockhive/mockhive/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate server config files without starting them",
	Example: `  mockhive validate mocks/payments.json
  mockhive validate mocks/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("  OK   %s (server %q, %d routes, %d resources)\n",
			path, cfg.ID, len(cfg.Routes), len(cfg.Resources))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
