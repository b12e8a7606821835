package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/git"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that required dependencies are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ok := true

		client := git.NewClient(cfg.GitPath, cfg.Verbose)
		if err := client.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "✗ git: %v\n", err)
			ok = false
		} else {
			fmt.Fprintln(os.Stderr, "✓ git CLI found")
		}

		if !ok {
			exitCode = 1
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
