package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/ui"
)

var targetsCmd = &cobra.Command{
	Use:   "targets <manifest>",
	Short: "List the target groups declared in a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, tgt := range m.Targets() {
			counts[tgt] = len(m.Records(tgt))
		}
		ui.New().Targets(m.Targets(), counts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
