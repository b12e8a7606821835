package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <manifest>",
	Short: "Check declared component tags against working-copy state",
	Long: `Check parses the component manifest, probes every declared path for
its actual version (git tag, marker file, or metadata file), and prints an
alignment report. The exit code is 1 when any component is misaligned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		output, _ := cmd.Flags().GetString("output")

		s, err := newSession(args[0])
		if err != nil {
			return err
		}
		defer s.close()

		s.printer.CheckStart(s.manifest, targets)
		report, err := s.runCheck(cmd.Context(), targets)
		if err != nil {
			return err
		}
		s.printer.CheckSummary(report)

		fmt.Fprint(cmd.OutOrStdout(), report.Format())
		if output != "" {
			if err := report.WriteFile(output); err != nil {
				return err
			}
			s.printer.Info(fmt.Sprintf("report written to %s", output))
		}

		if len(report.Misaligned()) > 0 {
			exitCode = 1
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringSliceP("target", "t", nil, "target group(s) to check (default: all)")
	checkCmd.Flags().StringP("output", "o", "", "write the report to a file as well")
	rootCmd.AddCommand(checkCmd)
}
