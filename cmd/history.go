package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check runs and reconciliation actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetInt64("run")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		store, err := history.Open(cmd.Context(), cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()

		if runID > 0 {
			outcomes, err := store.OutcomesFor(cmd.Context(), runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run %d:\n", runID)
			for _, o := range outcomes {
				fmt.Fprintf(out, "  %-24s %-12s expected=%s actual=%s %s\n",
					o.Module, o.Outcome, o.Expected, o.Actual, o.Message)
			}
			actions, err := store.ActionsFor(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(actions) > 0 {
				fmt.Fprintln(out, "Actions:")
				for _, a := range actions {
					fmt.Fprintf(out, "  %-24s %-8s %-10s %s\n", a.Module, a.Kind, a.Status, a.Message)
				}
			}
			return nil
		}

		runs, err := store.RecentRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%4d  %s  %s  %d checked, %d misaligned\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.ManifestPath, r.Total, r.Misaligned)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 10, "number of runs to show")
	historyCmd.Flags().Int64("run", 0, "show the details of one run")
	rootCmd.AddCommand(historyCmd)
}
