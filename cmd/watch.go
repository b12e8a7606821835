package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <manifest>",
	Short: "Re-check components whenever the manifest changes",
	Long: `Watch runs an initial check, then monitors the manifest file and
re-runs the check after every save. Stop with ctrl-c.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")

		s, err := newSession(args[0])
		if err != nil {
			return err
		}
		defer s.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runOnce := func() {
			report, err := s.runCheck(ctx, targets)
			if err != nil {
				s.printer.Error(err.Error())
				return
			}
			s.printer.CheckSummary(report)
		}

		s.printer.WatchStart(s.manifest)
		runOnce()

		w, err := watch.NewWatcher(s.manifest)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		for {
			select {
			case <-ctx.Done():
				s.printer.Info("watch stopped")
				return nil
			case change, ok := <-w.Changes:
				if !ok {
					return nil
				}
				if change.Removed {
					s.printer.Error(fmt.Sprintf("manifest removed: %s", change.File))
					continue
				}
				s.printer.Info("manifest changed, re-checking")
				runOnce()
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringSliceP("target", "t", nil, "target group(s) to check (default: all)")
	rootCmd.AddCommand(watchCmd)
}
