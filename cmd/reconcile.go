package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/history"
	"github.com/papapumpkin/pulsar/internal/reconcile"
	"github.com/papapumpkin/pulsar/internal/telemetry"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <manifest>",
	Short: "Repair misaligned components to match their declared tags",
	Long: `Reconcile runs a check, derives a corrective action for every
misaligned component (acquire missing paths, revert dirty trees, retag the
rest), executes the actions, and re-checks to show the resulting state.

Untracked files are never deleted unless --delete-untracked is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		deleteUntracked, _ := cmd.Flags().GetBool("delete-untracked")

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

		misaligned := report.Misaligned()
		if len(misaligned) == 0 {
			return nil
		}

		engine := &reconcile.Engine{
			Git:        s.git,
			BaseURL:    s.cfg.BaseURL,
			MarkerFile: s.cfg.MarkerFile,
		}
		actions := engine.Plan(misaligned, deleteUntracked)
		if err := requireBaseURL(s.cfg.BaseURL, actions); err != nil {
			return err
		}

		s.printer.ReconcileStart(len(actions))
		results := s.runReconcile(cmd.Context(), engine, actions)

		succeeded, failed := reconcile.Tally(results)
		s.printer.ReconcileSummary(succeeded, failed)

		// Re-check so the final output reflects what is actually on disk.
		s.printer.CheckStart(s.manifest, targets)
		after, err := s.runCheck(cmd.Context(), targets)
		if err != nil {
			return err
		}
		s.printer.CheckSummary(after)
		fmt.Fprint(cmd.OutOrStdout(), after.Format())

		if failed > 0 || len(after.Misaligned()) > 0 {
			exitCode = 1
		}
		return nil
	},
}

// requireBaseURL rejects a plan containing acquire actions when no clone base
// URL is configured; failing up front beats a half-executed batch.
func requireBaseURL(baseURL string, actions []reconcile.Action) error {
	if baseURL != "" {
		return nil
	}
	for _, a := range actions {
		if a.Kind() == reconcile.KindAcquire {
			return fmt.Errorf("component %s is missing but no base_url is configured for cloning", a.Component())
		}
	}
	return nil
}

// runReconcile executes the action batch with progress reporting, telemetry,
// and history recording.
func (s *session) runReconcile(ctx context.Context, engine *reconcile.Engine, actions []reconcile.Action) []reconcile.Result {
	runID := s.lastRunID

	_ = s.emitter.Emit(telemetry.Event{
		Timestamp: time.Now(), Kind: telemetry.KindReconcileStart,
		Data: map[string]any{"actions": len(actions), "run_id": runID},
	})

	store, err := history.Open(ctx, s.cfg.HistoryDB)
	if err != nil {
		s.printer.Info(fmt.Sprintf("could not open history: %v", err))
		store = nil
	} else {
		defer store.Close()
	}

	engine.Progress = func(r reconcile.Result) {
		if !s.quiet {
			s.printer.Action(r)
		}
		kind := telemetry.KindActionDone
		if r.Status == reconcile.InProgress {
			kind = telemetry.KindActionStart
		}
		_ = s.emitter.Emit(telemetry.Event{
			Timestamp: time.Now(), Kind: kind, Component: r.Component,
			Data: map[string]string{"action": r.Kind, "status": r.Status.String(), "message": r.Message},
		})
		if store != nil && (r.Status == reconcile.Succeeded || r.Status == reconcile.Failed) {
			_ = store.RecordAction(ctx, history.ActionRecord{
				RunID:   runID,
				Module:  r.Component,
				Kind:    r.Kind,
				Status:  r.Status.String(),
				Message: r.Message,
			})
		}
	}

	results := engine.Run(ctx, actions)

	succeeded, failed := reconcile.Tally(results)
	_ = s.emitter.Emit(telemetry.Event{
		Timestamp: time.Now(), Kind: telemetry.KindReconcileDone,
		Data: map[string]int{"succeeded": succeeded, "failed": failed},
	})
	return results
}

func init() {
	reconcileCmd.Flags().StringSliceP("target", "t", nil, "target group(s) to reconcile (default: all)")
	reconcileCmd.Flags().Bool("delete-untracked", false, "also delete untracked files when reverting")
	rootCmd.AddCommand(reconcileCmd)
}
