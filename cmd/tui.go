package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/reconcile"
	"github.com/papapumpkin/pulsar/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <manifest>",
	Short: "Launch the interactive alignment view",
	Long: `Tui runs a check and presents the misaligned components in an
interactive list. Select rows with space, then dispatch corrective actions
without leaving the terminal; every batch is followed by a fresh check.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(args[0])
		if err != nil {
			return err
		}
		defer s.close()

		// Progress printing would corrupt the alternate screen; the model
		// renders results itself.
		s.quiet = true

		return tui.Run(&tuiRunner{session: s})
	},
}

// tuiRunner adapts a session to the tui.Runner backend interface.
type tuiRunner struct {
	session *session
}

func (r *tuiRunner) Check(ctx context.Context) (*align.Report, error) {
	return r.session.runCheck(ctx, nil)
}

func (r *tuiRunner) Plan(results []align.ComponentResult, deleteUntracked bool) []reconcile.Action {
	return r.engine().Plan(results, deleteUntracked)
}

func (r *tuiRunner) Reconcile(ctx context.Context, actions []reconcile.Action) []reconcile.Result {
	return r.session.runReconcile(ctx, r.engine(), actions)
}

func (r *tuiRunner) engine() *reconcile.Engine {
	return &reconcile.Engine{
		Git:        r.session.git,
		BaseURL:    r.session.cfg.BaseURL,
		MarkerFile: r.session.cfg.MarkerFile,
	}
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
