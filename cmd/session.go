package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/git"
	"github.com/papapumpkin/pulsar/internal/history"
	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/probe"
	"github.com/papapumpkin/pulsar/internal/state"
	"github.com/papapumpkin/pulsar/internal/telemetry"
	"github.com/papapumpkin/pulsar/internal/ui"
)

// session bundles the collaborators every subcommand needs: config, the git
// client, the prober/checker pipeline, and the optional telemetry emitter.
type session struct {
	cfg      config.Config
	git      *git.Client
	checker  *align.Checker
	printer  *ui.Printer
	emitter  *telemetry.Emitter
	manifest string

	// quiet suppresses per-component stderr output; the TUI renders results
	// itself.
	quiet bool

	// lastRunID is the history ID of the most recent persisted check run.
	lastRunID int64
}

// newSession loads config and wires the check pipeline for a manifest path.
func newSession(manifestPath string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := git.NewClient(cfg.GitPath, cfg.Verbose)
	prober := probe.NewProber(client, cfg.MarkerFile, cfg.MetadataFile, cfg.IntegrityTimeout())

	s := &session{
		cfg:      cfg,
		git:      client,
		printer:  ui.New(),
		manifest: manifestPath,
		checker: &align.Checker{
			Prober:       prober,
			ManifestPath: manifestPath,
		},
	}

	if cfg.TelemetryFile != "" {
		em, err := telemetry.NewEmitter(cfg.TelemetryFile)
		if err != nil {
			return nil, err
		}
		s.emitter = em
	}
	return s, nil
}

// close releases session resources.
func (s *session) close() {
	_ = s.emitter.Close()
}

// runCheck parses the manifest, checks the requested targets, and persists
// the run to the snapshot file and the history database.
func (s *session) runCheck(ctx context.Context, targets []string) (*align.Report, error) {
	m, err := manifest.Load(s.manifest)
	if err != nil {
		return nil, err
	}

	runID := time.Now().UTC().Format(time.RFC3339)
	_ = s.emitter.Emit(telemetry.Event{
		Timestamp: time.Now(), Kind: telemetry.KindRunStart, RunID: runID,
		Data: map[string]any{"manifest": s.manifest, "targets": targets},
	})

	s.checker.Progress = func(res align.ComponentResult) {
		if !s.quiet {
			s.printer.Component(res)
		}
		_ = s.emitter.Emit(telemetry.Event{
			Timestamp: time.Now(), Kind: telemetry.KindComponentChecked,
			RunID: runID, Component: res.Record.Module,
			Data: map[string]string{"outcome": res.Outcome.Kind.String()},
		})
	}

	report, err := s.checker.Run(ctx, m, targets)
	if err != nil {
		return nil, err
	}

	_ = s.emitter.Emit(telemetry.Event{
		Timestamp: time.Now(), Kind: telemetry.KindRunDone, RunID: runID,
		Data: map[string]int{"total": report.Total(), "misaligned": len(report.Misaligned())},
	})

	s.persistRun(ctx, report)
	return report, nil
}

// persistRun records the run in the snapshot file and history database. Both
// are best-effort; a persistence failure never fails the check itself.
func (s *session) persistRun(ctx context.Context, report *align.Report) {
	snap := &state.State{
		Version:      1,
		ManifestPath: s.manifest,
		CheckedAt:    time.Now().UTC(),
		Components:   make(map[string]*state.ComponentState),
	}
	for _, res := range report.Results {
		snap.SetComponent(res.Record.Module, state.ComponentState{
			Target:    res.Target,
			Path:      res.ResolvedPath,
			Expected:  res.Record.Tag,
			Actual:    res.Probe.Tag,
			Outcome:   res.Outcome.Kind.String(),
			Message:   res.Outcome.Message,
			TagSource: res.Probe.Source,
		})
	}
	if changed := changedSinceLastRun(s.cfg.StateFile, snap); len(changed) > 0 && !s.quiet {
		s.printer.Info(fmt.Sprintf("changed since last run: %s", strings.Join(changed, ", ")))
	}
	if err := state.Save(s.cfg.StateFile, snap); err != nil {
		s.printer.Info(fmt.Sprintf("could not save state snapshot: %v", err))
	}

	runID, err := s.recordHistory(ctx, report)
	if err != nil {
		s.printer.Info(fmt.Sprintf("could not record history: %v", err))
		return
	}
	s.lastRunID = runID
}

// changedSinceLastRun loads the previous snapshot and returns the modules
// whose outcome or detected tag differs from it, sorted. A missing or
// unreadable previous snapshot (including the very first run) yields nothing.
func changedSinceLastRun(statePath string, snap *state.State) []string {
	prev, err := state.Load(statePath)
	if err != nil || len(prev.Components) == 0 {
		return nil
	}
	changed := snap.Diff(prev)
	sort.Strings(changed)
	return changed
}

// recordHistory writes the run and its outcomes to the history database and
// returns the new run ID.
func (s *session) recordHistory(ctx context.Context, report *align.Report) (int64, error) {
	store, err := history.Open(ctx, s.cfg.HistoryDB)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	outcomes := make([]history.Outcome, 0, len(report.Results))
	for _, res := range report.Results {
		outcomes = append(outcomes, history.Outcome{
			Module:   res.Record.Module,
			Target:   res.Target,
			Path:     res.ResolvedPath,
			Expected: res.Record.Tag,
			Actual:   res.Probe.Tag,
			Outcome:  res.Outcome.Kind.String(),
			Message:  res.Outcome.Message,
		})
	}
	return store.RecordRun(ctx, history.Run{
		ManifestPath: s.manifest,
		Total:        report.Total(),
		Misaligned:   len(report.Misaligned()),
	}, outcomes)
}
