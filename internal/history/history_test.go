package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), ".pulsar", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	t.Parallel()
	openStore(t)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	outcomes := []Outcome{
		{Module: "CORE_TIMER", Target: "app", Path: "/p/core_timer",
			Expected: "V_01_02_00", Actual: "V_01_02_00", Outcome: "aligned"},
		{Module: "SHARED_RES", Target: "app", Path: "/p/shared_res",
			Expected: "V_02_00_00", Actual: "V_01_09_00", Outcome: "tag_mismatch",
			Message: "Tag mismatch: expected V_02_00_00, got V_01_09_00"},
	}
	runID, err := s.RecordRun(ctx,
		Run{ManifestPath: "/builds/components.cmake", Total: 2, Misaligned: 1}, outcomes)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("RecordRun returned zero ID")
	}

	got, err := s.OutcomesFor(ctx, runID)
	if err != nil {
		t.Fatalf("OutcomesFor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(got))
	}
	if got[0].Module != "CORE_TIMER" || got[1].Outcome != "tag_mismatch" {
		t.Errorf("outcomes out of order or mangled: %+v", got)
	}
	if got[1].Message == "" {
		t.Error("misaligned outcome should keep its message")
	}
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	for i := range 3 {
		if _, err := s.RecordRun(ctx, Run{ManifestPath: "/m", Total: i + 1}, nil); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("runs not newest-first: ids %d, %d", runs[0].ID, runs[1].ID)
	}
	if runs[0].StartedAt.IsZero() {
		t.Error("StartedAt should be populated")
	}
}

func TestRecordAction_AndQuery(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	runID, err := s.RecordRun(ctx, Run{ManifestPath: "/m", Total: 1, Misaligned: 1}, nil)
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	records := []ActionRecord{
		{RunID: runID, Module: "CORE_TIMER", Kind: "retag", Status: "succeeded",
			Message: "wrote VERSION and recreated tag V_01_02_00"},
		{RunID: runID, Module: "SHARED_RES", Kind: "acquire", Status: "failed",
			Message: "clone shared_res: repository not found"},
	}
	for _, a := range records {
		if err := s.RecordAction(ctx, a); err != nil {
			t.Fatalf("RecordAction: %v", err)
		}
	}

	got, err := s.ActionsFor(ctx, runID)
	if err != nil {
		t.Fatalf("ActionsFor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d actions, want 2", len(got))
	}
	if got[0].Kind != "retag" || got[1].Status != "failed" {
		t.Errorf("actions mangled: %+v", got)
	}
}

func TestLastRun(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.LastRun(ctx); !IsNoRuns(err) {
		t.Fatalf("LastRun on empty store: err = %v, want no-runs", err)
	}

	if _, err := s.RecordRun(ctx, Run{ManifestPath: "/m", Total: 4}, nil); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	run, err := s.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if run.Total != 4 {
		t.Errorf("LastRun.Total = %d, want 4", run.Total)
	}
}
