package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/reconcile"
)

// fakeRunner scripts the backend for model tests.
type fakeRunner struct {
	report     *align.Report
	checkErr   error
	checks     int
	reconciles int
	planned    []align.ComponentResult
	deleteUT   bool
}

func (f *fakeRunner) Check(context.Context) (*align.Report, error) {
	f.checks++
	return f.report, f.checkErr
}

func (f *fakeRunner) Plan(results []align.ComponentResult, deleteUntracked bool) []reconcile.Action {
	f.planned = results
	f.deleteUT = deleteUntracked
	return nil
}

func (f *fakeRunner) Reconcile(_ context.Context, actions []reconcile.Action) []reconcile.Result {
	f.reconciles++
	return []reconcile.Result{{Component: "CORE_TIMER", Kind: "retag", Status: reconcile.Succeeded, Message: "ok"}}
}

func sampleReport() *align.Report {
	return &align.Report{
		ManifestPath: "/m/components.cmake",
		Results: []align.ComponentResult{
			{Record: manifest.Record{Module: "OK", Tag: "V1"}, Outcome: align.Outcome{Kind: align.Aligned}},
			{Record: manifest.Record{Module: "CORE_TIMER", Tag: "V2"},
				Outcome: align.Outcome{Kind: align.TagMismatch, Message: "Tag mismatch: expected V2, got V1"}},
			{Record: manifest.Record{Module: "SHARED_RES", Tag: "V3"},
				Outcome: align.Outcome{Kind: align.UncommittedChanges, Message: "Tag is correct but there are uncommitted changes"}},
		},
	}
}

func checkedModel(t *testing.T, f *fakeRunner) Model {
	t.Helper()
	m := NewModel(f)
	next, _ := m.Update(MsgCheckDone{Report: f.report, Err: f.checkErr})
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func TestModel_CheckDoneEntersBrowsing(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	if m.phase != phaseBrowsing {
		t.Errorf("phase = %d, want browsing", m.phase)
	}
	view := m.View()
	if !strings.Contains(view, "CORE_TIMER") || !strings.Contains(view, "SHARED_RES") {
		t.Errorf("view should list misaligned components:\n%s", view)
	}
	if !strings.Contains(view, "1 aligned") || !strings.Contains(view, "2 misaligned") {
		t.Errorf("view should summarize counts:\n%s", view)
	}
}

func TestModel_CursorAndSelection(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	// Cursor clamps at the last misaligned row.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.cursor != 1 {
		t.Errorf("cursor past end = %d, want 1", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	if !m.chosen[1] {
		t.Error("space should select the row under the cursor")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	if m.chosen[1] {
		t.Error("space should toggle selection off")
	}
}

func TestModel_ReconcileSelectedOnly(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace}) // select row 0
	m = next.(Model)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = next.(Model)

	if m.phase != phaseReconciling {
		t.Errorf("phase = %d, want reconciling", m.phase)
	}
	if cmd == nil {
		t.Fatal("reconcile key should produce a command")
	}
	cmd() // runs Plan + Reconcile against the fake

	if len(f.planned) != 1 || f.planned[0].Record.Module != "CORE_TIMER" {
		t.Errorf("planned rows = %+v, want only CORE_TIMER", f.planned)
	}
	if f.deleteUT {
		t.Error("plain reconcile must not delete untracked files")
	}
}

func TestModel_ReconcileAllWhenNothingSelected(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if cmd == nil {
		t.Fatal("reconcile key should produce a command")
	}
	cmd()
	if len(f.planned) != 2 {
		t.Errorf("planned %d rows, want all 2 misaligned", len(f.planned))
	}
}

func TestModel_RevertKeyOptsIntoDeletion(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'R'}})
	if cmd == nil {
		t.Fatal("revert key should produce a command")
	}
	cmd()
	if !f.deleteUT {
		t.Error("R must plan with untracked deletion enabled")
	}
}

func TestModel_ReconcileDoneTriggersRecheck(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{report: sampleReport()}
	m := checkedModel(t, f)

	next, cmd := m.Update(MsgReconcileDone{Results: []reconcile.Result{
		{Component: "CORE_TIMER", Kind: "retag", Status: reconcile.Succeeded},
	}})
	m = next.(Model)
	if m.phase != phaseChecking {
		t.Errorf("phase = %d, want checking after reconcile", m.phase)
	}
	if cmd == nil {
		t.Fatal("reconcile completion must schedule a re-check")
	}
	if msg := cmd(); msg == nil {
		t.Fatal("re-check command returned nil msg")
	}
	if f.checks != 1 {
		t.Errorf("checks = %d, want 1", f.checks)
	}
}

func TestModel_CheckErrorIsShown(t *testing.T) {
	t.Parallel()
	f := &fakeRunner{checkErr: contextErr{}}
	m := NewModel(f)
	next, _ := m.Update(MsgCheckDone{Err: f.checkErr})
	m = next.(Model)

	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view should surface the check error:\n%s", m.View())
	}
}

type contextErr struct{}

func (contextErr) Error() string { return "boom" }
