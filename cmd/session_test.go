package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/papapumpkin/pulsar/internal/state"
)

func TestChangedSinceLastRun(t *testing.T) {
	t.Parallel()
	statePath := filepath.Join(t.TempDir(), "state.toml")

	cur := &state.State{Version: 1, CheckedAt: time.Now().UTC(), Components: make(map[string]*state.ComponentState)}
	cur.SetComponent("CORE_TIMER", state.ComponentState{Outcome: "aligned", Actual: "V2"})
	cur.SetComponent("SHARED_RES", state.ComponentState{Outcome: "tag_mismatch", Actual: "V1"})

	t.Run("no previous snapshot yields nothing", func(t *testing.T) {
		if changed := changedSinceLastRun(statePath, cur); changed != nil {
			t.Errorf("changed = %v, want nil on first run", changed)
		}
	})

	prev := &state.State{Version: 1, Components: make(map[string]*state.ComponentState)}
	prev.SetComponent("CORE_TIMER", state.ComponentState{Outcome: "tag_mismatch", Actual: "V1"})
	prev.SetComponent("SHARED_RES", state.ComponentState{Outcome: "tag_mismatch", Actual: "V1"})
	if err := state.Save(statePath, prev); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Run("reports outcome drift against the previous run", func(t *testing.T) {
		changed := changedSinceLastRun(statePath, cur)
		if len(changed) != 1 || changed[0] != "CORE_TIMER" {
			t.Errorf("changed = %v, want [CORE_TIMER]", changed)
		}
	})

	t.Run("new components count as changed, sorted", func(t *testing.T) {
		cur.SetComponent("BOOT_LOADER", state.ComponentState{Outcome: "path_missing"})
		changed := changedSinceLastRun(statePath, cur)
		want := []string{"BOOT_LOADER", "CORE_TIMER"}
		if len(changed) != len(want) {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
		for i := range want {
			if changed[i] != want[i] {
				t.Errorf("changed[%d] = %q, want %q", i, changed[i], want[i])
			}
		}
	})
}

func TestCheckCommand_ExitCodeAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "components.cmake")
	content := `set(MODULES_app
    "ALPHA" "CASCO" "${CMAKE_CURRENT_LIST_DIR}/missing/Alpha" "V_01_00_00"
)
`
	if err := os.WriteFile(manifestPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(dir, "state.toml")
	viper.Reset()
	t.Setenv("PULSAR_STATE_FILE", statePath)
	t.Setenv("PULSAR_HISTORY_DB", filepath.Join(dir, "history.db"))

	exitCode = 0
	t.Cleanup(func() {
		exitCode = 0
		rootCmd.SetArgs(nil)
		viper.Reset()
	})

	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"check", manifestPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Misalignment is an exit-code condition, not a command error, so the
	// deferred session cleanup still runs before the process status is set.
	if exitCode != 1 {
		t.Errorf("exitCode = %d, want 1 for a misaligned component", exitCode)
	}

	snap, err := state.Load(statePath)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	cs, ok := snap.Components["ALPHA"]
	if !ok {
		t.Fatal("snapshot missing ALPHA")
	}
	if cs.Outcome != "path_missing" {
		t.Errorf("snapshot outcome = %q, want path_missing", cs.Outcome)
	}
}
