// Package state persists the snapshot of the most recent check run as a TOML
// file. The snapshot lets later invocations (and the watch mode) report what
// changed since the previous run without re-probing every working copy.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ComponentState records one component's outcome from the last check run.
type ComponentState struct {
	Target    string `toml:"target"`
	Path      string `toml:"path"`
	Expected  string `toml:"expected"`
	Actual    string `toml:"actual,omitempty"`
	Outcome   string `toml:"outcome"`
	Message   string `toml:"message,omitempty"`
	TagSource string `toml:"tag_source,omitempty"`
}

// State is the persisted snapshot of the last check run.
type State struct {
	Version      int                        `toml:"version"`
	ManifestPath string                     `toml:"manifest_path"`
	CheckedAt    time.Time                  `toml:"checked_at"`
	Components   map[string]*ComponentState `toml:"components"`
}

// Load reads the state file at path. Returns an empty state if the file does
// not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				Version:    1,
				Components: make(map[string]*ComponentState),
			}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state State
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if state.Components == nil {
		state.Components = make(map[string]*ComponentState)
	}
	return &state, nil
}

// Save writes the state file atomically (write temp + rename). Parent
// directories are created as needed.
func Save(path string, state *State) error {
	data, err := toml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming state file: %w", err)
	}
	return nil
}

// SetComponent updates or creates a component's snapshot entry.
func (s *State) SetComponent(module string, cs ComponentState) {
	if s.Components == nil {
		s.Components = make(map[string]*ComponentState)
	}
	entry := cs
	s.Components[module] = &entry
}

// Diff compares this snapshot against a previous one and returns the modules
// whose outcome changed, in no particular order. Modules absent from prev are
// reported as changed.
func (s *State) Diff(prev *State) []string {
	var changed []string
	for module, cur := range s.Components {
		old, ok := prev.Components[module]
		if !ok || old.Outcome != cur.Outcome || old.Actual != cur.Actual {
			changed = append(changed, module)
		}
	}
	return changed
}
