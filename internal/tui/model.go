// Package tui provides an interactive terminal view of a check run: a list of
// components with their alignment state, and key-driven dispatch of
// corrective actions on the selected rows.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/reconcile"
)

// Runner is the backend the TUI drives. It is implemented by the command
// layer; the model itself never touches git or the filesystem.
type Runner interface {
	Check(ctx context.Context) (*align.Report, error)
	Reconcile(ctx context.Context, actions []reconcile.Action) []reconcile.Result
	Plan(results []align.ComponentResult, deleteUntracked bool) []reconcile.Action
}

// Messages produced by the async commands.

// MsgCheckDone is sent when a check run finishes.
type MsgCheckDone struct {
	Report *align.Report
	Err    error
}

// MsgReconcileDone is sent when a reconciliation batch finishes.
type MsgReconcileDone struct {
	Results []reconcile.Result
}

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Reconcile key.Binding
	Revert    key.Binding
	Recheck   key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		Reconcile: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "reconcile selected"),
		),
		Revert: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reconcile + delete untracked"),
		),
		Recheck: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "re-check"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#636363")
	colorAccent  = lipgloss.Color("#FFD700")
)

var (
	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleAligned  = lipgloss.NewStyle().Foreground(colorSuccess)
	styleDrifted  = lipgloss.NewStyle().Foreground(colorDanger)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleSelected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

// Selection indicator prepended to the active row.
const selectionIndicator = "▎"

// phase is the model's top-level mode.
type phase int

const (
	phaseChecking phase = iota
	phaseBrowsing
	phaseReconciling
)

// Model is the root bubbletea model.
type Model struct {
	runner Runner
	keys   KeyMap
	spin   spinner.Model

	phase   phase
	report  *align.Report
	cursor  int
	chosen  map[int]bool
	results []reconcile.Result
	err     error
	width   int
}

// NewModel creates the root model around a backend runner.
func NewModel(r Runner) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)
	return Model{
		runner: r,
		keys:   DefaultKeyMap(),
		spin:   sp,
		phase:  phaseChecking,
		chosen: make(map[int]bool),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.checkCmd())
}

func (m Model) checkCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.runner.Check(context.Background())
		return MsgCheckDone{Report: report, Err: err}
	}
}

func (m Model) reconcileCmd(deleteUntracked bool) tea.Cmd {
	rows := m.selectedResults()
	return func() tea.Msg {
		actions := m.runner.Plan(rows, deleteUntracked)
		return MsgReconcileDone{Results: m.runner.Reconcile(context.Background(), actions)}
	}
}

// selectedResults returns the chosen misaligned rows, or every misaligned row
// when nothing is chosen.
func (m Model) selectedResults() []align.ComponentResult {
	if m.report == nil {
		return nil
	}
	misaligned := m.report.Misaligned()
	var rows []align.ComponentResult
	for i, res := range misaligned {
		if m.chosen[i] {
			rows = append(rows, res)
		}
	}
	if len(rows) == 0 {
		return misaligned
	}
	return rows
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case MsgCheckDone:
		m.phase = phaseBrowsing
		m.report = msg.Report
		m.err = msg.Err
		m.cursor = 0
		m.chosen = make(map[int]bool)
		m.results = nil
		return m, nil

	case MsgReconcileDone:
		m.results = msg.Results
		// Show the true resulting state, not the action's claim.
		m.phase = phaseChecking
		return m, m.checkCmd()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.phase != phaseBrowsing || m.report == nil {
		return m, nil
	}

	misaligned := m.report.Misaligned()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(misaligned)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if len(misaligned) > 0 {
			m.chosen[m.cursor] = !m.chosen[m.cursor]
		}
	case key.Matches(msg, m.keys.Recheck):
		m.phase = phaseChecking
		return m, m.checkCmd()
	case key.Matches(msg, m.keys.Reconcile):
		if len(misaligned) > 0 {
			m.phase = phaseReconciling
			return m, m.reconcileCmd(false)
		}
	case key.Matches(msg, m.keys.Revert):
		if len(misaligned) > 0 {
			m.phase = phaseReconciling
			return m, m.reconcileCmd(true)
		}
	}
	return m, nil
}
