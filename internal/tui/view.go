package tui

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/reconcile"
)

func (m Model) View() string {
	var b strings.Builder

	switch m.phase {
	case phaseChecking:
		fmt.Fprintf(&b, "%s %s\n", m.spin.View(), styleMuted.Render("checking components..."))
		return b.String()
	case phaseReconciling:
		fmt.Fprintf(&b, "%s %s\n", m.spin.View(), styleMuted.Render("reconciling..."))
		return b.String()
	}

	if m.err != nil {
		fmt.Fprintf(&b, "%s %s\n\n", styleDrifted.Render("✗"), m.err.Error())
		b.WriteString(m.footer())
		return b.String()
	}
	if m.report == nil {
		return styleMuted.Render("no report") + "\n"
	}

	b.WriteString(styleTitle.Render("pulsar — component alignment"))
	b.WriteString("\n\n")

	misaligned := m.report.Misaligned()
	aligned := m.report.Total() - len(misaligned)
	fmt.Fprintf(&b, "%s  %s\n\n",
		styleAligned.Render(fmt.Sprintf("✓ %d aligned", aligned)),
		styleDrifted.Render(fmt.Sprintf("✗ %d misaligned", len(misaligned))))

	if len(misaligned) == 0 {
		b.WriteString(styleAligned.Render("All components are aligned with their expected tags."))
		b.WriteString("\n\n")
		b.WriteString(m.footer())
		return b.String()
	}

	for i, res := range misaligned {
		b.WriteString(m.renderRow(i, res))
	}

	if len(m.results) > 0 {
		b.WriteString("\n")
		b.WriteString(styleTitle.Render("last reconciliation"))
		b.WriteString("\n")
		for _, r := range m.results {
			icon := styleAligned.Render("✓")
			if r.Status == reconcile.Failed {
				icon = styleDrifted.Render("✗")
			}
			fmt.Fprintf(&b, "  %s %s %s %s\n", icon, r.Kind, r.Component, styleMuted.Render(r.Message))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) renderRow(i int, res align.ComponentResult) string {
	indicator := " "
	if i == m.cursor {
		indicator = selectionIndicator
	}
	mark := "[ ]"
	if m.chosen[i] {
		mark = styleSelected.Render("[x]")
	}
	line := fmt.Sprintf("%s %s %-24s %-20s %s",
		indicator, mark, res.Record.Module, res.Outcome.Kind, res.Outcome.Message)
	if i == m.cursor {
		return styleSelected.Render(line) + "\n"
	}
	return line + "\n"
}

func (m Model) footer() string {
	return styleMuted.Render("space select · a reconcile · R reconcile+delete untracked · c re-check · q quit")
}
