package ui

import (
	"fmt"
	"os"

	"github.com/papapumpkin/pulsar/internal/align"
	"github.com/papapumpkin/pulsar/internal/reconcile"
)

// ANSI color codes.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	blue    = "\033[34m"
	yellow  = "\033[33m"
	green   = "\033[32m"
	red     = "\033[31m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) CheckStart(manifest string, targets []string) {
	if len(targets) == 0 {
		fmt.Fprintf(os.Stderr, bold+cyan+"◆ checking"+reset+" %s "+dim+"(all targets)"+reset+"\n", manifest)
		return
	}
	fmt.Fprintf(os.Stderr, bold+cyan+"◆ checking"+reset+" %s "+dim+"(targets: %v)"+reset+"\n", manifest, targets)
}

func (p *Printer) Component(res align.ComponentResult) {
	if res.Outcome.Kind == align.Aligned {
		fmt.Fprintf(os.Stderr, green+"✓"+reset+" %s "+dim+"(%s)"+reset+"\n", res.Record.Module, res.Record.Tag)
		return
	}
	fmt.Fprintf(os.Stderr, red+"✗"+reset+" %s — %s\n", res.Record.Module, res.Outcome.Message)
}

func (p *Printer) CheckSummary(rep *align.Report) {
	misaligned := len(rep.Misaligned())
	if misaligned == 0 {
		fmt.Fprintf(os.Stderr, green+bold+"✓ all %d component(s) aligned"+reset+"\n", rep.Total())
		return
	}
	fmt.Fprintf(os.Stderr, yellow+bold+"⚠ %d of %d component(s) misaligned (%.1f%%)"+reset+"\n",
		misaligned, rep.Total(), rep.Percentage())
}

func (p *Printer) ReconcileStart(count int) {
	fmt.Fprintf(os.Stderr, "\n"+bold+magenta+"── reconciling %d component(s) ──"+reset+"\n", count)
}

func (p *Printer) Action(r reconcile.Result) {
	switch r.Status {
	case reconcile.InProgress:
		fmt.Fprintf(os.Stderr, blue+bold+"▶ %s"+reset+" %s"+dim+" ..."+reset+"\n", r.Kind, r.Component)
	case reconcile.Succeeded:
		fmt.Fprintf(os.Stderr, green+"✓ %s"+reset+" %s "+dim+"— %s"+reset+"\n", r.Kind, r.Component, r.Message)
	case reconcile.Failed:
		fmt.Fprintf(os.Stderr, red+"✗ %s"+reset+" %s — %s\n", r.Kind, r.Component, r.Message)
	}
}

func (p *Printer) ReconcileSummary(succeeded, failed int) {
	if failed == 0 {
		fmt.Fprintf(os.Stderr, green+bold+"✓ %d action(s) succeeded"+reset+"\n", succeeded)
		return
	}
	fmt.Fprintf(os.Stderr, yellow+bold+"⚠ %d succeeded, %d failed"+reset+" — re-run the check to see actual state\n",
		succeeded, failed)
}

func (p *Printer) Targets(targets []string, counts map[string]int) {
	fmt.Fprintln(os.Stderr, bold+"Targets:"+reset)
	for _, tgt := range targets {
		fmt.Fprintf(os.Stderr, "  %s "+dim+"(%d component(s))"+reset+"\n", tgt, counts[tgt])
	}
}

func (p *Printer) WatchStart(manifest string) {
	fmt.Fprintf(os.Stderr, bold+cyan+"◆ watching"+reset+" %s "+dim+"(ctrl-c to stop)"+reset+"\n", manifest)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, red+bold+"error: "+reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, dim+"%s"+reset+"\n", msg)
}
