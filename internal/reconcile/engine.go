package reconcile

import (
	"context"
	"fmt"

	"github.com/papapumpkin/pulsar/internal/align"
)

// Status is a component's position in the batch state machine. Succeeded and
// Failed are terminal; the engine never retries on its own.
type Status int

const (
	Pending Status = iota
	InProgress
	Succeeded
	Failed
)

// String returns the snake_case name of the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is one component's outcome within a reconciliation batch.
type Result struct {
	Component string
	Kind      string
	Status    Status
	Message   string
}

// Engine executes reconciliation batches sequentially with per-component
// failure isolation.
type Engine struct {
	Git        GitActions
	BaseURL    string
	MarkerFile string

	// Progress, when set, is called on every status transition.
	Progress func(Result)
}

// Run executes each action in order. A failing or panicking action marks its
// own component Failed and the batch continues; the returned slice holds one
// terminal result per action in input order.
func (e *Engine) Run(ctx context.Context, actions []Action) []Result {
	results := make([]Result, len(actions))
	for i, a := range actions {
		results[i] = Result{Component: a.Component(), Kind: a.Kind(), Status: Pending}
	}

	for i, a := range actions {
		results[i].Status = InProgress
		e.report(results[i])

		msg, err := e.execute(ctx, a)
		if err != nil {
			results[i].Status = Failed
			results[i].Message = err.Error()
		} else {
			results[i].Status = Succeeded
			results[i].Message = msg
		}
		e.report(results[i])
	}
	return results
}

// execute runs one action behind a panic boundary so a defective action
// implementation degrades to a component-scoped failure.
func (e *Engine) execute(ctx context.Context, a Action) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconcile: %s %s panicked: %v", a.Kind(), a.Component(), r)
		}
	}()
	return a.Execute(ctx)
}

func (e *Engine) report(r Result) {
	if e.Progress != nil {
		e.Progress(r)
	}
}

// Plan derives the default corrective action for each misaligned component
// result: missing paths are acquired, dirty trees reverted, and everything
// else retagged. Aligned components yield no action.
func (e *Engine) Plan(results []align.ComponentResult, deleteUntracked bool) []Action {
	var actions []Action
	for _, res := range results {
		switch res.Outcome.Kind {
		case align.Aligned:
			continue
		case align.PathMissing:
			actions = append(actions, &AcquireAction{
				Git:     e.Git,
				BaseURL: e.BaseURL,
				Module:  res.Record.Module,
				Path:    res.ResolvedPath,
				Tag:     res.Record.Tag,
			})
		case align.UncommittedChanges:
			actions = append(actions, &RevertAction{
				Git:             e.Git,
				Module:          res.Record.Module,
				Path:            res.ResolvedPath,
				DeleteUntracked: deleteUntracked,
			})
		default:
			actions = append(actions, &RetagAction{
				Git:        e.Git,
				MarkerFile: e.MarkerFile,
				Module:     res.Record.Module,
				Path:       res.ResolvedPath,
				Tag:        res.Record.Tag,
			})
		}
	}
	return actions
}

// Tally summarizes a finished batch.
func Tally(results []Result) (succeeded, failed int) {
	for _, r := range results {
		switch r.Status {
		case Succeeded:
			succeeded++
		case Failed:
			failed++
		}
	}
	return succeeded, failed
}
