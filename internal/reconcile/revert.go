package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// RevertAction discards a component's uncommitted changes. Untracked content
// is never deleted unless the caller explicitly opted in; the action always
// reports whether untracked content was left behind.
type RevertAction struct {
	Git    GitActions
	Module string
	Path   string

	// DeleteUntracked must be set from an explicit caller confirmation; it
	// is never the default.
	DeleteUntracked bool
}

func (a *RevertAction) Kind() string      { return KindRevert }
func (a *RevertAction) Component() string { return a.Module }

// Execute unstages everything, force-checkouts tracked paths, then handles
// untracked content according to DeleteUntracked.
func (a *RevertAction) Execute(ctx context.Context) (string, error) {
	if err := a.Git.Unstage(ctx, a.Path); err != nil {
		return "", fmt.Errorf("unstage: %w", err)
	}
	if err := a.Git.CheckoutAll(ctx, a.Path); err != nil {
		return "", fmt.Errorf("discard tracked changes: %w", err)
	}

	untracked, err := a.Git.ListUntracked(ctx, a.Path)
	if err != nil {
		return "", fmt.Errorf("list untracked files: %w", err)
	}
	if len(untracked) == 0 {
		return "reverted tracked changes; no untracked content", nil
	}

	if !a.DeleteUntracked {
		return fmt.Sprintf("reverted tracked changes; untracked content left behind: %s",
			strings.Join(untracked, ", ")), nil
	}
	if err := a.Git.RemoveUntracked(ctx, a.Path); err != nil {
		return "", fmt.Errorf("remove untracked files: %w", err)
	}
	return fmt.Sprintf("reverted tracked changes and removed %d untracked path(s)", len(untracked)), nil
}
