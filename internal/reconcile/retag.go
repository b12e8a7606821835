package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RetagAction forces a component's version markers to the declared tag: the
// marker file is rewritten unconditionally, and when the path is a git
// working copy the tag is recreated at a commit of the current local state.
type RetagAction struct {
	Git        GitActions
	MarkerFile string
	Module     string
	Path       string
	Tag        string
}

func (a *RetagAction) Kind() string      { return KindRetag }
func (a *RetagAction) Component() string { return a.Module }

// Execute writes the marker file first, then retags the working copy. A
// failure after the marker write does not roll it back; callers must re-run
// the check to observe the true resulting state.
func (a *RetagAction) Execute(ctx context.Context) (string, error) {
	marker := filepath.Join(a.Path, a.MarkerFile)
	if err := os.WriteFile(marker, []byte(a.Tag+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", marker, err)
	}

	if !a.Git.IsWorkTree(ctx, a.Path) {
		return fmt.Sprintf("wrote %s (not a git working copy, no tag created)", a.MarkerFile), nil
	}

	if err := a.Git.AddAll(ctx, a.Path); err != nil {
		return "", fmt.Errorf("stage changes (marker file already written): %w", err)
	}
	committed, err := a.Git.Commit(ctx, a.Path, fmt.Sprintf("Set version to %s", a.Tag))
	if err != nil {
		return "", fmt.Errorf("commit staged changes (marker file already written): %w", err)
	}
	if err := a.Git.DeleteTag(ctx, a.Path, a.Tag); err != nil {
		return "", fmt.Errorf("delete existing tag %s (marker file already written): %w", a.Tag, err)
	}
	if err := a.Git.CreateTag(ctx, a.Path, a.Tag, true); err != nil {
		return "", fmt.Errorf("create tag %s (marker file already written): %w", a.Tag, err)
	}
	if !a.Git.TagExists(ctx, a.Path, a.Tag) {
		return "", fmt.Errorf("tag %s not present after creation; re-run the check to see actual state", a.Tag)
	}

	msg := fmt.Sprintf("wrote %s and recreated tag %s", a.MarkerFile, a.Tag)
	if committed {
		msg += " at a new commit"
	}
	return msg, nil
}
