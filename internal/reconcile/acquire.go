package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AcquireAction clones a missing component at its declared tag. The source
// address is the base URL joined with the normalized module name.
type AcquireAction struct {
	Git     GitActions
	BaseURL string
	Module  string
	Path    string // resolved destination
	Tag     string
}

func (a *AcquireAction) Kind() string      { return KindAcquire }
func (a *AcquireAction) Component() string { return a.Module }

// Execute creates missing parent directories, clones, and checks out the
// declared tag. Directory, clone, and checkout failures are distinguished in
// the returned error.
func (a *AcquireAction) Execute(ctx context.Context) (string, error) {
	url := strings.TrimSuffix(a.BaseURL, "/") + "/" + NormalizeRepoName(a.Module)

	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return "", fmt.Errorf("create parent directory for %s: %w", a.Path, err)
	}
	if err := a.Git.Clone(ctx, url, a.Path); err != nil {
		return "", fmt.Errorf("clone %s: %w", url, err)
	}
	if err := a.Git.Checkout(ctx, a.Path, a.Tag); err != nil {
		return "", fmt.Errorf("checkout tag %s after clone: %w", a.Tag, err)
	}
	return fmt.Sprintf("cloned %s and checked out %s", url, a.Tag), nil
}
