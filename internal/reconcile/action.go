// Package reconcile performs corrective actions against misaligned
// components: acquiring missing working copies, retagging existing ones, and
// reverting local changes. Actions are independent commands with a uniform
// result contract; one component's failure never aborts the batch.
package reconcile

import (
	"context"
	"strings"
)

// Action kinds.
const (
	KindAcquire = "acquire"
	KindRetag   = "retag"
	KindRevert  = "revert"
)

// Action is one corrective command bound to a single component.
type Action interface {
	// Kind identifies the corrective operation.
	Kind() string
	// Component returns the module name the action targets.
	Component() string
	// Execute performs the action, returning a human-readable message on
	// success. Execute must not mutate any other component.
	Execute(ctx context.Context) (message string, err error)
}

// GitActions is the slice of the git client the engine consumes. Defined
// here (where consumed) per project convention.
type GitActions interface {
	IsWorkTree(ctx context.Context, dir string) bool
	Clone(ctx context.Context, url, dest string) error
	Checkout(ctx context.Context, dir, rev string) error
	AddAll(ctx context.Context, dir string) error
	Commit(ctx context.Context, dir, message string) (ok bool, err error)
	DeleteTag(ctx context.Context, dir, tag string) error
	CreateTag(ctx context.Context, dir, tag string, force bool) error
	TagExists(ctx context.Context, dir, tag string) bool
	Unstage(ctx context.Context, dir string) error
	CheckoutAll(ctx context.Context, dir string) error
	ListUntracked(ctx context.Context, dir string) ([]string, error)
	RemoveUntracked(ctx context.Context, dir string) error
}

// NormalizeRepoName derives a repository identifier from a module name:
// lower-cased, with every character outside the alphanumeric/dot/dash/
// underscore set removed.
func NormalizeRepoName(module string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(module) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
