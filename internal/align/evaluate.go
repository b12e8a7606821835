package align

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/probe"
)

// Evaluate classifies one component given its declared record, resolved path,
// and probe facts. The decision order is fixed and first-match-wins; given
// identical inputs it always returns the same outcome.
func Evaluate(rec manifest.Record, path string, pr probe.Result) Outcome {
	if !pr.Exists {
		return Outcome{
			Kind:    PathMissing,
			Message: fmt.Sprintf("Path does not exist: %s", path),
		}
	}

	if pr.Tag != "" && pr.Tag != rec.Tag {
		return Outcome{
			Kind:    TagMismatch,
			Message: fmt.Sprintf("Tag mismatch: expected %s, got %s", rec.Tag, pr.Tag),
		}
	}

	if pr.IntegritySuspect {
		return Outcome{
			Kind:    TagIntegritySuspect,
			Message: fmt.Sprintf("Tag %s matches but is suspect: %s", rec.Tag, pr.IntegrityReason),
		}
	}

	if pr.CommitsAhead > 0 || pr.CommitsAheadUnknown {
		count := fmt.Sprintf("%d", pr.CommitsAhead)
		if pr.CommitsAheadUnknown {
			count = "unknown number of"
		}
		return Outcome{
			Kind:         CommitsAheadOfTag,
			CommitsAhead: pr.CommitsAhead,
			Message:      fmt.Sprintf("Tag is correct but there are %s commits after the tag", count),
		}
	}

	if pr.Modified {
		return Outcome{
			Kind:    UncommittedChanges,
			Message: "Tag is correct but there are uncommitted changes",
		}
	}

	if pr.Tag == "" {
		msg := fmt.Sprintf("Could not determine the actual tag for %s at %s", rec.Module, path)
		if len(pr.Diagnostics) > 0 {
			msg += " (" + strings.Join(pr.Diagnostics, "; ") + ")"
		}
		return Outcome{Kind: Undeterminable, Message: msg}
	}

	return Outcome{Kind: Aligned}
}
