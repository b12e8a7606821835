package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// detectGit is strategy 1: an exact-match tag on the checked-out commit. It
// also gathers dirty state, commits-ahead, and tag integrity evidence. Yields
// no definitive answer when the path is not a working copy or no single tag
// names HEAD.
func (p *Prober) detectGit(ctx context.Context, path string, res *Result) bool {
	if !p.Git.IsWorkTree(ctx, path) {
		return false
	}
	res.IsWorkTree = true

	tag, ok := p.Git.ExactTag(ctx, path)
	if !ok {
		return false
	}
	res.Tag = tag

	st, err := p.Git.Status(ctx, path)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("status check failed: %v", err))
	}
	res.Modified = st.Modified

	p.countAhead(ctx, path, tag, res)
	p.checkTagIntegrity(ctx, path, tag, res)
	return true
}

// countAhead compares the tag's commit with HEAD and counts the commits
// between them. A failed count degrades to CommitsAheadUnknown rather than
// failing the probe.
func (p *Prober) countAhead(ctx context.Context, path, tag string, res *Result) {
	tagCommit, err := p.Git.TagCommit(ctx, path, tag)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("resolve tag commit: %v", err))
		return
	}
	head, err := p.Git.Head(ctx, path)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("resolve HEAD: %v", err))
		return
	}
	if tagCommit == head {
		return
	}

	n, err := p.Git.CountCommits(ctx, path, tag, "HEAD")
	if err != nil {
		res.CommitsAheadUnknown = true
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("count commits after tag: %v", err))
		return
	}
	res.CommitsAhead = n
}

// checkTagIntegrity looks for evidence that the tag name was reassigned after
// creation. Primary signal: an annotated tag created earlier than the commit
// it points to. Fallback when timestamps are inconclusive: the version marker
// recorded inside the tagged tree disagrees with the tag name. Each
// subprocess call is bounded by IntegrityTimeout; a timeout means the check
// is inconclusive, never an error.
func (p *Prober) checkTagIntegrity(ctx context.Context, path, tag string, res *Result) {
	tctx, cancel := context.WithTimeout(ctx, p.IntegrityTimeout)
	defer cancel()

	meta, err := p.Git.InspectTag(tctx, path, tag)
	if err == nil && meta.Annotated && !meta.TaggedAt.IsZero() && !meta.CommitAt.IsZero() {
		if meta.TaggedAt.Before(meta.CommitAt) {
			res.IntegritySuspect = true
			res.IntegrityReason = fmt.Sprintf(
				"tag %s was created at %s, before the commit it points to (%s); the tag name was likely reassigned",
				tag, meta.TaggedAt.Format("2006-01-02 15:04:05"), meta.CommitAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	// Timestamps inconclusive (lightweight tag, missing data, or timeout):
	// fall back to the marker recorded inside the tagged content.
	sctx, cancel := context.WithTimeout(ctx, p.IntegrityTimeout)
	defer cancel()
	recorded, err := p.Git.ShowFileAtRev(sctx, path, tag, p.MarkerFile)
	if err != nil {
		return
	}
	recorded = strings.TrimSpace(recorded)
	if recorded != "" && recorded != tag {
		res.IntegritySuspect = true
		res.IntegrityReason = fmt.Sprintf(
			"version marker inside tag %s records %q instead of the tag name", tag, recorded)
	}
}

// detectMarker is strategy 2: a plain version-marker file whose trimmed
// content is the version string. A marker modified within the last hour is
// flagged as possible manual tampering.
func (p *Prober) detectMarker(_ context.Context, path string, res *Result) bool {
	markerPath := filepath.Join(path, p.MarkerFile)
	info, err := os.Stat(markerPath)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(markerPath)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("read %s: %v", p.MarkerFile, err))
		return false
	}
	tag := strings.TrimSpace(string(data))
	if tag == "" {
		return false
	}
	res.Tag = tag

	if p.now().Sub(info.ModTime()) < TamperWindow {
		res.IntegritySuspect = true
		res.IntegrityReason = fmt.Sprintf(
			"%s was modified at %s, within the last hour; possible manual tampering",
			p.MarkerFile, info.ModTime().Format("2006-01-02 15:04:05"))
	}
	return true
}

// detectMetadata is strategy 3: a structured metadata file with a version
// field. Read-only; this system never writes the metadata file.
func (p *Prober) detectMetadata(_ context.Context, path string, res *Result) bool {
	data, err := os.ReadFile(filepath.Join(path, p.MetadataFile))
	if err != nil {
		return false
	}
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("parse %s: %v", p.MetadataFile, err))
		return false
	}
	if meta.Version == "" {
		return false
	}
	res.Tag = meta.Version
	return true
}
