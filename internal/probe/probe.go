// Package probe determines the actual version of a component working copy
// through an ordered chain of detection strategies: git exact-match tag,
// authoritative version-marker file, then structured metadata file. A probe
// never fails; every degraded path is folded into the Result as a diagnostic.
package probe

import (
	"context"
	"os"
	"time"

	"github.com/papapumpkin/pulsar/internal/git"
)

// Tag sources, in chain priority order.
const (
	SourceGitTag   = "git tag"
	SourceMarker   = "marker file"
	SourceMetadata = "metadata file"
)

// Result holds the facts gathered about one component path at probe time.
// Results are recomputed fresh on every check run and never cached.
type Result struct {
	Exists     bool
	IsWorkTree bool

	Tag    string // detected version, empty when undeterminable
	Source string // which strategy produced Tag

	Modified bool // tracked or staged deltas; untracked files do not count

	CommitsAhead        int  // commits between the matching tag and HEAD
	CommitsAheadUnknown bool // counting failed; treat as "unknown number of"

	IntegritySuspect bool
	IntegrityReason  string

	Diagnostics []string // degraded-path notes, consumed by the evaluator
}

// GitProber is the slice of the git client the probe consumes. Defined here
// (where consumed) per project convention.
type GitProber interface {
	IsWorkTree(ctx context.Context, dir string) bool
	ExactTag(ctx context.Context, dir string) (tag string, ok bool)
	TagCommit(ctx context.Context, dir, tag string) (string, error)
	Head(ctx context.Context, dir string) (string, error)
	Status(ctx context.Context, dir string) (git.WorkTreeStatus, error)
	CountCommits(ctx context.Context, dir, from, to string) (int, error)
	InspectTag(ctx context.Context, dir, tag string) (git.TagMeta, error)
	ShowFileAtRev(ctx context.Context, dir, rev, path string) (string, error)
}

// Detector is one named strategy in the detection chain. Fn fills res and
// reports whether it produced a definitive tag; a false return falls through
// to the next detector.
type Detector struct {
	Name string
	Fn   func(ctx context.Context, path string, res *Result) bool
}

// Prober runs the detection chain against component paths.
type Prober struct {
	Git              GitProber
	MarkerFile       string        // e.g. VERSION
	MetadataFile     string        // e.g. manifest.json
	IntegrityTimeout time.Duration // per-subprocess bound for the integrity sub-check

	chain []Detector
	now   func() time.Time // injectable for the marker mtime heuristic
}

// TamperWindow is how recently a marker file may have been modified before
// its content is treated with suspicion.
const TamperWindow = time.Hour

// DefaultIntegrityTimeout bounds each subprocess call of the tag-integrity
// sub-check.
const DefaultIntegrityTimeout = time.Second

// NewProber builds a Prober with the standard detector chain.
func NewProber(g GitProber, markerFile, metadataFile string, integrityTimeout time.Duration) *Prober {
	if integrityTimeout <= 0 {
		integrityTimeout = DefaultIntegrityTimeout
	}
	p := &Prober{
		Git:              g,
		MarkerFile:       markerFile,
		MetadataFile:     metadataFile,
		IntegrityTimeout: integrityTimeout,
		now:              time.Now,
	}
	p.chain = []Detector{
		{Name: SourceGitTag, Fn: p.detectGit},
		{Name: SourceMarker, Fn: p.detectMarker},
		{Name: SourceMetadata, Fn: p.detectMetadata},
	}
	return p
}

// Probe gathers facts about path. It never returns an error: a missing path
// yields Exists=false, and strategy failures degrade into diagnostics with
// the chain falling through to the next detector.
func (p *Prober) Probe(ctx context.Context, path string) Result {
	var res Result

	if _, err := os.Stat(path); err != nil {
		return res
	}
	res.Exists = true

	for _, d := range p.chain {
		if d.Fn(ctx, path, &res) {
			res.Source = d.Name
			return res
		}
	}
	return res
}
