package align

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/probe"
)

// ComponentResult is the structured record produced for every component in a
// check run; presentation layers consume these verbatim.
type ComponentResult struct {
	Target       string
	Record       manifest.Record
	ResolvedPath string
	Probe        probe.Result
	Outcome      Outcome
}

// ErrUnknownTarget is returned when a requested target group does not exist
// in the manifest.
type ErrUnknownTarget struct {
	Target    string
	Available []string
}

func (e *ErrUnknownTarget) Error() string {
	return fmt.Sprintf("align: target %q not found in manifest (available: %v)", e.Target, e.Available)
}

// Checker drives the check pipeline: resolve each declared path, probe it,
// and classify the result. Components are processed sequentially; the
// dominant cost is subprocess invocation.
type Checker struct {
	Prober       *probe.Prober
	ManifestPath string

	// Progress, when set, is called after each component is classified.
	Progress func(ComponentResult)
}

// Run checks the given targets (all targets when the list is empty) and
// aggregates a Report. Per-component failures degrade into outcomes; the only
// error is a request for a target the manifest does not declare.
func (c *Checker) Run(ctx context.Context, m *manifest.Manifest, targets []string) (*Report, error) {
	if len(targets) == 0 {
		targets = m.Targets()
	} else {
		for _, tgt := range targets {
			if !m.Has(tgt) {
				return nil, &ErrUnknownTarget{Target: tgt, Available: m.Targets()}
			}
		}
	}

	manifestDir, err := filepath.Abs(filepath.Dir(c.ManifestPath))
	if err != nil {
		return nil, fmt.Errorf("align: resolve manifest dir: %w", err)
	}

	report := &Report{ManifestPath: c.ManifestPath}
	for _, tgt := range targets {
		for _, rec := range m.Records(tgt) {
			path := manifest.ResolvePath(rec.Path, manifestDir)
			pr := c.Prober.Probe(ctx, path)
			res := ComponentResult{
				Target:       tgt,
				Record:       rec,
				ResolvedPath: path,
				Probe:        pr,
				Outcome:      Evaluate(rec, path, pr),
			}
			report.Results = append(report.Results, res)
			if c.Progress != nil {
				c.Progress(res)
			}
		}
	}
	return report, nil
}
