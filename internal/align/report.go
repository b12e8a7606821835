package align

import (
	"fmt"
	"os"
	"strings"
)

// Report aggregates every component result from one check run.
type Report struct {
	ManifestPath string
	Results      []ComponentResult
}

// Total returns the number of components checked.
func (r *Report) Total() int { return len(r.Results) }

// Misaligned returns the results whose outcome is anything but Aligned, in
// check order.
func (r *Report) Misaligned() []ComponentResult {
	var out []ComponentResult
	for _, res := range r.Results {
		if res.Outcome.Kind != Aligned {
			out = append(out, res)
		}
	}
	return out
}

// Percentage returns the misaligned share of all components, 0 for an empty
// report.
func (r *Report) Percentage() float64 {
	if len(r.Results) == 0 {
		return 0
	}
	return float64(len(r.Misaligned())) / float64(len(r.Results)) * 100
}

// Format renders the plain-text alignment report.
func (r *Report) Format() string {
	var b strings.Builder
	b.WriteString("=== Component Tag Alignment Report ===\n\n")
	fmt.Fprintf(&b, "Manifest file: %s\n", r.ManifestPath)
	fmt.Fprintf(&b, "Total components checked: %d\n", r.Total())

	misaligned := r.Misaligned()
	if len(misaligned) == 0 {
		b.WriteString("All components are aligned with their expected tags.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Misaligned components: %d (%.2f%%)\n\n", len(misaligned), r.Percentage())
	b.WriteString("Details of misaligned components:\n")
	for _, res := range misaligned {
		fmt.Fprintf(&b, "- %s (target: %s)\n", res.Record.Module, res.Target)
		fmt.Fprintf(&b, "  Path: %s\n", res.Record.Path)
		fmt.Fprintf(&b, "  Expected tag: %s\n", res.Record.Tag)
		if res.Probe.Tag != "" {
			fmt.Fprintf(&b, "  Actual tag: %s\n", res.Probe.Tag)
		}
		fmt.Fprintf(&b, "  Error: %s\n\n", res.Outcome.Message)
	}
	return b.String()
}

// WriteFile writes the formatted report to path.
func (r *Report) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(r.Format()), 0o644); err != nil {
		return fmt.Errorf("align: write report %s: %w", path, err)
	}
	return nil
}
