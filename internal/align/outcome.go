// Package align classifies the relationship between a component's declared
// version and its probed actual state, and aggregates classifications into a
// check report.
package align

// Kind is the closed set of alignment classifications. Exactly one Kind is
// assigned per component per check run.
type Kind int

const (
	Aligned            Kind = iota // declared and actual state match exactly
	PathMissing                    // resolved path does not exist
	TagMismatch                    // detected tag differs from declared
	TagIntegritySuspect            // tag matches but its identity is in doubt
	CommitsAheadOfTag              // tag matches but HEAD has moved past it
	UncommittedChanges             // tag matches but tracked files are modified
	Undeterminable                 // no strategy produced a version
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case Aligned:
		return "aligned"
	case PathMissing:
		return "path_missing"
	case TagMismatch:
		return "tag_mismatch"
	case TagIntegritySuspect:
		return "tag_integrity_suspect"
	case CommitsAheadOfTag:
		return "commits_ahead_of_tag"
	case UncommittedChanges:
		return "uncommitted_changes"
	case Undeterminable:
		return "undeterminable"
	default:
		return "unknown"
	}
}

// KindFromString maps a snake_case name back to its Kind. ok is false for
// unrecognized names.
func KindFromString(s string) (Kind, bool) {
	for k := Aligned; k <= Undeterminable; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return Aligned, false
}

// Outcome is one component's classification plus its diagnostic. Only
// Aligned is silent; every other kind carries a message embedding the
// expected and, when known, actual tag.
type Outcome struct {
	Kind         Kind
	CommitsAhead int    // set for CommitsAheadOfTag; 0 when the count failed
	Message      string // empty only for Aligned
}
