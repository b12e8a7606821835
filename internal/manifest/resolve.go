package manifest

import "strings"

// DirToken is the placeholder a manifest uses for its own directory.
const DirToken = "${CMAKE_CURRENT_LIST_DIR}"

// ResolvePath substitutes the manifest-directory placeholder in a declared
// path with manifestDir. Other ${...} tokens are deliberately left in place;
// they surface later as a failed existence check rather than a resolver
// error. Pure string work, no I/O.
func ResolvePath(declared, manifestDir string) string {
	return strings.ReplaceAll(declared, DirToken, manifestDir)
}
