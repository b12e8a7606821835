// Package manifest parses CMake-style build manifests that declare component
// versions. A manifest declares one or more target groups, each an ordered
// list of (module, project key, path, tag) records, and may later append
// single records to an existing group by re-setting the group with a
// self-reference token.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Record is one declared component dependency. Records are immutable once
// parsed; a fresh parse produces a fresh set.
type Record struct {
	Module string // unique within a target group
	Key    string // organizational grouping, informational only
	Path   string // declared path, may contain unresolved placeholders
	Tag    string // the version the manifest asserts
}

// Manifest holds the fully flattened target groups in declaration order.
type Manifest struct {
	targets []string
	groups  map[string][]Record
}

// fieldsPerRecord is the number of quoted literals forming one record.
const fieldsPerRecord = 4

var (
	groupRe  = regexp.MustCompile(`(?s)set\(MODULES_(\w+)\s+(.*?)\s*\)`)
	appendRe = regexp.MustCompile(`set\(MODULES_(\w+)\s+"\$\{MODULES_\w+\}"\s+"([^"]*)"\s+"([^"]*)"\s+"([^"]*)"\s+"([^"]*)"\)`)
	quotedRe = regexp.MustCompile(`"([^"]*)"`)
)

// Load reads and parses the manifest at path. A missing or unreadable file is
// an error; a readable file with no recognizable declarations is not (the
// resulting Manifest is simply empty).
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse extracts target groups from manifest text. Group blocks contribute
// records in runs of four quoted literals; later single-line appends that
// embed a group self-reference contribute one record each, ordered after the
// block records of the same group. Groups that resolve to zero records are
// dropped.
func Parse(text string) *Manifest {
	m := &Manifest{groups: make(map[string][]Record)}

	for _, match := range groupRe.FindAllStringSubmatch(text, -1) {
		target, body := match[1], match[2]

		// A block whose body opens with a self-reference is an append
		// declaration; those are handled by the second pass.
		if strings.HasPrefix(strings.TrimSpace(body), `"${MODULES_`) {
			continue
		}

		var fields []string
		for _, line := range strings.Split(body, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if strings.Contains(line, `"${MODULES_`) {
				continue
			}
			for _, q := range quotedRe.FindAllStringSubmatch(line, -1) {
				fields = append(fields, q[1])
			}
			for len(fields) >= fieldsPerRecord {
				m.add(target, Record{
					Module: fields[0],
					Key:    fields[1],
					Path:   fields[2],
					Tag:    fields[3],
				})
				fields = fields[fieldsPerRecord:]
			}
		}
	}

	for _, match := range appendRe.FindAllStringSubmatch(text, -1) {
		m.add(match[1], Record{
			Module: match[2],
			Key:    match[3],
			Path:   match[4],
			Tag:    match[5],
		})
	}

	return m
}

// add appends a record to a group, registering the group on first use so
// target order follows first appearance in the manifest.
func (m *Manifest) add(target string, r Record) {
	if _, ok := m.groups[target]; !ok {
		m.targets = append(m.targets, target)
	}
	m.groups[target] = append(m.groups[target], r)
}

// Targets returns group names in declaration order.
func (m *Manifest) Targets() []string {
	out := make([]string, len(m.targets))
	copy(out, m.targets)
	return out
}

// Records returns the flattened record list for a target group, or nil if the
// group does not exist.
func (m *Manifest) Records(target string) []Record {
	return m.groups[target]
}

// Has reports whether the named target group exists.
func (m *Manifest) Has(target string) bool {
	_, ok := m.groups[target]
	return ok
}

// Len returns the total record count across all groups.
func (m *Manifest) Len() int {
	n := 0
	for _, recs := range m.groups {
		n += len(recs)
	}
	return n
}
