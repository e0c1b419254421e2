// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches one segment: `name` or `Type[n]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_-]+)(?:\[(\d+)\])?$`)

// invalidNameChars matches everything a segment name may not contain.
var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func usableName(name string) bool {
	return name != "-" && name != "_"
}

// Parse reads a canonical identity. Every identity is rooted, so the first
// segment must be the root name.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, fmt.Errorf("identity is empty")
	}
	parts := strings.Split(raw, ".")
	if parts[0] != RootName {
		return nil, fmt.Errorf("identity %q does not start with %q", raw, RootName)
	}

	addr := &Address{Segments: make([]Segment, 0, len(parts))}
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("identity %q has an empty segment", raw)
		}
		m := segmentRegex.FindStringSubmatch(part)
		if m == nil || !usableName(m[1]) {
			return nil, fmt.Errorf("identity %q has invalid segment %q", raw, part)
		}
		seg := Segment{Name: m[1], Index: -1}
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("identity %q: index %q: %w", raw, m[2], err)
			}
			seg.Index = n
		}
		addr.Segments = append(addr.Segments, seg)
	}
	return addr, nil
}

// ValidKey reports whether s can be used as a declared widget key.
func ValidKey(s string) bool {
	m := segmentRegex.FindStringSubmatch(s)
	return m != nil && m[2] == "" && usableName(s)
}

// Sanitize turns an arbitrary name (such as a file stem) into a valid
// segment name by replacing runs of disallowed characters with '_'.
func Sanitize(name string) string {
	s := invalidNameChars.ReplaceAllString(name, "_")
	if s == "" || !usableName(s) {
		return "module"
	}
	return s
}
