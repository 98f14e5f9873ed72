package jar

import (
	"strings"
)

const multiReleaseAttr = "Multi-Release"

// Manifest holds the main section attributes of a JAR manifest.
type Manifest struct {
	main map[string]string
}

// ParseManifest reads the main section of a manifest.
//
// Parsing is lenient: lines that are not "Name: value" headers are ignored,
// continuation lines (starting with a single space) extend the previous
// value, and the main section ends at the first blank line. Attribute names
// are case-insensitive.
func ParseManifest(b []byte) Manifest {
	m := Manifest{main: make(map[string]string)}
	var last string
	for _, line := range splitLines(string(b)) {
		if line == "" {
			break
		}
		if line[0] == ' ' {
			if last != "" {
				m.main[last] += line[1:]
			}
			continue
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok || name == "" {
			last = ""
			continue
		}
		last = strings.ToLower(name)
		m.main[last] = value
	}
	return m
}

// Value returns the main attribute called name.
func (m Manifest) Value(name string) (string, bool) {
	v, ok := m.main[strings.ToLower(name)]
	return v, ok
}

// IsMultiRelease reports whether the manifest declares a multi-release JAR.
func (m Manifest) IsMultiRelease() bool {
	v, _ := m.Value(multiReleaseAttr)
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// splitLines splits on CRLF, LF or CR.
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}
