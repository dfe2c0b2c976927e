// pkg/dylib/parser.go
package dylib

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nativekit/nativekit/pkg/core"
)

// archMarker starts a new architecture section in otool output:
//
//	/usr/local/lib/libfoo.dylib (architecture x86_64):
const archMarker = " (architecture "

// depMarker identifies a dependency line in otool output:
//
//	\t/usr/lib/libz.1.dylib (compatibility version 1.0.0, current version 1.2.11)
const depMarker = " (compatibility version"

// ParseFileType extracts the architecture names from the single-line
// output of the describe-file-type tool (`file -b`). For a thin binary
// the final space-separated token is the architecture name; for a
// universal binary each bracketed `[arch:description]` group names one
// contained architecture. A line describing anything other than a
// Mach-O file yields nil, which callers surface as unparsable output.
func ParseFileType(line string) []string {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "Mach-O") {
		return nil
	}

	if strings.Contains(line, "universal binary with") && strings.Contains(line, "architectures:") {
		var names []string
		rest := line
		for {
			open := strings.Index(rest, "[")
			if open == -1 {
				break
			}
			rest = rest[open+1:]
			closing := strings.Index(rest, "]")
			if closing == -1 {
				break
			}
			group := rest[:closing]
			rest = rest[closing+1:]
			if colon := strings.Index(group, ":"); colon != -1 {
				group = group[:colon]
			}
			if group = strings.TrimSpace(group); group != "" {
				names = append(names, group)
			}
		}
		return names
	}

	fields := strings.Fields(line)
	return []string{fields[len(fields)-1]}
}

// DescribeFunc supplies the architecture of a thin binary when the
// dependency listing carries no architecture headers. It is consulted
// at most once, for the first dependency line.
type DescribeFunc func() (string, error)

// ParseDependencies parses the dependency-listing tool's output
// (`otool -L -arch all`) into a map of architecture name to the
// dependency paths of that architecture's slice.
//
// A dependency line seen before any architecture has been established,
// other than the documented first-line thin-binary case, is dropped;
// the drop is surfaced at debug severity.
func ParseDependencies(r io.Reader, describe DescribeFunc, rep core.Reporter) (map[string][]string, error) {
	if rep == nil {
		rep = core.DiscardReporter()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	deps := make(map[string][]string)
	currentArch := ""
	firstDepLine := true

	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "\t") {
			// Section header or the leading file-name line
			if idx := strings.Index(line, archMarker); idx != -1 {
				rest := line[idx+len(archMarker):]
				if end := strings.Index(rest, ")"); end != -1 {
					currentArch = strings.TrimSpace(rest[:end])
					if _, ok := deps[currentArch]; !ok {
						deps[currentArch] = nil
					}
				}
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		idx := strings.Index(trimmed, depMarker)
		if idx == -1 {
			continue
		}
		path := strings.TrimSpace(trimmed[:idx])

		if currentArch == "" {
			if !firstDepLine {
				rep.Debugf("dropping dependency line before architecture header: %s", path)
				continue
			}
			name, err := describe()
			if err != nil {
				return nil, err
			}
			currentArch = name
			if _, ok := deps[currentArch]; !ok {
				deps[currentArch] = nil
			}
		}
		firstDepLine = false

		deps[currentArch] = appendUnique(deps[currentArch], path)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning dependency output: %w", err)
	}

	return deps, nil
}

// appendUnique appends s to list unless already present
func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
