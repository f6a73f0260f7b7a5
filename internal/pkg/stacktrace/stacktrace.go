// Package stacktrace trims goroutine stacks to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// under an internal/ directory in a debug.Stack() dump.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 {
			continue
		}

		loc, _, _ := strings.Cut(line[idx+1:], " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		paths = append(paths, loc)
	}

	return paths
}
