// Package stacktrace shortens goroutine stacks to the frames that belong to
// this module, for panic logs.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// under an internal/ directory, in stack order.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, marker) {
			continue
		}

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		// drop the " +0x1f" program counter suffix
		if end := strings.IndexByte(line[idx:], ' '); end != -1 {
			line = line[:idx+end]
		}

		if i := strings.Index(line, marker); i != -1 {
			paths = append(paths, line[i+1:])
		}
	}

	return paths
}
