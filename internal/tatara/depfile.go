package tatara

import (
	"os"
	"strings"
)

// parseDepFile reads a make-style dependency record as emitted by the
// compiler's -MMD -MP output and returns the prerequisite paths. Phony
// targets added by -MP contribute nothing. Backslash continuations and
// escaped spaces in paths are handled.
func parseDepFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := strings.ReplaceAll(string(data), "\\\r\n", " ")
	content = strings.ReplaceAll(content, "\\\n", " ")

	var deps []string
	for _, line := range strings.Split(content, "\n") {
		// Drop the "target:" part; a phony rule has nothing after it.
		if idx := strings.Index(line, ":"); idx >= 0 {
			line = line[idx+1:]
		}
		deps = append(deps, splitDepTokens(line)...)
	}
	return deps, nil
}

// splitDepTokens splits on whitespace while honoring "\ " escapes.
func splitDepTokens(s string) []string {
	var tokens []string
	var cur strings.Builder

	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ' ' || r == '\t':
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
