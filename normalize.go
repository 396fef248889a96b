package markify

import (
	"regexp"
	"strings"
)

var (
	reNewline          = regexp.MustCompile(`\r?\n`)
	reMultipleNewlines = regexp.MustCompile(`\n{3,}`)
)

// normalizeOutput post-processes the winning converter's text:
// right-trim every line, rejoin with \n, then collapse runs of three or more
// newlines down to a single blank line. Idempotent.
func normalizeOutput(s string) string {
	lines := reNewline.Split(s, -1)
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\v\f")
	}
	s = strings.Join(lines, "\n")
	return reMultipleNewlines.ReplaceAllString(s, "\n\n")
}
