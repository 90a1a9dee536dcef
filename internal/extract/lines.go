package extract

import "strings"

// SplitLines turns a raw text dump into trimmed lines. Empty lines are
// kept: the lookahead rules skip them, so their positions matter.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// lookahead is a read-only forward view over the line sequence, anchored
// just past the line currently being matched.
type lookahead struct {
	lines []string
	pos   int // index of the first line visible to the view
}

// next returns the first non-empty line within maxLook steps, or "".
func (l lookahead) next(maxLook int) string {
	k := l.pos
	for steps := 0; k < len(l.lines) && steps < maxLook; steps++ {
		if v := l.lines[k]; v != "" {
			return v
		}
		k++
	}
	return ""
}
