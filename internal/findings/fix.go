package findings

import (
	"sort"
	"strings"
)

// ApplyFixes applies a set of fixes to file content, honoring the ordering
// invariant: fixes are sorted by LineStart descending and applied in place
// so that an earlier (higher-numbered) replacement never shifts the line
// numbers a later (lower-numbered) fix depends on. Callers are responsible
// for ensuring fixes don't overlap; behavior with overlapping ranges is
// unspecified beyond "applied in the given descending order."
func ApplyFixes(content string, fixes []Fix) string {
	if len(fixes) == 0 {
		return content
	}

	ordered := make([]Fix, len(fixes))
	copy(ordered, fixes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineStart > ordered[j].LineStart
	})

	lines := strings.Split(content, "\n")
	for _, fix := range ordered {
		start := fix.LineStart - 1
		end := fix.LineEnd
		if start < 0 || start >= len(lines) || end > len(lines) || start >= end {
			continue
		}
		replacement := strings.Split(fix.NewText, "\n")
		merged := make([]string, 0, len(lines)-(end-start)+len(replacement))
		merged = append(merged, lines[:start]...)
		merged = append(merged, replacement...)
		merged = append(merged, lines[end:]...)
		lines = merged
	}

	return strings.Join(lines, "\n")
}
