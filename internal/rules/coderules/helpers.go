package coderules

import (
	"regexp"
	"strings"
)

// isCommentLine reports whether line is wholly a comment for the given
// language (spec §4.3 "Skip comment lines for the detected language").
func isCommentLine(line, language string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	switch language {
	case "python":
		return strings.HasPrefix(trimmed, "#")
	case "javascript", "typescript", "go":
		return strings.HasPrefix(trimmed, "//")
	case "bash", "shell":
		return strings.HasPrefix(trimmed, "#")
	default:
		return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#")
	}
}

var testPathPattern = regexp.MustCompile(`(?i)(^|/)(tests?|__tests__|spec)(/|$)|_test\.\w+$|\.test\.\w+$|\.spec\.\w+$|^test_`)

// isTestFile dampens confidence for rules that fire in test code (spec
// §4.3 "dampeners for being in a test file path").
func isTestFile(path string) bool {
	return testPathPattern.MatchString(path)
}

func leadingWhitespace(s string) int {
	count := 0
	for _, r := range s {
		if r == ' ' || r == '\t' {
			count++
			continue
		}
		break
	}
	return count
}

// containsAnyPattern reports whether text contains any of the given
// case-insensitive substrings/patterns (compiled once by callers).
func containsAnyPattern(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
