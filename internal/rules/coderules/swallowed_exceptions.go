package coderules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
)

// exceptionPattern is one language-specific textual signature of a
// swallowed-exception block, with its base confidence.
type exceptionPattern struct {
	re          *regexp.Regexp
	description string
	confidence  float64
}

var exceptionPatternsByLanguage = map[string][]exceptionPattern{
	"python": {
		{regexp.MustCompile(`except\s*:\s*pass\s*$`), "Bare except clause with pass - exception silently ignored", 0.95},
		{regexp.MustCompile(`except\s+\w+\s*:\s*pass\s*$`), "Exception caught and silently ignored with pass", 0.90},
		{regexp.MustCompile(`except\s+\w+\s+as\s+\w+\s*:\s*pass\s*$`), "Exception caught with alias but silently ignored", 0.90},
		{regexp.MustCompile(`except\s*:\s*\.\.\.\s*$`), "Exception block with ellipsis - likely placeholder", 0.80},
		{regexp.MustCompile(`except\s+\w+\s*:\s*\.\.\.\s*$`), "Exception caught with ellipsis - likely placeholder", 0.75},
		{regexp.MustCompile(`except.*:\s*$`), "Empty exception handler - check block contents", 0.50},
	},
	"javascript": {
		{regexp.MustCompile(`catch\s*\(\s*\w*\s*\)\s*\{\s*\}`), "Empty catch block - exception silently ignored", 0.95},
		{regexp.MustCompile(`catch\s*\{\s*\}`), "Empty catch block without binding", 0.95},
		{regexp.MustCompile(`\.catch\s*\(\s*\(\s*\)\s*=>\s*\{\s*\}\s*\)`), "Empty promise catch handler", 0.90},
		{regexp.MustCompile(`\.catch\s*\(\s*\(\s*\w+\s*\)\s*=>\s*\{\s*\}\s*\)`), "Promise catch ignoring error parameter", 0.90},
		{regexp.MustCompile(`\.catch\s*\(\s*function\s*\(\s*\w*\s*\)\s*\{\s*\}\s*\)`), "Empty promise catch function", 0.90},
		{regexp.MustCompile(`\.catch\s*\(\s*_\s*=>\s*\{\s*\}\s*\)`), "Promise catch with ignored error", 0.70},
	},
	"typescript": {
		{regexp.MustCompile(`catch\s*\(\s*\w*\s*(?::\s*\w+)?\s*\)\s*\{\s*\}`), "Empty catch block - exception silently ignored", 0.95},
		{regexp.MustCompile(`catch\s*\{\s*\}`), "Empty catch block without binding", 0.95},
		{regexp.MustCompile(`\.catch\s*\(\s*\(\s*\)\s*=>\s*\{\s*\}\s*\)`), "Empty promise catch handler", 0.90},
		{regexp.MustCompile(`\.catch\s*\(\s*\(\s*\w+(?::\s*\w+)?\s*\)\s*=>\s*\{\s*\}\s*\)`), "Promise catch ignoring error parameter", 0.90},
		{regexp.MustCompile(`\.catch\s*\(\s*function\s*\(\s*\w*(?::\s*\w+)?\s*\)\s*\{\s*\}\s*\)`), "Empty promise catch function", 0.90},
	},
}

// safePatterns suppress a swallowed-exception finding when present in the
// block body: logging, error trackers, re-raise/rethrow, error-state
// assignment, return, an intentional-ignore comment, or cleanup calls.
var safePatterns = compilePatterns([]string{
	`\blog\b`, `\blogger\b`, `\blogging\b`, `console\.`, `print\s*\(`,
	`sentry`, `bugsnag`, `rollbar`, `trackError`, `reportError`,
	`\braise\b`, `\bthrow\b`, `\brethrow\b`,
	`error\s*=`, `lastError\s*=`, `err\s*=`, `setError\s*\(`,
	`\breturn\b`,
	`#\s*intentional`, `//\s*intentional`, `#\s*ignore`, `//\s*ignore`, `#\s*expected`, `//\s*expected`,
	`cleanup`, `close\s*\(`, `dispose\s*\(`, `release\s*\(`,
})

func compilePatterns(pats []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(pats))
	for i, p := range pats {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// SwallowedExceptionsRule is RESILIENCE.SWALLOWED_EXCEPTIONS (spec §4.3).
type SwallowedExceptionsRule struct{}

func (SwallowedExceptionsRule) RuleID() string          { return "RESILIENCE.SWALLOWED_EXCEPTIONS" }
func (SwallowedExceptionsRule) Name() string            { return "Swallowed Exception Detection" }
func (SwallowedExceptionsRule) Category() string        { return "resilience" }
func (SwallowedExceptionsRule) DefaultSeverity() findings.Severity { return findings.SeverityHigh }
func (SwallowedExceptionsRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (SwallowedExceptionsRule) SupportedLanguages() []string { return []string{"python", "javascript", "typescript"} }
func (SwallowedExceptionsRule) IsFast() bool                 { return true }
func (SwallowedExceptionsRule) Description() string {
	return "Detects catch blocks that silently ignore exceptions without logging, re-throwing, or proper error handling. Swallowed exceptions can hide bugs and make debugging difficult."
}

func (r SwallowedExceptionsRule) Check(ctx Context) []findings.Finding {
	patterns := exceptionPatternsByLanguage[ctx.Language]
	if len(patterns) == 0 {
		return nil
	}

	lines := strings.Split(ctx.Content, "\n")
	var out []findings.Finding

	for lineNum, line := range lines {
		if !ctx.InHunk(lineNum + 1) {
			continue
		}
		if isCommentLine(line, ctx.Language) {
			continue
		}

		for _, p := range patterns {
			match := p.re.FindString(line)
			if match == "" {
				continue
			}

			var blockEnd int
			if ctx.Language == "python" {
				blockEnd = findBlockEndPython(lines, lineNum)
			} else {
				blockEnd = findBlockEndJS(lines, lineNum)
			}

			if hasProperHandling(lines, lineNum, blockEnd) {
				break
			}

			confidence := p.confidence
			if p.confidence < 0.6 && blockEnd > lineNum {
				blockContent := strings.Join(lines[lineNum:min(blockEnd+1, len(lines))], "\n")
				if containsAnyPattern(blockContent, safePatterns) {
					break
				}
				// A multi-line block whose body is empty/pass/ellipsis-only is
				// the same shape as the single-line "except X: pass" patterns
				// above, just split across lines — score it the same (spec §8
				// seed scenario 1).
				if isPlaceholderBody(lines, lineNum+1, blockEnd) {
					confidence = 0.90
				}
			}

			snippet := strings.TrimSpace(line)
			if len(snippet) > 100 {
				snippet = snippet[:100] + "..."
			}

			endLine := lineNum + 1
			if blockEnd > lineNum {
				endLine = blockEnd + 1
			}

			f := findings.NewFinding(r.RuleID(), r.DefaultSeverity(), p.description, ctx.FilePath, lineNum+1, endLine, confidence)
			ln := lineNum + 1
			f.Evidence = []findings.Evidence{{
				Description: p.description,
				Line:        &ln,
				Snippet:     snippet,
				Data: map[string]any{
					"pattern":   p.re.String(),
					"match":     match,
					"block_end": blockEnd + 1,
				},
			}}
			f.RemediationHints = remediationHint(ctx.Language)
			out = append(out, f)
			break // only one finding per line
		}
	}

	return out
}

func findBlockEndPython(lines []string, startLine int) int {
	if startLine >= len(lines) {
		return startLine
	}
	exceptIndent := leadingWhitespace(lines[startLine])
	limit := min(startLine+20, len(lines))
	for i := startLine + 1; i < limit; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if leadingWhitespace(lines[i]) <= exceptIndent {
			return i - 1
		}
	}
	return min(startLine+10, len(lines)-1)
}

func findBlockEndJS(lines []string, startLine int) int {
	braceCount := 0
	started := false
	limit := min(startLine+50, len(lines))
	for i := startLine; i < limit; i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				braceCount++
				started = true
			case '}':
				braceCount--
				if started && braceCount == 0 {
					return i
				}
			}
		}
	}
	return min(startLine+10, len(lines)-1)
}

func hasProperHandling(lines []string, start, end int) bool {
	if start > end || end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end || start < 0 {
		return false
	}
	block := strings.ToLower(strings.Join(lines[start:end+1], "\n"))
	return containsAnyPattern(block, safePatterns)
}

// isPlaceholderBody reports whether every non-blank line in lines[start:end+1]
// is a bare "pass" or "..." statement — an empty handler body written across
// multiple lines instead of on the except/catch line itself.
func isPlaceholderBody(lines []string, start, end int) bool {
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end || start < 0 {
		return false
	}
	sawPlaceholder := false
	for i := start; i <= end; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if line != "pass" && line != "..." {
			return false
		}
		sawPlaceholder = true
	}
	return sawPlaceholder
}

func remediationHint(language string) []string {
	switch language {
	case "python":
		return []string{
			"Log the exception: `logging.exception('Error occurred')`",
			"Re-raise if you can't handle: `raise` or `raise from e`",
			"Track errors: `sentry_sdk.capture_exception(e)`",
			"If intentional, add comment: `# Intentionally ignored: reason`",
		}
	case "javascript", "typescript":
		return []string{
			"Log the error: `console.error('Error:', error)` or use a logger",
			"Re-throw if appropriate: `throw error`",
			"Track errors: `Sentry.captureException(error)`",
			"If intentional, add comment: `// Intentionally ignored: reason`",
		}
	default:
		return []string{fmt.Sprintf("Add proper exception handling or document why it's ignored (language=%s)", language)}
	}
}
