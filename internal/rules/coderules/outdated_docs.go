package coderules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
)

var functionPatternByLanguage = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`def\s+\w+\s*\(([^)]*)\)`),
	"javascript": regexp.MustCompile(`function\s+\w+\s*\(([^)]*)\)`),
	"typescript": regexp.MustCompile(`function\s+\w+\s*(?:<[^>]+>)?\s*\(([^)]*)\)`),
}

var jsdocParamPattern = regexp.MustCompile(`@param\s+(?:\{[^}]+\}\s+)?(\w+)`)
var sphinxParamPattern = regexp.MustCompile(`:param\s+(?:\w+\s+)?(\w+):`)
var googleStyleParamPattern = regexp.MustCompile(`^\s+(\w+)\s*(?:\([^)]+\))?:`)

// docKeywordExclusions are section headers/keywords that look like stray
// documented parameters but are not (spec §4.3 "fixed list of docstring-
// section keywords").
var docKeywordExclusions = map[string]bool{
	"return": true, "returns": true, "Returns": true,
	"type": true, "Type": true,
	"Raises": true, "raises": true,
	"Example": true, "Examples": true,
	"Note": true, "Notes": true,
	"See": true,
	"Yields": true, "yields": true,
}

// OutdatedDocsRule is DOCUMENTATION.OUTDATED_DOCS (spec §4.3).
type OutdatedDocsRule struct{}

func (OutdatedDocsRule) RuleID() string                   { return "DOCUMENTATION.OUTDATED_DOCS" }
func (OutdatedDocsRule) Name() string                     { return "Outdated Documentation Detection" }
func (OutdatedDocsRule) Category() string                 { return "documentation" }
func (OutdatedDocsRule) DefaultSeverity() findings.Severity { return findings.SeverityLow }
func (OutdatedDocsRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (OutdatedDocsRule) SupportedLanguages() []string { return []string{"python", "javascript", "typescript"} }
func (OutdatedDocsRule) IsFast() bool                 { return true }
func (OutdatedDocsRule) Description() string {
	return "Detects documentation that doesn't match the actual code signature. Outdated documentation can be more confusing than no documentation."
}

func (r OutdatedDocsRule) Check(ctx Context) []findings.Finding {
	funcPattern := functionPatternByLanguage[ctx.Language]
	if funcPattern == nil {
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

		match := funcPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		signature := match[1]

		var actualParams, docParams map[string]bool
		var docStart, docEnd int
		if ctx.Language == "python" {
			actualParams = extractPythonParams(signature)
			docParams, docStart, docEnd = extractPythonDocstringParams(lines, lineNum+1)
		} else {
			actualParams = extractJSParams(signature)
			docParams, docStart, docEnd = extractJSDocParams(lines, lineNum)
		}

		if docStart < 0 {
			continue
		}

		extraInDocs := setMinus(docParams, actualParams)
		missingInDocs := setMinus(actualParams, docParams)
		for kw := range docKeywordExclusions {
			delete(extraInDocs, kw)
		}

		if len(extraInDocs) == 0 && len(missingInDocs) == 0 {
			continue
		}

		confidence := 0.70
		if len(extraInDocs) > 0 && len(missingInDocs) > 0 {
			confidence = 0.85
		} else if len(extraInDocs) > 1 || len(missingInDocs) > 1 {
			confidence = 0.80
		}

		snippet := strings.TrimSpace(line)
		if len(snippet) > 100 {
			snippet = snippet[:100] + "..."
		}

		endLine := lineNum + 1
		if docEnd > 0 {
			endLine = docEnd + 1
		}

		f := findings.NewFinding(r.RuleID(), r.DefaultSeverity(), "Documentation doesn't match function signature", ctx.FilePath, lineNum+1, endLine, confidence)
		evLine := lineNum + 1
		if docStart >= 0 {
			evLine = docStart + 1
		}
		f.Evidence = []findings.Evidence{{
			Description: strings.Join(mismatchIssues(extraInDocs, missingInDocs), "; "),
			Line:        &evLine,
			Snippet:     snippet,
			Data: map[string]any{
				"actual_params":     sortedKeys(actualParams),
				"documented_params": sortedKeys(docParams),
				"extra_in_docs":     sortedKeys(extraInDocs),
				"missing_in_docs":   sortedKeys(missingInDocs),
			},
		}}
		f.RemediationHints = docRemediationHint(ctx.Language, extraInDocs, missingInDocs)
		out = append(out, f)
	}

	return out
}

func mismatchIssues(extra, missing map[string]bool) []string {
	var issues []string
	if len(extra) > 0 {
		issues = append(issues, "Documented but not in signature: "+strings.Join(sortedKeys(extra), ", "))
	}
	if len(missing) > 0 {
		issues = append(issues, "In signature but not documented: "+strings.Join(sortedKeys(missing), ", "))
	}
	return issues
}

func docRemediationHint(language string, extra, missing map[string]bool) []string {
	var hints []string
	if len(extra) > 0 {
		hints = append(hints, "Remove documentation for parameters that no longer exist: "+strings.Join(sortedKeys(extra), ", "))
	}
	if len(missing) > 0 {
		if language == "python" {
			hints = append(hints, "Add documentation for parameters: "+strings.Join(sortedKeys(missing), ", "))
		} else {
			for _, p := range sortedKeys(missing) {
				hints = append(hints, "Add @param {type} "+p+" - description")
			}
		}
	}
	hints = append(hints, "Keep documentation in sync with code changes")
	return hints
}

func setMinus(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// extractPythonParams parses a comma-separated parameter list, handling
// nested brackets, stripping type hints/defaults, and dropping *args/
// **kwargs/self/cls.
func extractPythonParams(signature string) map[string]bool {
	params := make(map[string]bool)
	for _, part := range splitTopLevel(signature) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(strings.SplitN(part, ":", 2)[0], "=", 2)[0])
		if strings.HasPrefix(name, "*") || name == "self" || name == "cls" {
			continue
		}
		if name != "" {
			params[name] = true
		}
	}
	return params
}

// extractJSParams mirrors extractPythonParams for JS/TS signatures,
// additionally skipping destructured and rest parameters and trimming the
// optional-parameter "?" suffix.
func extractJSParams(signature string) map[string]bool {
	params := make(map[string]bool)
	for _, part := range splitTopLevel(signature) {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "...") {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(strings.SplitN(trimmed, ":", 2)[0], "=", 2)[0])
		name = strings.TrimSuffix(name, "?")
		if name != "" {
			params[name] = true
		}
	}
	return params
}

// splitTopLevel splits a parameter list by commas, ignoring commas nested
// inside (), [], {} or <>.
func splitTopLevel(signature string) []string {
	var parts []string
	depth := 0
	var current strings.Builder
	for _, ch := range signature {
		switch ch {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}

// extractPythonDocstringParams finds a docstring beginning within 50 lines
// of startLine and extracts Google/Sphinx/NumPy-style documented
// parameters.
func extractPythonDocstringParams(lines []string, startLine int) (map[string]bool, int, int) {
	params := make(map[string]bool)
	docStart, docEnd := -1, -1
	inDocstring := false
	var delimiter string

	limit := min(startLine+50, len(lines))
	for i := startLine; i < limit; i++ {
		stripped := strings.TrimSpace(lines[i])
		if !inDocstring {
			for _, delim := range []string{`"""`, "'''"} {
				if strings.Contains(stripped, delim) {
					inDocstring = true
					delimiter = delim
					docStart = i
					if strings.Count(stripped, delim) >= 2 {
						docEnd = i
						inDocstring = false
					}
					break
				}
			}
		} else if delimiter != "" && strings.Contains(stripped, delimiter) {
			docEnd = i
			break
		}
		if docStart >= 0 && docEnd >= 0 {
			break
		}
	}

	if docStart < 0 || docEnd < 0 {
		return params, -1, -1
	}

	content := strings.Join(lines[docStart:docEnd+1], "\n")
	for _, m := range sphinxParamPattern.FindAllStringSubmatch(content, -1) {
		params[m[1]] = true
	}
	for _, line := range strings.Split(content, "\n") {
		if m := googleStyleParamPattern.FindStringSubmatch(line); m != nil {
			params[m[1]] = true
		}
	}

	return params, docStart, docEnd
}

// extractJSDocParams looks upward from defLine for an enclosing /** ... */
// JSDoc comment block and extracts @param names.
func extractJSDocParams(lines []string, defLine int) (map[string]bool, int, int) {
	params := make(map[string]bool)
	docStart, docEnd := -1, -1

	floor := max0(defLine - 30)
	for i := defLine - 1; i >= floor; i-- {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasSuffix(line, "*/"):
			docEnd = i
		case strings.Contains(line, "/**"):
			docStart = i
		case docEnd < 0 && line != "" && !strings.HasPrefix(line, "*"):
			return params, -1, -1
		}
		if docStart >= 0 {
			break
		}
	}

	if docStart < 0 || docEnd < 0 {
		return params, -1, -1
	}

	content := strings.Join(lines[docStart:docEnd+1], "\n")
	for _, m := range jsdocParamPattern.FindAllStringSubmatch(content, -1) {
		params[m[1]] = true
	}
	return params, docStart, docEnd
}
