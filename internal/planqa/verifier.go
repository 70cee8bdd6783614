// Package planqa verifies generated implementation plan text against a
// small set of lightweight, pattern-based quality checks before the plan
// reaches the user. Grounded on the original's hooks/plan_qa.py.
package planqa

import (
	"regexp"
	"strings"
)

var (
	codeChangePattern = regexp.MustCompile(`(?i)(add|create|implement|modify|update|build|develop|write|introduce)\s+` +
		`(?:(?:a|an|the|new|existing|custom)\s+)?` +
		"(?:[`'\"]?\\w+[`'\"]?\\s+){0,3}" +
		"[`'\"]?" +
		`(\w*(?:function|class|component|module|service|api|endpoint|method|handler|controller|model|schema|validator|hook|feature|logic|algorithm))`)

	testTaskPattern = regexp.MustCompile(`(?i)(add|create|write|implement|include)\s+(?:unit\s+|integration\s+|e2e\s+|end-to-end\s+)?tests?|` +
		`test\s+(coverage|suite|file|cases?)|` +
		`(pytest|jest|mocha|vitest|unittest)\s+tests?|` +
		`\bspec\s+file|` +
		`testing\s+for|` +
		`verify\s+with\s+tests?`)

	docTaskPattern = regexp.MustCompile(`(?i)(update|add|create|write|include)\s+(?:the\s+)?(documentation|docs|readme|api\s*docs?|guide|docstring|jsdoc|pydoc|comments?)|` +
		`document\s+the|` +
		`(changelog|release\s*notes?)|` +
		`update\s+the\s+readme`)

	userFacingPattern = regexp.MustCompile(`(?i)\b(api|cli|command|endpoint|route|ui|ux|frontend|dashboard|config|setting|option|flag|parameter|public|external|visible|user[\s-]?facing|customer|interface|button|form|page|screen)\b`)

	reuseCheckPattern = regexp.MustCompile(`(?i)(verified|checked|reviewed|confirmed)\s+(no\s+)?(existing|duplicate|similar)|` +
		`(extend|reuse|leverage|use\s+existing)\s+existing|` +
		`no\s+existing\s+(implementation|code|function|class)|` +
		`search_similar|read_graph|` +
		`checked\s+for\s+(duplicat|similar)|` +
		`will\s+(extend|reuse)|` +
		`based\s+on\s+existing`)

	// architectureConcernPattern omits the original's trailing lookahead
	// (RE2 has no lookahead support); boundary is instead checked by
	// isBoundaryRune after each match (architectureConcernAllowed).
	architectureConcernPattern = regexp.MustCompile(`(?i)(O\(n\^?2\)|O\(n\s*\*\s*m\)|nested\s+loop|` +
		`no\s+timeout|blocking\s+call|synchronous\s+http|` +
		`unbounded\s+(?:memory|array|list)|memory\s+leak|` +
		`n\+1\s+query|n\+1\s+problem|` +
		`global\s+state|circular\s+dependency)`)
)

const maxArchitectureWarnings = 3

// Config toggles which checks run and whether failures block the plan
// (spec §4.7 "Plan-QA verifier").
type Config struct {
	Enabled             bool
	CheckTests          bool
	CheckDocs           bool
	CheckDuplicates     bool
	CheckArchitecture   bool
	FailOnMissingTests  bool
	FailOnMissingDocs   bool
}

// DefaultConfig enables every check, warn-only (no check blocks the plan).
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		CheckTests:        true,
		CheckDocs:         true,
		CheckDuplicates:   true,
		CheckArchitecture: true,
	}
}

// Result aggregates plan-QA findings (spec §4.7 "never blocks by default").
type Result struct {
	IsValid               bool
	MissingTests          []string
	MissingDocs           []string
	PotentialDuplicates   []string
	ArchitectureWarnings  []string
	Suggestions           []string
}

// HasIssues reports whether any finding list is non-empty.
func (r Result) HasIssues() bool {
	return len(r.MissingTests) > 0 || len(r.MissingDocs) > 0 ||
		len(r.PotentialDuplicates) > 0 || len(r.ArchitectureWarnings) > 0
}

// FormatFeedback renders a human-readable summary of findings.
func (r Result) FormatFeedback() string {
	if !r.HasIssues() {
		return "\n[Plan QA: All quality checks passed]"
	}

	lines := []string{"\n=== Plan QA Feedback ==="}

	appendSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, "\n"+title)
		for _, item := range items {
			lines = append(lines, "  - "+item)
		}
	}

	appendSection("[WARN] Missing Test Coverage:", r.MissingTests)
	appendSection("[WARN] Missing Documentation:", r.MissingDocs)
	appendSection("[WARN] Potential Duplicates (no explicit reuse check):", r.PotentialDuplicates)
	appendSection("[WARN] Architecture Concerns:", r.ArchitectureWarnings)

	if len(r.Suggestions) > 0 {
		lines = append(lines, "\n[SUGGESTIONS]:")
		for _, s := range r.Suggestions {
			lines = append(lines, "  - "+s)
		}
	}

	lines = append(lines, "\n=== End Plan QA ===")
	return strings.Join(lines, "\n")
}

// Verifier runs plan-QA checks over plan text, grounded on PlanQAVerifier.
type Verifier struct {
	Config Config
}

// NewVerifier builds a verifier with the given config.
func NewVerifier(config Config) *Verifier {
	return &Verifier{Config: config}
}

// VerifyPlan runs all enabled checks over planText.
func (v *Verifier) VerifyPlan(planText string) Result {
	if !v.Config.Enabled {
		return Result{IsValid: true}
	}

	var result Result

	if v.Config.CheckTests {
		v.checkTestCoverage(planText, &result)
	}
	if v.Config.CheckDocs {
		v.checkDocCoverage(planText, &result)
	}
	if v.Config.CheckDuplicates {
		v.checkDuplicateVerification(planText, &result)
	}
	if v.Config.CheckArchitecture {
		v.checkArchitecture(planText, &result)
	}

	result.IsValid = v.determineValidity(result)
	v.addSuggestions(&result)
	return result
}

func (v *Verifier) checkTestCoverage(planText string, result *Result) {
	if codeChangePattern.MatchString(planText) && !testTaskPattern.MatchString(planText) {
		result.MissingTests = append(result.MissingTests, "Plan modifies/adds code but includes no test tasks")
	}
}

func (v *Verifier) checkDocCoverage(planText string, result *Result) {
	if userFacingPattern.MatchString(planText) && !docTaskPattern.MatchString(planText) {
		result.MissingDocs = append(result.MissingDocs, "User-facing changes without documentation update task")
	}
}

func (v *Verifier) checkDuplicateVerification(planText string, result *Result) {
	if codeChangePattern.MatchString(planText) && !reuseCheckPattern.MatchString(planText) {
		result.PotentialDuplicates = append(result.PotentialDuplicates, "New code creation without explicit duplicate/reuse check")
	}
}

func (v *Verifier) checkArchitecture(planText string, result *Result) {
	locs := architectureConcernPattern.FindAllStringIndex(planText, -1)
	count := 0
	for _, loc := range locs {
		if count >= maxArchitectureWarnings {
			break
		}
		if !followedByBoundary(planText, loc[1]) {
			continue
		}
		concern := planText[loc[0]:loc[1]]
		result.ArchitectureWarnings = append(result.ArchitectureWarnings, "Performance concern detected: "+concern)
		count++
	}
}

func followedByBoundary(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	switch text[pos] {
	case ' ', '\t', '\n', '\r', '.', ',', ';', ':':
		return true
	}
	return false
}

func (v *Verifier) determineValidity(result Result) bool {
	if v.Config.FailOnMissingTests && len(result.MissingTests) > 0 {
		return false
	}
	if v.Config.FailOnMissingDocs && len(result.MissingDocs) > 0 {
		return false
	}
	return true
}

func (v *Verifier) addSuggestions(result *Result) {
	if len(result.MissingTests) > 0 {
		result.Suggestions = append(result.Suggestions, "Add unit/integration test task to verify code changes")
	}
	if len(result.MissingDocs) > 0 {
		result.Suggestions = append(result.Suggestions, "Add documentation update task for user-facing changes")
	}
	if len(result.PotentialDuplicates) > 0 {
		result.Suggestions = append(result.Suggestions, "Use search_similar() to verify no duplicate code exists")
	}
}

// VerifyPlanQA is a convenience wrapper mirroring verify_plan_qa.
func VerifyPlanQA(planText string, config Config) Result {
	return NewVerifier(config).VerifyPlan(planText)
}
