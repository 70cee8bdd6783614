package coderules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
)

var shellLanguages = []string{"bash", "shell", "sh"}

var mainBranchPattern = regexp.MustCompile(`(?i)\b(main|master)\b`)

// escalate upgrades summary when the command targets main/master, per
// SPEC_FULL.md §7: the original escalates this for all three git rules, not
// just force-push.
func escalate(line, plainSummary, escalatedSummary string) string {
	if mainBranchPattern.MatchString(line) {
		return escalatedSummary
	}
	return plainSummary
}

// ForcePushRule is GIT.FORCE_PUSH (spec §4.3).
type ForcePushRule struct{}

var forcePushPatterns = compilePatterns([]string{
	`git\s+push\s+.*--force\b`,
	`git\s+push\s+.*-f\b`,
	`git\s+push\s+--force-with-lease\b`,
})

func (ForcePushRule) RuleID() string                   { return "GIT.FORCE_PUSH" }
func (ForcePushRule) Name() string                     { return "Force Push Detection" }
func (ForcePushRule) Category() string                 { return "git" }
func (ForcePushRule) DefaultSeverity() findings.Severity { return findings.SeverityCritical }
func (ForcePushRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (ForcePushRule) SupportedLanguages() []string { return shellLanguages }
func (ForcePushRule) IsFast() bool                 { return true }
func (ForcePushRule) Description() string {
	return "Detects git push --force commands which can overwrite remote history and cause data loss for other developers."
}

func (r ForcePushRule) Check(ctx Context) []findings.Finding {
	return checkShellPatterns(ctx, r.RuleID(), r.DefaultSeverity(), forcePushPatterns, func(line string) (string, map[string]any) {
		summary := escalate(line, "Force push command detected", "DANGER: Force push to main/master branch")
		return summary, map[string]any{"targets_main": mainBranchPattern.MatchString(line)}
	}, []string{
		"Use regular push instead: git push",
		"If force is required, use --force-with-lease for safety",
		"Never force push to shared branches like main/master",
	})
}

// HardResetRule is GIT.HARD_RESET (spec §4.3).
type HardResetRule struct{}

var hardResetPatterns = compilePatterns([]string{
	`git\s+reset\s+--hard\b`,
	`git\s+reset\s+.*--hard\b`,
})

func (HardResetRule) RuleID() string                   { return "GIT.HARD_RESET" }
func (HardResetRule) Name() string                     { return "Hard Reset Detection" }
func (HardResetRule) Category() string                 { return "git" }
func (HardResetRule) DefaultSeverity() findings.Severity { return findings.SeverityCritical }
func (HardResetRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (HardResetRule) SupportedLanguages() []string { return shellLanguages }
func (HardResetRule) IsFast() bool                 { return true }
func (HardResetRule) Description() string {
	return "Detects git reset --hard commands which discard all uncommitted changes and can cause irreversible data loss."
}

func (r HardResetRule) Check(ctx Context) []findings.Finding {
	return checkShellPatterns(ctx, r.RuleID(), r.DefaultSeverity(), hardResetPatterns, func(line string) (string, map[string]any) {
		summary := escalate(line, "Hard reset command detected", "DANGER: Hard reset on main/master branch checkout")
		return summary, map[string]any{"targets_main": mainBranchPattern.MatchString(line)}
	}, []string{
		"Use soft reset to preserve changes: git reset --soft",
		"Stash changes first: git stash",
		"Ensure all changes are committed before reset",
	})
}

// DestructiveOpsRule is GIT.DESTRUCTIVE_OPS (spec §4.3).
type DestructiveOpsRule struct{}

type destructivePattern struct {
	re          *regexp.Regexp
	description string
}

// rootRmPattern matches "rm -rf /..." but excludes "rm -rf /tmp..." (Go's
// RE2 engine has no negative lookahead, unlike the original's `(?!tmp)`;
// the /tmp exclusion is applied as a separate guard in Check instead).
var rootRmPattern = regexp.MustCompile(`(?i)rm\s+-rf\s+/\S*`)
var rootRmTmpPattern = regexp.MustCompile(`(?i)rm\s+-rf\s+/tmp\b`)

var destructivePatterns = []destructivePattern{
	{regexp.MustCompile(`(?i)rm\s+-rf\s+~`), "rm -rf ~ (home directory)"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+\*`), "rm -rf * (current directory contents)"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+\.\*`), "rm -rf .* (hidden files)"},
	{regexp.MustCompile(`(?i)>\s*/dev/sd[a-z]`), "overwrite block device"},
	{regexp.MustCompile(`(?i)dd\s+.*of=/dev/sd[a-z]`), "dd to block device"},
	{regexp.MustCompile(`(?i)mkfs\.`), "format filesystem"},
}

func (DestructiveOpsRule) RuleID() string                   { return "GIT.DESTRUCTIVE_OPS" }
func (DestructiveOpsRule) Name() string                     { return "Destructive Operations Detection" }
func (DestructiveOpsRule) Category() string                 { return "git" }
func (DestructiveOpsRule) DefaultSeverity() findings.Severity { return findings.SeverityCritical }
func (DestructiveOpsRule) Triggers() []findings.Trigger {
	return []findings.Trigger{findings.TriggerOnWrite, findings.TriggerOnStop, findings.TriggerOnCommit}
}
func (DestructiveOpsRule) SupportedLanguages() []string { return shellLanguages }
func (DestructiveOpsRule) IsFast() bool                 { return true }
func (DestructiveOpsRule) Description() string {
	return "Detects potentially destructive file operations like rm -rf /, dd to block devices, and filesystem formatting commands."
}

func (r DestructiveOpsRule) Check(ctx Context) []findings.Finding {
	lines := strings.Split(ctx.Content, "\n")
	var out []findings.Finding
	for lineNum, line := range lines {
		lineNo := lineNum + 1
		if !ctx.InHunk(lineNo) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if rootRmPattern.MatchString(line) && !rootRmTmpPattern.MatchString(line) {
			summary := escalate(line, "Dangerous operation: rm -rf / (root directory)", "DANGER on main/master context: rm -rf / (root directory)")
			f := findings.NewFinding(r.RuleID(), r.DefaultSeverity(), summary, ctx.FilePath, lineNo, lineNo, 1.0)
			ln := lineNo
			f.Evidence = []findings.Evidence{{
				Description: "Potentially destructive: rm -rf / (root directory)",
				Line:        &ln,
				Snippet:     strings.TrimSpace(line),
			}}
			f.RemediationHints = []string{
				"Review this command carefully before execution",
				"Consider using safer alternatives",
				"Add confirmation prompts for destructive operations",
			}
			out = append(out, f)
			continue
		}
		for _, p := range destructivePatterns {
			if !p.re.MatchString(line) {
				continue
			}
			summary := escalate(line, fmt.Sprintf("Dangerous operation: %s", p.description), fmt.Sprintf("DANGER on main/master context: %s", p.description))
			f := findings.NewFinding(r.RuleID(), r.DefaultSeverity(), summary, ctx.FilePath, lineNo, lineNo, 1.0)
			ln := lineNo
			f.Evidence = []findings.Evidence{{
				Description: fmt.Sprintf("Potentially destructive: %s", p.description),
				Line:        &ln,
				Snippet:     strings.TrimSpace(line),
			}}
			f.RemediationHints = []string{
				"Review this command carefully before execution",
				"Consider using safer alternatives",
				"Add confirmation prompts for destructive operations",
			}
			out = append(out, f)
			break
		}
	}
	return out
}

// checkShellPatterns is the shared body of ForcePushRule/HardResetRule:
// scan non-comment lines for any of patterns, emit one finding per line
// via summaryAndData, stamped with the given remediation hints.
func checkShellPatterns(ctx Context, ruleID string, severity findings.Severity, patterns []*regexp.Regexp, summaryAndData func(line string) (string, map[string]any), hints []string) []findings.Finding {
	lines := strings.Split(ctx.Content, "\n")
	var out []findings.Finding
	for lineNum, line := range lines {
		lineNo := lineNum + 1
		if !ctx.InHunk(lineNo) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, p := range patterns {
			if !p.MatchString(line) {
				continue
			}
			summary, data := summaryAndData(line)
			f := findings.NewFinding(ruleID, severity, summary, ctx.FilePath, lineNo, lineNo, 1.0)
			ln := lineNo
			f.Evidence = []findings.Evidence{{
				Description: "Command may cause irreversible loss of history or data",
				Line:        &ln,
				Snippet:     strings.TrimSpace(line),
				Data:        data,
			}}
			f.RemediationHints = hints
			out = append(out, f)
			break
		}
	}
	return out
}
