package rules

import (
	"fmt"
	"regexp"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
)

type antiPattern struct {
	name        string
	description string
	patterns    []*regexp.Regexp
	suggestion  string
	confidence  float64
}

var antiPatterns = []antiPattern{
	{
		name:        "N+1 Query",
		description: "Potential N+1 query pattern detected",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(for\s+each|loop|iterate)\b.*\b(query|database|db|fetch|api)\b`),
			regexp.MustCompile(`(?i)\b(query|database|db|fetch|api)\b.*\b(for\s+each|loop|iterate)\b`),
			regexp.MustCompile(`(?i)\b(individual|separate|one\s+by\s+one)\b.*\b(requests?|query|calls?)\b`),
		},
		suggestion: "Consider batching database queries or API calls. Use eager loading, prefetch, or batch endpoints.",
		confidence: 0.75,
	},
	{
		name:        "Missing Cache",
		description: "Potential missing caching opportunity",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(no\s+cache|without\s+caching|every\s+(request|time))\b`),
			regexp.MustCompile(`(?i)\b(always\s+fetch|always\s+query|repeated\s+call)\b`),
			regexp.MustCompile(`(?i)\b(expensive|slow|heavy)\b.*\b(operation|query|call)\b`),
		},
		suggestion: "Consider adding caching for expensive operations. Use memoization, Redis, or in-memory caching.",
		confidence: 0.70,
	},
	{
		name:        "Blocking Operation",
		description: "Potential blocking/synchronous operation",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(synchronous|blocking|sync)\b.*\b(external|api|http|network)\b`),
			regexp.MustCompile(`(?i)\b(wait\s+for|await\s+all|sequential)\b.*\b(request|call)\b`),
			regexp.MustCompile(`(?i)\b(no\s+timeout|without\s+timeout)\b`),
		},
		suggestion: "Consider async operations with proper timeouts. Use background jobs for long-running tasks.",
		confidence: 0.70,
	},
	{
		name:        "Unbounded Data",
		description: "Potential unbounded data loading",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(all|entire|full|complete)\b.*\b(data|records|rows|list)\b`),
			regexp.MustCompile(`(?i)\b(no\s+limit|unlimited|without\s+pagination)\b`),
			regexp.MustCompile(`(?i)\b(load\s+all|fetch\s+all|get\s+all)\b`),
		},
		suggestion: "Consider pagination or limit data loading. Implement lazy loading or virtualization for large datasets.",
		confidence: 0.65,
	},
	{
		name:        "Memory Intensive",
		description: "Potential memory-intensive operation",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(large|massive|huge)\b.*\b(array|list|collection|object)\b`),
			regexp.MustCompile(`(?i)\b(in\s+memory|memory\s+intensive|memory\s+heavy)\b`),
			regexp.MustCompile(`(?i)\b(accumulate|collect|gather)\b.*\b(all|everything)\b`),
		},
		suggestion: "Consider streaming or chunked processing. Use generators or iterators for large datasets.",
		confidence: 0.60,
	},
	{
		name:        "Complex Algorithm",
		description: "Potential algorithmic complexity concern",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(nested\s+loop|double\s+loop|triple\s+loop)\b`),
			regexp.MustCompile(`(?i)(O\(n\^2\)|O\(n\s*\*\s*n\)|\bquadratic\b)`),
			regexp.MustCompile(`(?i)\b(brute\s+force|exhaustive|all\s+combinations)\b`),
		},
		suggestion: "Review algorithmic complexity. Consider optimized algorithms, indexes, or data structure changes.",
		confidence: 0.80,
	},
}

// PerformancePatternRule is PLAN.PERFORMANCE_PATTERN: flags performance
// anti-patterns detected by keyword scan of task descriptions (spec §4.7,
// ported from PerformancePatternRule).
type PerformancePatternRule struct{}

func (PerformancePatternRule) RuleID() string                     { return "PLAN.PERFORMANCE_PATTERN" }
func (PerformancePatternRule) Name() string                       { return "Performance Pattern Detection" }
func (PerformancePatternRule) Category() string                   { return "performance" }
func (PerformancePatternRule) DefaultSeverity() findings.Severity { return findings.SeverityLow }
func (PerformancePatternRule) IsFast() bool                       { return true }
func (PerformancePatternRule) Description() string {
	return "Flags potential performance anti-patterns in implementation tasks based on keyword analysis."
}

func (r PerformancePatternRule) Validate(ctx *guardrail.Context) []plan.Finding {
	var out []plan.Finding
	for _, task := range ctx.Plan.AllTasks() {
		for _, ap := range detectAntiPatterns(task) {
			out = append(out, guardrail.NewFinding(
				r, ctx.Config,
				fmt.Sprintf("Task '%s' may have performance concern: %s", task.Title, ap.name),
				[]string{task.ID},
				ap.suggestion,
				[]findings.Evidence{{
					Description: ap.description,
					Data: map[string]any{
						"pattern_name": ap.name,
						"task_id":      task.ID,
					},
				}},
				ap.confidence, true, nil,
			))
		}
	}
	return out
}

func (r PerformancePatternRule) SuggestRevision(finding plan.Finding, ctx *guardrail.Context) *plan.Revision {
	if len(finding.AffectedTasks) == 0 {
		return nil
	}
	taskID := finding.AffectedTasks[0]
	task := ctx.GetTaskByID(taskID)
	if task == nil {
		return nil
	}

	patternName := "Performance"
	if len(finding.Evidence) > 0 && finding.Evidence[0].Data != nil {
		if name, ok := finding.Evidence[0].Data["pattern_name"].(string); ok && name != "" {
			patternName = name
		}
	}

	suggestion := finding.Suggestion
	if suggestion == "" {
		suggestion = "Review for potential performance issues."
	}
	note := fmt.Sprintf("\n\n**Performance Note (%s):** %s", patternName, suggestion)

	newDescription := task.Description + note
	newCriteria := append(append([]string{}, task.AcceptanceCriteria...), fmt.Sprintf("Performance consideration addressed: %s", patternName))

	return &plan.Revision{
		Type:         plan.RevisionModifyTask,
		Rationale:    "Adding performance consideration: " + patternName,
		TargetTaskID: taskID,
		Modifications: map[string]any{
			"description":         newDescription,
			"acceptance_criteria": newCriteria,
		},
	}
}

func detectAntiPatterns(task plan.Task) []antiPattern {
	text := task.Title + " " + task.Description
	var detected []antiPattern
	for _, ap := range antiPatterns {
		for _, p := range ap.patterns {
			if p.MatchString(text) {
				detected = append(detected, ap)
				break
			}
		}
	}
	return detected
}
