// Package rules holds the closed set of plan guardrail rules (spec §4.7),
// each grounded on its original_source/claude_indexer/ui/plan/guardrails/
// rules/*.py counterpart.
package rules

import (
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
)

var (
	featureKeywords = regexp.MustCompile(`(?i)\b(implement|add|create|build|develop|introduce|design|write)\b`)
	testKeywords    = regexp.MustCompile(`(?i)\b(tests?|specs?|unittest|pytest|jest|mocha|vitest|coverage|testing|integration\s*tests?|unit\s*tests?|e2e)\b`)
	trivialPatterns = regexp.MustCompile(`(?i)\b(fix\s+(typo|comment|readme|doc|whitespace|spacing|indent)|rename\s+\w+|move\s+\w+|delete\s+(comment|readme|unused)|update\s+(readme|comment|doc)|clean\s*up)\b`)
)

var testTags = map[string]bool{
	"test": true, "testing": true, "tests": true, "unit-test": true,
	"e2e": true, "integration-test": true, "qa": true,
}

// TestRequirementRule is PLAN.TEST_REQUIREMENT: feature/implementation
// tasks without a corresponding test task are flagged (spec §4.7, ported
// from TestRequirementRule).
type TestRequirementRule struct{}

func (TestRequirementRule) RuleID() string                         { return "PLAN.TEST_REQUIREMENT" }
func (TestRequirementRule) Name() string                           { return "Test Requirement Detection" }
func (TestRequirementRule) Category() string                       { return "coverage" }
func (TestRequirementRule) DefaultSeverity() findings.Severity     { return findings.SeverityMedium }
func (TestRequirementRule) IsFast() bool                           { return true }
func (TestRequirementRule) Description() string {
	return "Ensures that feature/implementation tasks have corresponding test tasks in the plan."
}

func (r TestRequirementRule) Validate(ctx *guardrail.Context) []plan.Finding {
	allTasks := ctx.Plan.AllTasks()
	testTaskIDs := testTaskIDs(allTasks)

	var out []plan.Finding
	for _, task := range allTasks {
		if testTaskIDs[task.ID] {
			continue
		}
		if isTrivialTask(task) {
			continue
		}
		if !isFeatureTask(task) {
			continue
		}
		if hasTestCoverage(task, testTaskIDs, allTasks) {
			continue
		}

		out = append(out, guardrail.NewFinding(
			r, ctx.Config,
			"Feature task '"+task.Title+"' lacks test coverage",
			[]string{task.ID},
			"Add a test task for '"+task.Title+"'",
			[]findings.Evidence{{
				Description: "Task appears to implement new functionality",
				Data: map[string]any{
					"task_id":           task.ID,
					"task_title":        task.Title,
					"detected_keywords": extractFeatureKeywords(task),
				},
			}},
			0.9, true, nil,
		))
	}
	return out
}

func (r TestRequirementRule) SuggestRevision(finding plan.Finding, ctx *guardrail.Context) *plan.Revision {
	if len(finding.AffectedTasks) == 0 {
		return nil
	}
	taskID := finding.AffectedTasks[0]
	featureTask := ctx.GetTaskByID(taskID)
	if featureTask == nil {
		return nil
	}

	testTaskID := "TASK-TST-" + lastSegment(taskID)
	testTask := &plan.Task{
		ID:          testTaskID,
		Title:       "Add tests for " + featureTask.Title,
		Description: "Write tests to verify '" + featureTask.Title + "' works correctly.",
		Scope:       featureTask.Scope,
		Priority:    featureTask.Priority + 1,
		EstimatedEffort: "low",
		Impact:          featureTask.Impact * 0.8,
		AcceptanceCriteria: []string{
			"Unit tests cover main functionality",
			"Tests pass in CI",
			"Code coverage for new code >= 80%",
		},
		Dependencies: []string{featureTask.ID},
		Tags:         []string{"testing", "quality"},
	}

	return &plan.Revision{
		Type:      plan.RevisionAddTask,
		Rationale: "Feature task '" + featureTask.Title + "' needs test coverage",
		NewTask:   testTask,
	}
}

func isFeatureTask(task plan.Task) bool {
	return featureKeywords.MatchString(task.Title + " " + task.Description)
}

func isTrivialTask(task plan.Task) bool {
	return trivialPatterns.MatchString(task.Title + " " + task.Description)
}

func isTestTask(task plan.Task) bool {
	if testKeywords.MatchString(task.Title + " " + task.Description) {
		return true
	}
	for _, tag := range task.Tags {
		if testTags[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

func testTaskIDs(tasks []plan.Task) map[string]bool {
	out := make(map[string]bool)
	for _, t := range tasks {
		if isTestTask(t) {
			out[t.ID] = true
		}
	}
	return out
}

func hasTestCoverage(task plan.Task, testTaskIDs map[string]bool, allTasks []plan.Task) bool {
	for _, other := range allTasks {
		if testTaskIDs[other.ID] {
			for _, dep := range other.Dependencies {
				if dep == task.ID {
					return true
				}
			}
		}
	}
	for _, dep := range task.Dependencies {
		if testTaskIDs[dep] {
			return true
		}
	}
	return false
}

func extractFeatureKeywords(task plan.Task) []string {
	matches := featureKeywords.FindAllString(task.Title+" "+task.Description, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = strings.ToLower(m)
	}
	return out
}

func lastSegment(id string) string {
	parts := strings.Split(id, "-")
	return parts[len(parts)-1]
}
