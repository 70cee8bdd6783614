package rules

import (
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
)

var (
	userFacingKeywords = regexp.MustCompile(`(?i)\b(api|user|interface|config|cli|command|endpoint|route|ui|ux|frontend|dashboard|setting|option|flag|parameter|public|external|exposed|visible|accessible)\b`)
	docNeededActions   = regexp.MustCompile(`(?i)\b(add|create|change|modify|update|remove|deprecate|rename|introduce|implement|new)\b`)
	docKeywords        = regexp.MustCompile(`(?i)\b(doc|documentation|readme|docs|guide|tutorial|api\s*doc|reference|changelog|release\s*note|comment|jsdoc|docstring|help\s*text)\b`)
)

var docTags = map[string]bool{
	"docs": true, "documentation": true, "readme": true, "doc": true,
	"wiki": true, "guide": true, "api-docs": true,
}

// DocRequirementRule is PLAN.DOC_REQUIREMENT: user-facing tasks without a
// corresponding documentation task are flagged (spec §4.7, ported from
// DocRequirementRule).
type DocRequirementRule struct{}

func (DocRequirementRule) RuleID() string                     { return "PLAN.DOC_REQUIREMENT" }
func (DocRequirementRule) Name() string                       { return "Documentation Requirement Detection" }
func (DocRequirementRule) Category() string                   { return "coverage" }
func (DocRequirementRule) DefaultSeverity() findings.Severity { return findings.SeverityLow }
func (DocRequirementRule) IsFast() bool                       { return true }
func (DocRequirementRule) Description() string {
	return "Ensures that user-facing changes have corresponding documentation tasks in the plan."
}

func (r DocRequirementRule) Validate(ctx *guardrail.Context) []plan.Finding {
	allTasks := ctx.Plan.AllTasks()
	docTaskIDs := docTaskIDs(allTasks)
	hasDocTasks := len(docTaskIDs) > 0

	var out []plan.Finding
	for _, task := range allTasks {
		if docTaskIDs[task.ID] {
			continue
		}
		if !isUserFacingTask(task) {
			continue
		}
		if hasDocTasks && hasDocCoverage(task, docTaskIDs, allTasks) {
			continue
		}

		out = append(out, guardrail.NewFinding(
			r, ctx.Config,
			"User-facing task '"+task.Title+"' lacks documentation",
			[]string{task.ID},
			"Add documentation task for '"+task.Title+"'",
			[]findings.Evidence{{
				Description: "Task modifies user-visible functionality",
				Data: map[string]any{
					"task_id":           task.ID,
					"task_title":        task.Title,
					"detected_keywords": extractUserFacingKeywords(task),
				},
			}},
			0.8, true, nil,
		))
	}
	return out
}

func (r DocRequirementRule) SuggestRevision(finding plan.Finding, ctx *guardrail.Context) *plan.Revision {
	if len(finding.AffectedTasks) == 0 {
		return nil
	}
	taskID := finding.AffectedTasks[0]
	userTask := ctx.GetTaskByID(taskID)
	if userTask == nil {
		return nil
	}

	docTaskID := "TASK-DOC-" + lastSegment(taskID)
	docTask := &plan.Task{
		ID:          docTaskID,
		Title:       "Update documentation for " + userTask.Title,
		Description: "Update relevant documentation to reflect changes from '" + userTask.Title + "'. Include usage examples if applicable.",
		Scope:       userTask.Scope,
		Priority:    userTask.Priority + 1,
		EstimatedEffort: "low",
		Impact:          userTask.Impact * 0.6,
		AcceptanceCriteria: []string{
			"Documentation updated in relevant files",
			"Usage examples added where applicable",
			"API changes documented if any",
		},
		Dependencies: []string{userTask.ID},
		Tags:         []string{"documentation", "docs"},
	}

	return &plan.Revision{
		Type:      plan.RevisionAddTask,
		Rationale: "User-facing task '" + userTask.Title + "' needs documentation update",
		NewTask:   docTask,
	}
}

func isUserFacingTask(task plan.Task) bool {
	text := task.Title + " " + task.Description
	if !userFacingKeywords.MatchString(text) {
		return false
	}
	return docNeededActions.MatchString(text)
}

func isDocTask(task plan.Task) bool {
	if docKeywords.MatchString(task.Title + " " + task.Description) {
		return true
	}
	for _, tag := range task.Tags {
		if docTags[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

func docTaskIDs(tasks []plan.Task) map[string]bool {
	out := make(map[string]bool)
	for _, t := range tasks {
		if isDocTask(t) {
			out[t.ID] = true
		}
	}
	return out
}

func hasDocCoverage(task plan.Task, docTaskIDs map[string]bool, allTasks []plan.Task) bool {
	for _, other := range allTasks {
		if docTaskIDs[other.ID] {
			for _, dep := range other.Dependencies {
				if dep == task.ID {
					return true
				}
			}
		}
	}
	for _, dep := range task.Dependencies {
		if docTaskIDs[dep] {
			return true
		}
	}
	return false
}

func extractUserFacingKeywords(task plan.Task) []string {
	matches := userFacingKeywords.FindAllString(task.Title+" "+task.Description, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		lower := strings.ToLower(m)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out
}
