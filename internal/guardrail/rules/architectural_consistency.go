package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
)

var fileTypeOrder = []string{"tests", "components", "utils", "config", "api", "models", "services"}

var expectedPathPatterns = map[string][]*regexp.Regexp{
	"tests": {
		regexp.MustCompile(`(?i)^tests?/`),
		regexp.MustCompile(`(?i)__tests__/`),
		regexp.MustCompile(`(?i)\.test\.(py|js|ts|jsx|tsx)$`),
		regexp.MustCompile(`(?i)_test\.(py|js|ts)$`),
		regexp.MustCompile(`(?i)\.spec\.(js|ts|jsx|tsx)$`),
	},
	"components": {
		regexp.MustCompile(`(?i)^(src/)?components?/`),
		regexp.MustCompile(`(?i)^(app|lib)/components?/`),
	},
	"utils": {
		regexp.MustCompile(`(?i)^(src/)?(utils?|helpers?|lib)/`),
	},
	"config": {
		regexp.MustCompile(`(?i)^(src/)?config/`),
		regexp.MustCompile(`(?i)\.config\.(py|js|ts|json|yaml|yml)$`),
	},
	"api": {
		regexp.MustCompile(`(?i)^(src/)?(api|routes|endpoints)/`),
		regexp.MustCompile(`(?i)^app/(api|routes)/`),
	},
	"models": {
		regexp.MustCompile(`(?i)^(src/)?(models?|entities|schemas?)/`),
	},
	"services": {
		regexp.MustCompile(`(?i)^(src/)?(services?|providers?)/`),
	},
}

var fileTypeKeywords = map[string]*regexp.Regexp{
	"tests":      regexp.MustCompile(`(?i)\b(test|spec|unittest|pytest)\b`),
	"components": regexp.MustCompile(`(?i)\b(component|widget|view|ui)\b`),
	"utils":      regexp.MustCompile(`(?i)\b(util|helper|utility)\b`),
	"config":     regexp.MustCompile(`(?i)\b(config|configuration|setting)\b`),
	"api":        regexp.MustCompile(`(?i)\b(api|endpoint|route|controller)\b`),
	"models":     regexp.MustCompile(`(?i)\b(model|schema|entity)\b`),
	"services":   regexp.MustCompile(`(?i)\b(service|provider|manager)\b`),
}

var expectedLocation = map[string]string{
	"tests":      "tests/ or __tests__/",
	"components": "src/components/ or components/",
	"utils":      "src/utils/ or lib/",
	"config":     "config/ or *.config.*",
	"api":        "api/ or routes/ or app/api/",
	"models":     "models/ or schemas/",
	"services":   "services/ or providers/",
}

// ArchitecturalConsistencyRule is PLAN.ARCHITECTURAL_CONSISTENCY: checks a
// task's evidence-link file paths against the file-type pattern its
// description implies, and flags tasks mixing more than two distinct
// architectural concerns (spec §4.7, ported from
// ArchitecturalConsistencyRule).
type ArchitecturalConsistencyRule struct{}

func (ArchitecturalConsistencyRule) RuleID() string                     { return "PLAN.ARCHITECTURAL_CONSISTENCY" }
func (ArchitecturalConsistencyRule) Name() string                       { return "Architectural Consistency Check" }
func (ArchitecturalConsistencyRule) Category() string                   { return "architecture" }
func (ArchitecturalConsistencyRule) DefaultSeverity() findings.Severity { return findings.SeverityMedium }
func (ArchitecturalConsistencyRule) IsFast() bool                       { return true }
func (ArchitecturalConsistencyRule) Description() string {
	return "Verifies that tasks align with established project patterns and file structure conventions."
}

func (r ArchitecturalConsistencyRule) Validate(ctx *guardrail.Context) []plan.Finding {
	var out []plan.Finding
	for _, task := range ctx.Plan.AllTasks() {
		for _, v := range checkFilePaths(task) {
			out = append(out, guardrail.NewFinding(
				r, ctx.Config,
				fmt.Sprintf("Task '%s' may violate architectural pattern", task.Title),
				[]string{task.ID},
				v.suggestion,
				[]findings.Evidence{{
					Description: v.description,
					Data: map[string]any{
						"file_path":        v.filePath,
						"expected_pattern": v.expected,
						"file_type":        v.fileType,
					},
				}},
				0.85, false, nil,
			))
		}

		for _, v := range checkTaskDescription(task) {
			out = append(out, guardrail.NewFinding(
				r, ctx.Config,
				fmt.Sprintf("Task '%s' may have architectural concerns", task.Title),
				[]string{task.ID},
				v.suggestion,
				[]findings.Evidence{{
					Description: v.description,
					Data: map[string]any{
						"concern":   v.concern,
						"file_type": "unknown",
					},
				}},
				0.75, false, nil,
			))
		}
	}
	return out
}

func (r ArchitecturalConsistencyRule) SuggestRevision(finding plan.Finding, ctx *guardrail.Context) *plan.Revision {
	if len(finding.AffectedTasks) == 0 {
		return nil
	}
	taskID := finding.AffectedTasks[0]
	task := ctx.GetTaskByID(taskID)
	if task == nil {
		return nil
	}

	suggestion := finding.Suggestion
	if suggestion == "" {
		suggestion = "Review file location for consistency."
	}
	warning := "\n\n**Architectural Note:** " + suggestion

	return &plan.Revision{
		Type:         plan.RevisionModifyTask,
		Rationale:    "Adding architectural consistency warning",
		TargetTaskID: taskID,
		Modifications: map[string]any{
			"description": task.Description + warning,
		},
	}
}

type pathViolation struct {
	filePath, fileType, expected, description, suggestion string
}

func checkFilePaths(task plan.Task) []pathViolation {
	var out []pathViolation
	expectedType := detectFileType(task)
	if expectedType == "" {
		return nil
	}
	for _, link := range task.EvidenceLinks {
		filePath := strings.SplitN(link, ":", 2)[0]
		if pathMatchesPattern(filePath, expectedType) {
			continue
		}
		location := expectedLocation[expectedType]
		out = append(out, pathViolation{
			filePath:    filePath,
			fileType:    expectedType,
			expected:    location,
			description: fmt.Sprintf("File '%s' doesn't follow %s pattern", filePath, expectedType),
			suggestion:  fmt.Sprintf("Consider placing %s files in: %s", expectedType, location),
		})
	}
	return out
}

type descriptionViolation struct {
	concern, description, suggestion string
}

func checkTaskDescription(task plan.Task) []descriptionViolation {
	text := task.Title + " " + task.Description

	var concerns []string
	for _, fileType := range fileTypeOrder {
		if fileTypeKeywords[fileType].MatchString(text) {
			concerns = append(concerns, fileType)
		}
	}

	if len(concerns) > 2 {
		return []descriptionViolation{{
			concern:     "multiple_responsibilities",
			description: "Task touches multiple areas: " + strings.Join(concerns, ", "),
			suggestion:  "Consider splitting task into smaller, focused tasks",
		}}
	}
	return nil
}

func detectFileType(task plan.Task) string {
	text := task.Title + " " + task.Description
	for _, fileType := range fileTypeOrder {
		if fileTypeKeywords[fileType].MatchString(text) {
			return fileType
		}
	}
	return ""
}

func pathMatchesPattern(filePath, fileType string) bool {
	for _, p := range expectedPathPatterns[fileType] {
		if p.MatchString(filePath) {
			return true
		}
	}
	return false
}
