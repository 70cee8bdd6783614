package rules

import (
	"fmt"
	"regexp"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/memory"
	"github.com/rlefko/planguard/internal/plan"
)

const defaultSimilarityThreshold = 0.70

var creationKeywords = regexp.MustCompile(`(?i)\b(implement|create|add|build|write|develop|introduce|new)\b`)

var searchEntityTypes = []string{"function", "class", "implementation_pattern"}

// DuplicateDetectionRule is PLAN.DUPLICATE_DETECTION: flags tasks that
// create new code when semantic memory search turns up an existing
// similar implementation. The only non-fast rule, since it performs a
// memory search (spec §4.7, ported from DuplicateDetectionRule).
type DuplicateDetectionRule struct{}

func (DuplicateDetectionRule) RuleID() string                     { return "PLAN.DUPLICATE_DETECTION" }
func (DuplicateDetectionRule) Name() string                       { return "Duplicate Code Detection" }
func (DuplicateDetectionRule) Category() string                   { return "consistency" }
func (DuplicateDetectionRule) DefaultSeverity() findings.Severity { return findings.SeverityHigh }
func (DuplicateDetectionRule) IsFast() bool                       { return false }
func (DuplicateDetectionRule) Description() string {
	return "Detects tasks that might duplicate existing functionality using semantic code search."
}

func (r DuplicateDetectionRule) Validate(ctx *guardrail.Context) []plan.Finding {
	if ctx.Memory == nil {
		return nil
	}

	threshold := defaultSimilarityThreshold
	if rc, ok := ctx.Config.GetRuleConfig(r.RuleID()); ok && rc.Threshold != nil {
		threshold = *rc.Threshold
	}

	var out []plan.Finding
	for _, task := range ctx.Plan.AllTasks() {
		if !creationKeywords.MatchString(task.Title + " " + task.Description) {
			continue
		}

		similar := searchForDuplicates(ctx, task, threshold)
		if len(similar) == 0 {
			continue
		}

		top := 3
		if len(similar) < top {
			top = len(similar)
		}
		evidence := make([]findings.Evidence, 0, top)
		maxScore := 0.0
		for i := 0; i < top; i++ {
			m := similar[i]
			if m.Score > maxScore {
				maxScore = m.Score
			}
			evidence = append(evidence, findings.Evidence{
				Description: fmt.Sprintf("Similar code found: %s", m.Name),
				Data: map[string]any{
					"name":      m.Name,
					"type":      m.EntityType,
					"file_path": m.FilePath,
					"score":     m.Score,
				},
			})
		}
		for _, m := range similar[top:] {
			if m.Score > maxScore {
				maxScore = m.Score
			}
		}
		confidence := maxScore
		if confidence > 0.95 {
			confidence = 0.95
		}

		out = append(out, guardrail.NewFinding(
			r, ctx.Config,
			fmt.Sprintf("Task '%s' may duplicate existing code: %s", task.Title, similar[0].Name),
			[]string{task.ID},
			fmt.Sprintf("Review existing %s '%s' before implementing", similar[0].EntityType, similar[0].Name),
			evidence,
			confidence, true, nil,
		))
	}
	return out
}

func (r DuplicateDetectionRule) SuggestRevision(finding plan.Finding, ctx *guardrail.Context) *plan.Revision {
	if len(finding.AffectedTasks) == 0 {
		return nil
	}
	taskID := finding.AffectedTasks[0]
	task := ctx.GetTaskByID(taskID)
	if task == nil {
		return nil
	}

	existingCode := "existing code"
	filePath := ""
	if len(finding.Evidence) > 0 && finding.Evidence[0].Data != nil {
		if name, ok := finding.Evidence[0].Data["name"].(string); ok && name != "" {
			existingCode = name
		}
		if fp, ok := finding.Evidence[0].Data["file_path"].(string); ok {
			filePath = fp
		}
	}

	location := ""
	if filePath != "" {
		location = " in " + filePath
	}
	note := fmt.Sprintf("\n\n**Note:** Review existing implementation '%s'%s before proceeding. Consider extending or reusing existing code.", existingCode, location)

	newDescription := task.Description + note
	newCriteria := append(append([]string{}, task.AcceptanceCriteria...), fmt.Sprintf("Verified no duplication with existing '%s'", existingCode))

	return &plan.Revision{
		Type:         plan.RevisionModifyTask,
		Rationale:    "Potential duplicate of existing code detected: " + existingCode,
		TargetTaskID: taskID,
		Modifications: map[string]any{
			"description":         newDescription,
			"acceptance_criteria": newCriteria,
		},
	}
}

func searchForDuplicates(ctx *guardrail.Context, task plan.Task, threshold float64) []memory.Result {
	desc := task.Description
	if len(desc) > 200 {
		desc = desc[:200]
	}
	query := task.Title + " " + desc

	results := ctx.SearchMemory(query, 5, searchEntityTypes)

	var duplicates []memory.Result
	for _, result := range results {
		if result.Score >= threshold {
			duplicates = append(duplicates, result)
		}
	}
	return duplicates
}
