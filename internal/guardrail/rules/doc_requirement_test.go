package rules

import (
	"testing"

	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func TestDocRequirementRule_FlagsUserFacingTaskWithoutDocs(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Add CLI flag", Description: "Add new --verbose flag to the CLI"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := DocRequirementRule{}.Validate(ctx)
	require.Len(t, found, 1)
	require.Equal(t, "PLAN.DOC_REQUIREMENT", found[0].RuleID)
}

func TestDocRequirementRule_NonUserFacingTaskSkipped(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Refactor internal cache", Description: "Clean up internal module"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := DocRequirementRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestDocRequirementRule_DependentDocTaskSuppressesFinding(t *testing.T) {
	p := planWith(
		plan.Task{ID: "TASK-1", Title: "Add CLI flag", Description: "Add new --verbose flag to the CLI"},
		plan.Task{ID: "TASK-2", Title: "Update docs", Description: "Update the readme for the new flag", Dependencies: []string{"TASK-1"}},
	)
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := DocRequirementRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestDocRequirementRule_SuggestRevisionBuildsDocTask(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Add CLI flag", Description: "Add new --verbose flag to the CLI", Priority: 1, Impact: 0.5})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	rule := DocRequirementRule{}
	found := rule.Validate(ctx)
	require.Len(t, found, 1)

	rev := rule.SuggestRevision(found[0], ctx)
	require.NotNil(t, rev)
	require.Equal(t, "TASK-DOC-1", rev.NewTask.ID)
	require.InDelta(t, 0.3, rev.NewTask.Impact, 0.001)
}
