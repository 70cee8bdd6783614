package rules

import (
	"testing"
	"time"

	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func planWith(tasks ...plan.Task) *plan.ImplementationPlan {
	p := plan.NewImplementationPlan(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]plan.TaskGroup{{Scope: "components", Tasks: tasks}},
		nil, "test plan",
	)
	return &p
}

func TestTestRequirementRule_FlagsFeatureTaskWithoutTests(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Implement payment flow", Description: "Add new payment processing"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := TestRequirementRule{}.Validate(ctx)
	require.Len(t, found, 1)
	require.Equal(t, "PLAN.TEST_REQUIREMENT", found[0].RuleID)
	require.Equal(t, []string{"TASK-1"}, found[0].AffectedTasks)
}

func TestTestRequirementRule_DependentTestTaskSuppressesFinding(t *testing.T) {
	p := planWith(
		plan.Task{ID: "TASK-1", Title: "Implement payment flow", Description: "Add new payment processing"},
		plan.Task{ID: "TASK-2", Title: "Add tests for payment flow", Description: "Write unit tests", Dependencies: []string{"TASK-1"}},
	)
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := TestRequirementRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestTestRequirementRule_TrivialTaskSkipped(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Fix typo in readme", Description: "Fix typo"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := TestRequirementRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestTestRequirementRule_SuggestRevisionBuildsTestTask(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Implement payment flow", Description: "Add new payment processing", Scope: "components", Priority: 2, Impact: 0.8})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	rule := TestRequirementRule{}
	found := rule.Validate(ctx)
	require.Len(t, found, 1)

	rev := rule.SuggestRevision(found[0], ctx)
	require.NotNil(t, rev)
	require.Equal(t, plan.RevisionAddTask, rev.Type)
	require.Equal(t, "TASK-TST-1", rev.NewTask.ID)
	require.Equal(t, 3, rev.NewTask.Priority)
	require.InDelta(t, 0.64, rev.NewTask.Impact, 0.001)
}
