package autorevision

import (
	"testing"

	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func groupedPlan() plan.ImplementationPlan {
	return plan.ImplementationPlan{Groups: []plan.TaskGroup{
		{Scope: "components", Description: "components", Tasks: []plan.Task{
			{ID: "TASK-1", Priority: 3, EstimatedEffort: "medium", Impact: 0.5},
			{ID: "TASK-2", Priority: 2, EstimatedEffort: "low", Impact: 0.8},
		}},
	}}
}

func TestApplyAddTask_CreatesNewGroupWhenScopeAbsent(t *testing.T) {
	p := groupedPlan()
	rev := plan.Revision{Type: plan.RevisionAddTask, NewTask: &plan.Task{ID: "TASK-NEW", Scope: "api", Priority: 1, EstimatedEffort: "low", Impact: 0.9}}

	require.NoError(t, applyAddTask(&p, rev))
	group := p.GetGroupByScope("api")
	require.NotNil(t, group)
	require.Len(t, group.Tasks, 1)
	require.Contains(t, p.QuickWins, *rev.NewTask)
}

func TestApplyAddTask_AppendsToExistingGroup(t *testing.T) {
	p := groupedPlan()
	rev := plan.Revision{Type: plan.RevisionAddTask, NewTask: &plan.Task{ID: "TASK-NEW", Scope: "components", Priority: 1, EstimatedEffort: "medium", Impact: 0.5}}

	require.NoError(t, applyAddTask(&p, rev))
	require.Len(t, p.Groups[0].Tasks, 3)
}

func TestApplyRemoveTask_RemovesMatchingTask(t *testing.T) {
	p := groupedPlan()
	applyRemoveTask(&p, plan.Revision{Type: plan.RevisionRemoveTask, TargetTaskID: "TASK-1"})

	require.Len(t, p.AllTasks(), 1)
	require.Equal(t, "TASK-2", p.AllTasks()[0].ID)
}

func TestApplyReorderTasks_PromotesTaskAndResorts(t *testing.T) {
	p := groupedPlan()
	applyReorderTasks(&p, plan.Revision{Type: plan.RevisionReorderTasks, TargetTaskID: "TASK-1"})

	require.Equal(t, 2, p.Groups[0].Tasks[0].Priority)
}

func TestApplyModifyTask_MergesKnownFields(t *testing.T) {
	p := groupedPlan()
	rev := plan.Revision{
		Type: plan.RevisionModifyTask, TargetTaskID: "TASK-1",
		Modifications: map[string]any{
			"priority":             1,
			"acceptance_criteria":  "must pass CI",
			"tags":                 "urgent",
		},
	}

	require.NoError(t, applyModifyTask(&p, rev))
	task := p.AllTasks()[0]
	require.Equal(t, 1, task.Priority)
	require.Contains(t, task.AcceptanceCriteria, "must pass CI")
	require.Contains(t, task.Tags, "urgent")
}

func TestApplyModifyTask_UnknownTaskErrors(t *testing.T) {
	p := groupedPlan()
	err := applyModifyTask(&p, plan.Revision{Type: plan.RevisionModifyTask, TargetTaskID: "TASK-MISSING"})
	require.Error(t, err)
}
