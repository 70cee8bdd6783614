package autorevision

import (
	"testing"

	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func twoTaskPlan() plan.ImplementationPlan {
	return plan.ImplementationPlan{Groups: []plan.TaskGroup{
		{Scope: "components", Tasks: []plan.Task{
			{ID: "TASK-A", Dependencies: []string{}},
			{ID: "TASK-B", Dependencies: []string{"TASK-A"}},
		}},
	}}
}

func TestCheckConflicts_AddDependencyRejectsCycle(t *testing.T) {
	p := twoTaskPlan()
	rev := plan.Revision{Type: plan.RevisionAddDependency, DependencyAdditions: [][2]string{{"TASK-A", "TASK-B"}}}

	reason, ok := checkConflicts(&p, rev)
	require.False(t, ok)
	require.Contains(t, reason, "cycle")
}

func TestCheckConflicts_AddDependencyAcceptsNonCycle(t *testing.T) {
	p := twoTaskPlan()
	p.Groups[0].Tasks = append(p.Groups[0].Tasks, plan.Task{ID: "TASK-C"})
	rev := plan.Revision{Type: plan.RevisionAddDependency, DependencyAdditions: [][2]string{{"TASK-C", "TASK-B"}}}

	_, ok := checkConflicts(&p, rev)
	require.True(t, ok)
}

func TestCheckConflicts_RemoveTaskRejectedWhenDependedOn(t *testing.T) {
	p := twoTaskPlan()
	rev := plan.Revision{Type: plan.RevisionRemoveTask, TargetTaskID: "TASK-A"}

	reason, ok := checkConflicts(&p, rev)
	require.False(t, ok)
	require.Contains(t, reason, "depends")
}

func TestCheckConflicts_ModifyTaskRejectedWhenMissing(t *testing.T) {
	p := twoTaskPlan()
	rev := plan.Revision{Type: plan.RevisionModifyTask, TargetTaskID: "TASK-Z"}

	_, ok := checkConflicts(&p, rev)
	require.False(t, ok)
}

func TestWouldCreateCycle_DetectsTransitiveCycle(t *testing.T) {
	graph := map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {},
	}
	require.True(t, wouldCreateCycle(graph, "C", "A"))
	require.False(t, wouldCreateCycle(graph, "A", "C"))
}

func TestApplyAddDependency_AppendsWithoutDuplicating(t *testing.T) {
	p := twoTaskPlan()
	rev := plan.Revision{Type: plan.RevisionAddDependency, DependencyAdditions: [][2]string{{"TASK-B", "TASK-A"}}}

	applyAddDependency(&p, rev)
	gi, ti, ok := findTask(&p, "TASK-B")
	require.True(t, ok)
	require.Equal(t, []string{"TASK-A"}, p.Groups[gi].Tasks[ti].Dependencies)
}

func TestResolveDependencies_StripsDanglingReferences(t *testing.T) {
	p := twoTaskPlan()
	p.Groups[0].Tasks[1].Dependencies = append(p.Groups[0].Tasks[1].Dependencies, "TASK-GONE")

	resolveDependencies(&p)
	require.Equal(t, []string{"TASK-A"}, p.AllTasks()[1].Dependencies)
}
