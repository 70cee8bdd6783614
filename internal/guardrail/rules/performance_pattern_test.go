package rules

import (
	"testing"

	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func TestPerformancePatternRule_FlagsNPlusOneQuery(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Load user list", Description: "For each user, query the database for their orders"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := PerformancePatternRule{}.Validate(ctx)
	require.NotEmpty(t, found)
	require.Equal(t, "PLAN.PERFORMANCE_PATTERN", found[0].RuleID)
}

func TestPerformancePatternRule_DetectsEachAntiPatternOnceOnly(t *testing.T) {
	p := planWith(plan.Task{
		ID: "TASK-1", Title: "Nested loop query",
		Description: "For each user, query the database for each user, query the database",
	})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := PerformancePatternRule{}.Validate(ctx)
	// The repeated N+1 phrasing yields one N+1 finding; the title's "Nested
	// loop" is a second anti-pattern (Complex Algorithm), also reported once.
	require.Len(t, found, 2)
}

func TestPerformancePatternRule_CleanTaskNotFlagged(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Add health check endpoint", Description: "Expose a simple health check route"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := PerformancePatternRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestPerformancePatternRule_SuggestRevisionAppendsNote(t *testing.T) {
	p := planWith(plan.Task{ID: "TASK-1", Title: "Load user list", Description: "For each user, query the database for their orders"})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	rule := PerformancePatternRule{}
	found := rule.Validate(ctx)
	require.NotEmpty(t, found)

	rev := rule.SuggestRevision(found[0], ctx)
	require.NotNil(t, rev)
	require.Contains(t, rev.Modifications["description"], "Performance Note")
}
