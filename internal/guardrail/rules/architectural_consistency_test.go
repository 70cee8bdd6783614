package rules

import (
	"testing"

	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func TestArchitecturalConsistencyRule_FlagsMisplacedFile(t *testing.T) {
	p := planWith(plan.Task{
		ID: "TASK-1", Title: "Add unit tests for auth",
		Description:   "Write pytest tests for the auth module",
		EvidenceLinks: []string{"src/auth.py"},
	})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := ArchitecturalConsistencyRule{}.Validate(ctx)
	require.NotEmpty(t, found)
	require.Equal(t, "PLAN.ARCHITECTURAL_CONSISTENCY", found[0].RuleID)
}

func TestArchitecturalConsistencyRule_MatchingPathNotFlagged(t *testing.T) {
	p := planWith(plan.Task{
		ID: "TASK-1", Title: "Add unit tests for auth",
		Description:   "Write pytest tests for the auth module",
		EvidenceLinks: []string{"tests/test_auth.py"},
	})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := ArchitecturalConsistencyRule{}.Validate(ctx)
	require.Empty(t, found)
}

func TestArchitecturalConsistencyRule_MultipleConcernsFlagged(t *testing.T) {
	p := planWith(plan.Task{
		ID:          "TASK-1",
		Title:       "Build API component model",
		Description: "Add api endpoint, component widget, and model schema in one task",
	})
	ctx := &guardrail.Context{Plan: p, Config: guardrail.DefaultConfig()}

	found := ArchitecturalConsistencyRule{}.Validate(ctx)
	require.NotEmpty(t, found)
	var sawMultiple bool
	for _, f := range found {
		if f.Evidence[0].Data["concern"] == "multiple_responsibilities" {
			sawMultiple = true
		}
	}
	require.True(t, sawMultiple)
}
