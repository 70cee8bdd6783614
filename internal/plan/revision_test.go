package plan

import (
	"testing"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestFormatRevisionHistory_EmptyHistory(t *testing.T) {
	p := NewImplementationPlan(time.Unix(0, 0), nil, nil, "")
	got := p.FormatRevisionHistory()
	require.Contains(t, got, "No revisions have been applied")
}

func TestFormatRevisionHistory_AddTaskEntry(t *testing.T) {
	p := NewImplementationPlan(time.Unix(0, 0), nil, nil, "")
	p.AddRevisions([]AppliedRevision{{
		Revision: Revision{
			Type:      RevisionAddTask,
			Rationale: "missing test coverage",
			NewTask:   &Task{ID: "task-2", Title: "Add AuthService tests"},
		},
		Finding: Finding{
			RuleID:     "PLAN.TEST_REQUIREMENT",
			Confidence: 0.9,
		},
		AppliedAt: "2026-07-30T00:00:00Z",
		Success:   true,
	}})

	got := p.FormatRevisionHistory()
	require.Contains(t, got, "Add Task")
	require.Contains(t, got, "PLAN.TEST_REQUIREMENT")
	require.Contains(t, got, "Added**: Task 'task-2' - Add AuthService tests")
	require.Contains(t, got, "90%")
}

func TestFinding_SatisfiesConfidencedInterface(t *testing.T) {
	f := Finding{Confidence: 0.42, Severity: findings.SeverityMedium}
	require.Equal(t, 0.42, f.GetConfidence())
}
