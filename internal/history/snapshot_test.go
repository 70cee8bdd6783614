package history

import (
	"testing"
	"time"

	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

func buildPlan() plan.ImplementationPlan {
	p := plan.NewImplementationPlan(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), []plan.TaskGroup{
		{Scope: "components", Tasks: []plan.Task{{ID: "TASK-1", Title: "Build widget", Priority: 1, EstimatedEffort: "low", Impact: 0.8}}},
	}, nil, "v1")
	p.AddRevisions([]plan.AppliedRevision{{AppliedAt: "2026-01-01T00:00:00Z", Success: true}})
	return p
}

func TestCreateSnapshot_StripsRevisionHistoryAndAssignsVersion(t *testing.T) {
	m := NewManager()
	snap, err := m.CreateSnapshot(buildPlan(), "initial", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Equal(t, 1, snap.Version)
	require.Equal(t, 1, snap.RevisionCountAtSnapshot)
	require.NotContains(t, string(snap.Data), "revision_history\":[{")
	require.Equal(t, 1, m.VersionCount())
	require.Equal(t, 2, m.NextVersion)
}

func TestGetSnapshot_ReturnsMatchingVersion(t *testing.T) {
	m := NewManager()
	m.CreateSnapshot(buildPlan(), "v1", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	m.CreateSnapshot(buildPlan(), "v2", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))

	snap, ok := m.GetSnapshot(2)
	require.True(t, ok)
	require.Equal(t, "v2", snap.Description)

	_, ok = m.GetSnapshot(99)
	require.False(t, ok)
}

func TestLatestSnapshot_ReturnsMostRecent(t *testing.T) {
	m := NewManager()
	m.CreateSnapshot(buildPlan(), "v1", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	m.CreateSnapshot(buildPlan(), "v2", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))

	snap, ok := m.LatestSnapshot()
	require.True(t, ok)
	require.Equal(t, "v2", snap.Description)
}

func TestRollbackToVersion_RestoresPlanStateAndPreservesHistory(t *testing.T) {
	m := NewManager()
	original := buildPlan()
	m.CreateSnapshot(original, "before rename", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	current := original
	current.Groups[0].Tasks[0].Title = "Renamed widget"
	current.AddRevisions([]plan.AppliedRevision{{AppliedAt: "2026-01-03T00:00:00Z", Success: true}})

	restored, err := m.RollbackToVersion(current, 1, true)
	require.NoError(t, err)
	require.Equal(t, "Build widget", restored.AllTasks()[0].Title)
	require.Len(t, restored.RevisionHistory, 2)
}

func TestRollbackToVersion_TruncatesHistoryWhenNotPreserved(t *testing.T) {
	m := NewManager()
	original := buildPlan()
	m.CreateSnapshot(original, "before rename", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	current := original
	current.AddRevisions([]plan.AppliedRevision{{AppliedAt: "2026-01-03T00:00:00Z", Success: true}})

	restored, err := m.RollbackToVersion(current, 1, false)
	require.NoError(t, err)
	require.Len(t, restored.RevisionHistory, 1)
}

func TestRollbackToVersion_UnknownVersionErrors(t *testing.T) {
	m := NewManager()
	_, err := m.RollbackToVersion(buildPlan(), 7, true)
	require.Error(t, err)
}

func TestListVersions_ReportsInCreationOrder(t *testing.T) {
	m := NewManager()
	m.CreateSnapshot(buildPlan(), "a", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	m.CreateSnapshot(buildPlan(), "b", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))

	versions := m.ListVersions()
	require.Len(t, versions, 2)
	require.Equal(t, "a", versions[0].Description)
	require.Equal(t, "b", versions[1].Description)
}
