// Package history implements plan snapshotting, rollback, and on-disk
// persistence (spec §6 "Applied-revision history is append-only" plus its
// supplemented rollback/versioning feature). Grounded on
// original_source/claude_indexer/ui/plan/guardrails/revision_history.py's
// PlanSnapshot/RevisionHistoryManager/PlanPersistence.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rlefko/planguard/internal/plan"
)

// Snapshot is a complete serialized copy of a plan's state at one point in
// time, minus its revision history (kept out to avoid unbounded snapshot
// growth — the live plan already carries its own history).
type Snapshot struct {
	Version                 int             `json:"version"`
	Data                    json.RawMessage `json:"snapshot"`
	CreatedAt               string          `json:"created_at"`
	Description             string          `json:"description"`
	RevisionCountAtSnapshot int             `json:"revision_count_at_snapshot"`
}

// Manager tracks a plan's snapshots over time, enabling rollback to any
// previously captured version.
type Manager struct {
	Snapshots   []Snapshot `json:"snapshots"`
	NextVersion int        `json:"next_version"`
}

// NewManager returns an empty manager whose first snapshot will be version 1.
func NewManager() *Manager {
	return &Manager{NextVersion: 1}
}

// CreateSnapshot captures p's current state (without revision history) as a
// new, monotonically versioned snapshot. createdAt is caller-supplied for
// determinism, matching plan.NewImplementationPlan's convention.
func (m *Manager) CreateSnapshot(p plan.ImplementationPlan, description string, createdAt time.Time) (Snapshot, error) {
	stripped := p
	stripped.RevisionHistory = nil

	data, err := json.Marshal(stripped)
	if err != nil {
		return Snapshot{}, fmt.Errorf("serialize plan snapshot: %w", err)
	}

	snap := Snapshot{
		Version:                 m.NextVersion,
		Data:                    data,
		CreatedAt:               createdAt.Format(time.RFC3339),
		Description:             description,
		RevisionCountAtSnapshot: p.RevisionCount(),
	}
	m.Snapshots = append(m.Snapshots, snap)
	m.NextVersion++

	return snap, nil
}

// GetSnapshot returns the snapshot at version, or ok=false if none matches.
func (m *Manager) GetSnapshot(version int) (Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.Version == version {
			return s, true
		}
	}
	return Snapshot{}, false
}

// LatestSnapshot returns the most recently created snapshot, or ok=false if
// none exist.
func (m *Manager) LatestSnapshot() (Snapshot, bool) {
	if len(m.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return m.Snapshots[len(m.Snapshots)-1], true
}

// VersionInfo is one entry of ListVersions' summary.
type VersionInfo struct {
	Version     int
	CreatedAt   string
	Description string
}

// ListVersions summarizes every snapshot in creation order.
func (m *Manager) ListVersions() []VersionInfo {
	out := make([]VersionInfo, len(m.Snapshots))
	for i, s := range m.Snapshots {
		out[i] = VersionInfo{Version: s.Version, CreatedAt: s.CreatedAt, Description: s.Description}
	}
	return out
}

// VersionCount is the number of snapshots stored.
func (m *Manager) VersionCount() int { return len(m.Snapshots) }

// RollbackToVersion restores the plan state captured at version. When
// preserveHistory is true, the restored plan keeps current's full revision
// history; otherwise the history is truncated to the point the snapshot was
// taken at.
func (m *Manager) RollbackToVersion(current plan.ImplementationPlan, version int, preserveHistory bool) (plan.ImplementationPlan, error) {
	snap, ok := m.GetSnapshot(version)
	if !ok {
		return plan.ImplementationPlan{}, fmt.Errorf("version %d not found in history", version)
	}

	var restored plan.ImplementationPlan
	if err := json.Unmarshal(snap.Data, &restored); err != nil {
		return plan.ImplementationPlan{}, fmt.Errorf("deserialize snapshot %d: %w", version, err)
	}

	if preserveHistory {
		restored.RevisionHistory = append([]plan.AppliedRevision{}, current.RevisionHistory...)
	} else {
		cut := snap.RevisionCountAtSnapshot
		if cut > len(current.RevisionHistory) {
			cut = len(current.RevisionHistory)
		}
		restored.RevisionHistory = append([]plan.AppliedRevision{}, current.RevisionHistory[:cut]...)
	}

	return restored, nil
}
