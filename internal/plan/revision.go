package plan

import (
	"fmt"
	"strings"

	"github.com/rlefko/planguard/internal/findings"
)

// RevisionType enumerates the kinds of change a guardrail rule can propose
// against a plan (spec §4.8/§9's ADD-TASK/ADD-DEPENDENCY/MODIFY-TASK/
// REORDER/REMOVE-TASK vocabulary; order here matches application order).
type RevisionType string

const (
	RevisionAddTask       RevisionType = "add_task"
	RevisionAddDependency RevisionType = "add_dependency"
	RevisionModifyTask    RevisionType = "modify_task"
	RevisionReorderTasks  RevisionType = "reorder_tasks"
	RevisionRemoveTask    RevisionType = "remove_task"
)

// Revision is a suggested change to a plan, produced by a guardrail rule's
// suggest_revision operation (spec §4.8).
type Revision struct {
	Type                RevisionType      `json:"revision_type"`
	Rationale           string            `json:"rationale"`
	TargetTaskID        string            `json:"target_task_id,omitempty"`
	NewTask             *Task             `json:"new_task,omitempty"`
	Modifications       map[string]any    `json:"modifications,omitempty"`
	DependencyAdditions [][2]string       `json:"dependency_additions,omitempty"`
}

// Finding is a plan-validation finding from a guardrail rule (spec §4.8;
// shares Evidence/Severity with the code-rule findings shape per spec §3's
// "same shape is reused... with the context type differing").
type Finding struct {
	RuleID           string             `json:"rule_id"`
	Severity         findings.Severity  `json:"severity"`
	Summary          string             `json:"summary"`
	AffectedTasks    []string           `json:"affected_tasks,omitempty"`
	Suggestion       string             `json:"suggestion,omitempty"`
	CanAutoRevise    bool               `json:"can_auto_revise"`
	Confidence       float64            `json:"confidence"`
	Evidence         []findings.Evidence `json:"evidence,omitempty"`
	SuggestedRevision *Revision          `json:"suggested_revision,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

// GetConfidence satisfies runutil.Confidenced so the shared filter/cap
// helpers work uniformly over code findings and plan findings.
func (f Finding) GetConfidence() float64 { return f.Confidence }

// AppliedRevision records one revision actually applied to a plan, success
// or failure, as an entry in the plan's append-only history (spec §6).
type AppliedRevision struct {
	Revision  Revision `json:"revision"`
	Finding   Finding  `json:"finding"`
	AppliedAt string   `json:"applied_at"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
}

// FormatRevisionHistory renders the plan's cumulative revision history as
// human-readable markdown (spec §7 supplemented feature, ported from the
// original's format_revision_history).
func (p ImplementationPlan) FormatRevisionHistory() string {
	var b strings.Builder
	b.WriteString("## Plan Revision History\n\n")

	if len(p.RevisionHistory) == 0 {
		b.WriteString("*No revisions have been applied to this plan.*")
		return b.String()
	}

	fmt.Fprintf(&b, "**Total revisions**: %d\n\n", p.RevisionCount())

	for i, applied := range p.RevisionHistory {
		rev := applied.Revision
		finding := applied.Finding

		fmt.Fprintf(&b, "### %d. %s\n", i+1, revisionTypeTitle(rev.Type))
		fmt.Fprintf(&b, "- **Applied at**: %s\n", applied.AppliedAt)
		fmt.Fprintf(&b, "- **Rule**: %s\n", finding.RuleID)
		fmt.Fprintf(&b, "- **Reason**: %s\n", rev.Rationale)
		fmt.Fprintf(&b, "- **Confidence**: %.0f%%\n", finding.Confidence*100)

		if !applied.Success {
			fmt.Fprintf(&b, "- **Status**: Failed - %s\n", applied.Error)
		} else {
			b.WriteString("- **Status**: Success\n")
		}

		switch rev.Type {
		case RevisionAddTask:
			if rev.NewTask != nil {
				fmt.Fprintf(&b, "- **Added**: Task '%s' - %s\n", rev.NewTask.ID, rev.NewTask.Title)
			}
		case RevisionModifyTask:
			fmt.Fprintf(&b, "- **Modified**: Task '%s'\n", rev.TargetTaskID)
			if len(rev.Modifications) > 0 {
				fields := make([]string, 0, len(rev.Modifications))
				for k := range rev.Modifications {
					fields = append(fields, k)
				}
				fmt.Fprintf(&b, "- **Fields changed**: %s\n", strings.Join(fields, ", "))
			}
		case RevisionRemoveTask:
			fmt.Fprintf(&b, "- **Removed**: Task '%s'\n", rev.TargetTaskID)
		case RevisionAddDependency:
			for _, dep := range rev.DependencyAdditions {
				fmt.Fprintf(&b, "- **Dependency added**: %s -> %s\n", dep[0], dep[1])
			}
		case RevisionReorderTasks:
			fmt.Fprintf(&b, "- **Reordered**: Task '%s'\n", rev.TargetTaskID)
		}

		b.WriteString("\n")
	}

	return b.String()
}

func revisionTypeTitle(t RevisionType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
