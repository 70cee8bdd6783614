// Package plan holds the implementation-plan data model (spec §3): tasks
// grouped by scope, rolled up into a plan with quick-win and effort
// summaries, plus the append-only revision history a plan accumulates
// across auto-revision passes. Grounded on the original's
// ui/plan/task.py dataclasses, translated to Go structs with JSON tags
// for wire compatibility with the hook CLI surface.
package plan

import "time"

// Task is a single actionable item in an implementation plan (spec §3
// "Task | id; title; description; scope; priority...").
type Task struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Scope              string   `json:"scope"` // "tokens" | "components" | "pages"
	Priority           int      `json:"priority"` // 1 highest .. 5
	EstimatedEffort    string   `json:"estimated_effort"` // "low" | "medium" | "high"
	Impact             float64  `json:"impact"`           // 0.0-1.0
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	EvidenceLinks      []string `json:"evidence_links,omitempty"`
	RelatedCritiqueIDs []string `json:"related_critique_ids,omitempty"`
	Dependencies       []string `json:"dependencies,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

var effortScore = map[string]float64{"low": 0.3, "medium": 0.6, "high": 1.0}

// PriorityScore is impact / (1 + effort_score): higher is higher priority
// (high impact, low effort wins).
func (t Task) PriorityScore() float64 {
	score, ok := effortScore[t.EstimatedEffort]
	if !ok {
		score = effortScore["medium"]
	}
	return t.Impact / (1 + score)
}

// IsQuickWin reports high impact, low effort (spec §7 supplemented feature,
// thresholds ported verbatim from the original).
func (t Task) IsQuickWin() bool {
	return t.Impact >= 0.7 && t.EstimatedEffort == "low"
}

// TaskGroup groups related tasks by scope, ordered by priority within the
// group (spec §3 "Task group | scope label; description; ordered list of
// tasks").
type TaskGroup struct {
	Scope       string `json:"scope"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}

// TotalTasks is the task count, included for JSON parity with the original's
// to_dict output.
func (g TaskGroup) TotalTasks() int { return len(g.Tasks) }

// TotalEffort buckets the group's combined effort by a weighted task count
// (low=1, medium=2, high=4); thresholds <=3 low, <=8 medium, else high
// (spec §7, ported verbatim — distinct from ImplementationPlan's
// plan-wide thresholds below).
func (g TaskGroup) TotalEffort() string {
	return effortBucket(g.Tasks, 3, 8)
}

// QuickWins returns this group's quick-win tasks.
func (g TaskGroup) QuickWins() []Task {
	var out []Task
	for _, t := range g.Tasks {
		if t.IsQuickWin() {
			out = append(out, t)
		}
	}
	return out
}

func effortBucket(tasks []Task, lowMax, mediumMax int) string {
	weight := 0
	for _, t := range tasks {
		switch t.EstimatedEffort {
		case "low":
			weight += 1
		case "medium":
			weight += 2
		case "high":
			weight += 4
		}
	}
	switch {
	case weight <= lowMax:
		return "low"
	case weight <= mediumMax:
		return "medium"
	default:
		return "high"
	}
}

// ImplementationPlan is the complete, grouped plan with summary statistics
// and cumulative revision history (spec §3; history per spec §6 "Applied-
// revision history is append-only").
type ImplementationPlan struct {
	Groups          []TaskGroup       `json:"groups"`
	QuickWins       []Task            `json:"quick_wins"`
	GeneratedAt     string            `json:"generated_at"`
	FocusArea       *string           `json:"focus_area,omitempty"`
	Summary         string            `json:"summary"`
	RevisionHistory []AppliedRevision `json:"revision_history"`
}

// NewImplementationPlan stamps GeneratedAt with the given timestamp (the
// caller supplies it, since this package must not call time.Now() directly
// to stay deterministic for tests and replay).
func NewImplementationPlan(generatedAt time.Time, groups []TaskGroup, focusArea *string, summary string) ImplementationPlan {
	p := ImplementationPlan{
		Groups:      groups,
		GeneratedAt: generatedAt.Format(time.RFC3339),
		FocusArea:   focusArea,
		Summary:     summary,
	}
	for _, g := range groups {
		p.QuickWins = append(p.QuickWins, g.QuickWins()...)
	}
	return p
}

// TotalTasks is the task count across all groups.
func (p ImplementationPlan) TotalTasks() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Tasks)
	}
	return n
}

// EstimatedTotalEffort buckets the whole plan's effort; thresholds <=5 low,
// <=15 medium, else high — distinct from TaskGroup.TotalEffort's <=3/<=8
// (spec §7, both ported verbatim from the original since they use
// different buckets for group vs. plan scope).
func (p ImplementationPlan) EstimatedTotalEffort() string {
	return effortBucket(p.AllTasks(), 5, 15)
}

// AllTasks flattens every group's tasks into one slice.
func (p ImplementationPlan) AllTasks() []Task {
	var out []Task
	for _, g := range p.Groups {
		out = append(out, g.Tasks...)
	}
	return out
}

// GetTasksByPriority returns tasks at or above the given priority (1 =
// highest), i.e. priority <= maxPriority.
func (p ImplementationPlan) GetTasksByPriority(maxPriority int) []Task {
	var out []Task
	for _, t := range p.AllTasks() {
		if t.Priority <= maxPriority {
			out = append(out, t)
		}
	}
	return out
}

// GetGroupByScope returns the group matching scope, or nil if absent.
func (p ImplementationPlan) GetGroupByScope(scope string) *TaskGroup {
	for i := range p.Groups {
		if p.Groups[i].Scope == scope {
			return &p.Groups[i]
		}
	}
	return nil
}

// RevisionCount is the number of revisions applied to this plan.
func (p ImplementationPlan) RevisionCount() int { return len(p.RevisionHistory) }

// AddRevisions appends to the cumulative, append-only history (spec §6
// invariant).
func (p *ImplementationPlan) AddRevisions(revisions []AppliedRevision) {
	p.RevisionHistory = append(p.RevisionHistory, revisions...)
}
