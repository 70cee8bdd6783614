package autorevision

import (
	"fmt"
	"sort"

	"github.com/rlefko/planguard/internal/plan"
)

// applyRevision deep-copies current and applies revision to the copy,
// returning the new plan. checkConflicts must have already approved
// revision; applyRevision only reports an error for malformed revisions
// (an add_task with no new_task, a target task that does not exist, or an
// unknown revision type), never for conflicts.
func applyRevision(current plan.ImplementationPlan, revision plan.Revision) (plan.ImplementationPlan, error) {
	next := deepCopyPlan(current)

	switch revision.Type {
	case plan.RevisionAddTask:
		if err := applyAddTask(&next, revision); err != nil {
			return current, err
		}
	case plan.RevisionModifyTask:
		if err := applyModifyTask(&next, revision); err != nil {
			return current, err
		}
	case plan.RevisionRemoveTask:
		applyRemoveTask(&next, revision)
	case plan.RevisionAddDependency:
		applyAddDependency(&next, revision)
	case plan.RevisionReorderTasks:
		applyReorderTasks(&next, revision)
	default:
		return current, fmt.Errorf("unknown revision type %q", revision.Type)
	}

	return next, nil
}

func applyAddTask(p *plan.ImplementationPlan, rev plan.Revision) error {
	if rev.NewTask == nil {
		return fmt.Errorf("add_task revision has no new_task")
	}
	task := *rev.NewTask

	group := p.GetGroupByScope(task.Scope)
	if group == nil {
		p.Groups = append(p.Groups, plan.TaskGroup{Scope: task.Scope, Description: task.Scope, Tasks: nil})
		group = &p.Groups[len(p.Groups)-1]
	}
	group.Tasks = append(group.Tasks, task)
	recomputeQuickWins(p)
	return nil
}

func applyModifyTask(p *plan.ImplementationPlan, rev plan.Revision) error {
	gi, ti, ok := findTask(p, rev.TargetTaskID)
	if !ok {
		return fmt.Errorf("task %s not found", rev.TargetTaskID)
	}
	task := &p.Groups[gi].Tasks[ti]

	for field, value := range rev.Modifications {
		switch field {
		case "description":
			if s, ok := value.(string); ok {
				task.Description = s
			}
		case "acceptance_criteria":
			switch v := value.(type) {
			case []string:
				task.AcceptanceCriteria = append([]string(nil), v...)
			case string:
				task.AcceptanceCriteria = append(task.AcceptanceCriteria, v)
			}
		case "priority":
			switch v := value.(type) {
			case int:
				task.Priority = v
			case float64:
				task.Priority = int(v)
			}
		case "tags":
			switch v := value.(type) {
			case []string:
				task.Tags = append(task.Tags, v...)
			case string:
				task.Tags = append(task.Tags, v)
			}
		case "estimated_effort":
			if s, ok := value.(string); ok {
				task.EstimatedEffort = s
			}
		}
	}

	recomputeQuickWins(p)
	return nil
}

func applyRemoveTask(p *plan.ImplementationPlan, rev plan.Revision) {
	for gi := range p.Groups {
		tasks := p.Groups[gi].Tasks
		for ti, t := range tasks {
			if t.ID == rev.TargetTaskID {
				p.Groups[gi].Tasks = append(tasks[:ti], tasks[ti+1:]...)
				recomputeQuickWins(p)
				return
			}
		}
	}
}

func applyAddDependency(p *plan.ImplementationPlan, rev plan.Revision) {
	for _, pair := range rev.DependencyAdditions {
		from, to := pair[0], pair[1]
		gi, ti, ok := findTask(p, from)
		if !ok {
			continue
		}
		task := &p.Groups[gi].Tasks[ti]
		already := false
		for _, d := range task.Dependencies {
			if d == to {
				already = true
				break
			}
		}
		if !already {
			task.Dependencies = append(task.Dependencies, to)
		}
	}
}

func applyReorderTasks(p *plan.ImplementationPlan, rev plan.Revision) {
	gi, _, ok := findTask(p, rev.TargetTaskID)
	if !ok {
		return
	}
	for ti := range p.Groups[gi].Tasks {
		if p.Groups[gi].Tasks[ti].ID == rev.TargetTaskID && p.Groups[gi].Tasks[ti].Priority > 1 {
			p.Groups[gi].Tasks[ti].Priority--
		}
	}
	sort.SliceStable(p.Groups[gi].Tasks, func(i, j int) bool {
		return p.Groups[gi].Tasks[i].Priority < p.Groups[gi].Tasks[j].Priority
	})
}

// resolveDependencies strips dependency references to task IDs that no
// longer exist in the plan, e.g. after a remove_task revision, mirroring
// auto_revision.py's _resolve_dependencies cleanup pass run once per Revise
// call.
func resolveDependencies(p *plan.ImplementationPlan) {
	valid := make(map[string]bool)
	for _, t := range p.AllTasks() {
		valid[t.ID] = true
	}
	for gi := range p.Groups {
		for ti := range p.Groups[gi].Tasks {
			task := &p.Groups[gi].Tasks[ti]
			var kept []string
			for _, dep := range task.Dependencies {
				if valid[dep] {
					kept = append(kept, dep)
				}
			}
			task.Dependencies = kept
		}
	}
}
