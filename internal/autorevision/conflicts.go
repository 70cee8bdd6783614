package autorevision

import "github.com/rlefko/planguard/internal/plan"

// checkConflicts reports whether revision can be applied to p as-is. It
// returns (reason, false) when the revision should be skipped instead of
// applied — e.g. its target task no longer exists, or it would introduce a
// dependency cycle — mirroring auto_revision.py's _check_conflicts /
// _would_create_cycle pass that runs before every apply.
func checkConflicts(p *plan.ImplementationPlan, rev plan.Revision) (reason string, ok bool) {
	switch rev.Type {
	case plan.RevisionAddTask:
		if rev.NewTask == nil {
			return "add_task revision has no new_task", false
		}
		if _, _, exists := findTask(p, rev.NewTask.ID); exists {
			return "task " + rev.NewTask.ID + " already exists", false
		}

	case plan.RevisionModifyTask, plan.RevisionRemoveTask, plan.RevisionReorderTasks:
		if _, _, exists := findTask(p, rev.TargetTaskID); !exists {
			return "target task " + rev.TargetTaskID + " not found", false
		}
		if rev.Type == plan.RevisionRemoveTask {
			for _, t := range p.AllTasks() {
				if t.ID == rev.TargetTaskID {
					continue
				}
				for _, dep := range t.Dependencies {
					if dep == rev.TargetTaskID {
						return "task " + t.ID + " still depends on " + rev.TargetTaskID, false
					}
				}
			}
		}

	case plan.RevisionAddDependency:
		graph := dependencyGraph(p)
		for _, pair := range rev.DependencyAdditions {
			from, to := pair[0], pair[1]
			if from == to {
				return "task cannot depend on itself", false
			}
			if _, _, exists := findTask(p, from); !exists {
				return "task " + from + " not found", false
			}
			if _, _, exists := findTask(p, to); !exists {
				return "task " + to + " not found", false
			}
			if wouldCreateCycle(graph, from, to) {
				return "adding " + from + " -> " + to + " would create a dependency cycle", false
			}
		}
	}

	return "", true
}

func dependencyGraph(p *plan.ImplementationPlan) map[string][]string {
	graph := make(map[string][]string)
	for _, t := range p.AllTasks() {
		graph[t.ID] = t.Dependencies
	}
	return graph
}

// wouldCreateCycle reports whether adding a from->to dependency edge (from
// depends on to) would create a cycle, i.e. whether to can already
// transitively reach from.
func wouldCreateCycle(graph map[string][]string, from, to string) bool {
	visited := map[string]bool{}
	var dfs func(node string) bool
	dfs = func(node string) bool {
		if node == from {
			return true
		}
		if visited[node] {
			return false
		}
		visited[node] = true
		for _, dep := range graph[node] {
			if dfs(dep) {
				return true
			}
		}
		return false
	}
	return dfs(to)
}
