package autorevision

import "github.com/rlefko/planguard/internal/plan"

// deepCopyPlan clones p so revisions can be applied without mutating the
// caller's plan (Go has no copy.deepcopy; slices must be cloned by hand or
// mutating one copy's Task.Tags, say, would alias the original's backing
// array).
func deepCopyPlan(p plan.ImplementationPlan) plan.ImplementationPlan {
	cp := p
	cp.Groups = make([]plan.TaskGroup, len(p.Groups))
	for i, g := range p.Groups {
		ng := g
		ng.Tasks = make([]plan.Task, len(g.Tasks))
		for j, t := range g.Tasks {
			ng.Tasks[j] = deepCopyTask(t)
		}
		cp.Groups[i] = ng
	}
	cp.QuickWins = make([]plan.Task, len(p.QuickWins))
	for i, t := range p.QuickWins {
		cp.QuickWins[i] = deepCopyTask(t)
	}
	cp.RevisionHistory = append([]plan.AppliedRevision{}, p.RevisionHistory...)
	return cp
}

func deepCopyTask(t plan.Task) plan.Task {
	nt := t
	nt.AcceptanceCriteria = append([]string{}, t.AcceptanceCriteria...)
	nt.EvidenceLinks = append([]string{}, t.EvidenceLinks...)
	nt.RelatedCritiqueIDs = append([]string{}, t.RelatedCritiqueIDs...)
	nt.Dependencies = append([]string{}, t.Dependencies...)
	nt.Tags = append([]string{}, t.Tags...)
	return nt
}

// findTask returns the group and task index of the task with id, or
// ok=false if no task matches.
func findTask(p *plan.ImplementationPlan, id string) (groupIdx, taskIdx int, ok bool) {
	for gi := range p.Groups {
		for ti := range p.Groups[gi].Tasks {
			if p.Groups[gi].Tasks[ti].ID == id {
				return gi, ti, true
			}
		}
	}
	return 0, 0, false
}

func recomputeQuickWins(p *plan.ImplementationPlan) {
	var out []plan.Task
	for _, g := range p.Groups {
		out = append(out, g.QuickWins()...)
	}
	p.QuickWins = out
}
