// Package autorevision implements the auto-revision pass (spec §4.8/§9): it
// takes the findings a guardrail.Engine run produced and, for every finding
// the rule marked auto-revisable with a suggested revision, applies that
// revision to a plan — iterating until the plan stops changing, skipping
// revisions that would conflict with each other or with the plan's current
// shape. Grounded on
// original_source/claude_indexer/ui/plan/guardrails/auto_revision.py.
package autorevision

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
	"github.com/rlefko/planguard/internal/plan"
)

// MaxIterations bounds the revise-and-recheck loop (ported verbatim from
// auto_revision.py's MAX_ITERATIONS): each pass can unlock new applicable
// revisions (e.g. a just-added task becomes a valid dependency target), but
// the loop must still terminate.
const MaxIterations = 3

// revisionTypeOrder is the order revisions of different types are applied
// in within one iteration. plan.RevisionType's declaration order already
// matches application order (see revision.go's doc comment), so this just
// names that order for sorting.
var revisionTypeOrder = map[plan.RevisionType]int{
	plan.RevisionAddTask:       0,
	plan.RevisionAddDependency: 1,
	plan.RevisionModifyTask:    2,
	plan.RevisionReorderTasks:  3,
	plan.RevisionRemoveTask:    4,
}

func severityRank(s findings.Severity) int { return 3 - int(s) }

// Engine applies guardrail findings' suggested revisions to a plan.
type Engine struct {
	Config guardrail.Config
}

// NewEngine builds an auto-revision engine bound to cfg (the same config a
// guardrail.Engine validated the findings under).
func NewEngine(cfg guardrail.Config) *Engine {
	return &Engine{Config: cfg}
}

// SkippedRevision records a revision that was not applied, and why.
type SkippedRevision struct {
	Revision plan.Revision
	Finding  plan.Finding
	Reason   string
}

// Result is the outcome of one Revise call (spec §4.8's "revised plan +
// applied revisions + skipped revisions" shape, ported from the original's
// RevisedPlan/AppliedRevision pair).
type Result struct {
	Plan       plan.ImplementationPlan
	Applied    []plan.AppliedRevision
	Skipped    []SkippedRevision
	Iterations int
}

// WasRevised reports whether at least one revision was successfully applied.
func (r Result) WasRevised() bool {
	for _, a := range r.Applied {
		if a.Success {
			return true
		}
	}
	return false
}

// RevisionCount is the number of revisions recorded as applied (successful
// or not — a failed apply still consumes a MaxRevisionsPerPlan slot and is
// recorded in the audit trail).
func (r Result) RevisionCount() int { return len(r.Applied) }

// SkippedCount is the number of revisions that were never attempted because
// they conflicted with the plan or another revision.
func (r Result) SkippedCount() int { return len(r.Skipped) }

// FormatAuditTrail renders the applied and skipped revisions as human
// readable markdown, in the style of plan.ImplementationPlan.FormatRevisionHistory.
func (r Result) FormatAuditTrail() string {
	var b strings.Builder
	b.WriteString("## Auto-Revision Audit Trail\n\n")
	fmt.Fprintf(&b, "**Iterations used**: %d\n", r.Iterations)
	fmt.Fprintf(&b, "**Revisions applied**: %d\n", r.RevisionCount())
	fmt.Fprintf(&b, "**Revisions skipped**: %d\n\n", r.SkippedCount())

	if len(r.Applied) > 0 {
		b.WriteString("### Applied\n\n")
		for i, a := range r.Applied {
			fmt.Fprintf(&b, "%d. [%s] %s — %s\n", i+1, a.Finding.RuleID, revisionTypeTitle(a.Revision.Type), a.Revision.Rationale)
			if !a.Success {
				fmt.Fprintf(&b, "   - Failed: %s\n", a.Error)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Skipped) > 0 {
		b.WriteString("### Skipped\n\n")
		for i, s := range r.Skipped {
			fmt.Fprintf(&b, "%d. [%s] %s — %s\n", i+1, s.Finding.RuleID, revisionTypeTitle(s.Revision.Type), s.Reason)
		}
	}

	return b.String()
}

func revisionTypeTitle(t plan.RevisionType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type candidate struct {
	finding  plan.Finding
	revision plan.Revision
}

func findingID(f plan.Finding) string {
	summary := f.Summary
	if len(summary) > 50 {
		summary = summary[:50]
	}
	return fmt.Sprintf("%s:%s:%s", f.RuleID, strings.Join(f.AffectedTasks, ","), summary)
}

// Revise applies as many of allFindings' suggested revisions to p as the
// config allows, iterating up to MaxIterations times so a revision applied
// in one pass can unblock another (e.g. a newly added task becoming a valid
// dependency target) in the next. appliedAt stamps every revision applied
// in this call, mirroring plan.NewImplementationPlan's caller-supplied
// timestamp (this package must not call time.Now() itself to stay
// deterministic for tests and replay).
func (e *Engine) Revise(p plan.ImplementationPlan, allFindings []plan.Finding, appliedAt time.Time) Result {
	if !e.Config.AutoRevise {
		return Result{Plan: p}
	}

	var revisable []candidate
	for _, f := range allFindings {
		if !f.CanAutoRevise || f.SuggestedRevision == nil {
			continue
		}
		if !e.Config.ShouldAutoRevise(f.RuleID, f.Confidence) {
			continue
		}
		revisable = append(revisable, candidate{finding: f, revision: *f.SuggestedRevision})
	}

	current := deepCopyPlan(p)
	var applied []plan.AppliedRevision
	var skipped []SkippedRevision
	handled := map[string]bool{}
	timestamp := appliedAt.Format(time.RFC3339)

	iterations := 0
	for iteration := 0; iteration < MaxIterations; iteration++ {
		pending := applicableRevisions(revisable, handled)
		if len(pending) == 0 {
			break
		}
		sortByPriority(pending)

		anyApplied := false
		for _, cand := range pending {
			if len(applied) >= e.Config.MaxRevisionsPerPlan {
				iterations = iteration + 1
				goto done
			}

			fid := findingID(cand.finding)
			if reason, ok := checkConflicts(&current, cand.revision); !ok {
				handled[fid] = true
				skipped = append(skipped, SkippedRevision{Revision: cand.revision, Finding: cand.finding, Reason: reason})
				continue
			}

			next, err := applyRevision(current, cand.revision)
			handled[fid] = true
			if err != nil {
				applied = append(applied, plan.AppliedRevision{
					Revision: cand.revision, Finding: cand.finding, AppliedAt: timestamp,
					Success: false, Error: err.Error(),
				})
				continue
			}
			current = next
			anyApplied = true
			applied = append(applied, plan.AppliedRevision{
				Revision: cand.revision, Finding: cand.finding, AppliedAt: timestamp, Success: true,
			})
		}

		iterations = iteration + 1
		if !anyApplied {
			break
		}
	}
done:

	resolveDependencies(&current)
	current.AddRevisions(applied)

	return Result{Plan: current, Applied: applied, Skipped: skipped, Iterations: iterations}
}

func applicableRevisions(candidates []candidate, handled map[string]bool) []candidate {
	var out []candidate
	for _, c := range candidates {
		if handled[findingID(c.finding)] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sortByPriority(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri := severityRank(candidates[i].finding.Severity)
		rj := severityRank(candidates[j].finding.Severity)
		if ri != rj {
			return ri < rj
		}
		return revisionTypeOrder[candidates[i].revision.Type] < revisionTypeOrder[candidates[j].revision.Type]
	})
}
