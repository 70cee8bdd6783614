// Package guardrail implements the plan validation engine (spec §4.7/§4.8):
// a rule-driven evaluator that inspects a generated implementation plan and
// reports findings about missing coverage, duplicate code, architectural
// drift, and performance anti-patterns. The engine and rule contract mirror
// internal/rules/coderules, specialized to internal/plan.Finding and a
// plan-shaped Context instead of code-rule's file Context. Grounded on
// original_source/claude_indexer/ui/plan/guardrails/{base,engine,config}.py.
package guardrail

import (
	"context"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/memory"
	"github.com/rlefko/planguard/internal/plan"
)

// Context is the data a plan validation rule inspects (spec §4.7 "Plan
// validation context"), analogous to coderules.Context but scoped to a
// whole plan instead of one file.
type Context struct {
	Plan               *plan.ImplementationPlan
	Config             Config
	ProjectPath        string
	Memory             memory.Searcher
	CollectionName     string
	SourceRequirements string
}

// SearchMemory searches semantic memory for similar code/patterns, grounded
// on PlanValidationContext.search_memory: degrades to an empty result
// whenever no memory client is configured or the search itself fails,
// never surfacing an error to the rule (spec §8's "never surfaces error"
// contract, already used by internal/memory's adapters).
//
// entityTypes mirrors the original signature for call-site parity but, like
// the original, is not passed through to the underlying search call — the
// collection-wide FTS index doesn't support narrowing by entity type.
func (c *Context) SearchMemory(query string, limit int, entityTypes []string) []memory.Result {
	if c.Memory == nil || c.CollectionName == "" {
		return nil
	}
	results, err := c.Memory.Search(context.Background(), c.CollectionName, query, limit)
	if err != nil {
		return nil
	}
	return results
}

// GetTaskByID returns the task with id, or nil if no task in the plan
// matches.
func (c *Context) GetTaskByID(id string) *plan.Task {
	for _, t := range c.Plan.AllTasks() {
		if t.ID == id {
			return &t
		}
	}
	return nil
}

// Rule is the contract every plan validation rule implements (spec §4.7),
// the plan-shaped analogue of coderules.Rule.
type Rule interface {
	RuleID() string
	Name() string
	Category() string // coverage | consistency | architecture | performance
	DefaultSeverity() findings.Severity
	Description() string
	IsFast() bool // false for rules needing memory search/slow I/O
	Validate(ctx *Context) []plan.Finding
	SuggestRevision(finding plan.Finding, ctx *Context) *plan.Revision
}

// NewFinding is a small helper rules call to build a plan.Finding stamped
// with their own rule id and a severity resolved from config, mirroring
// PlanValidationRule._create_finding.
func NewFinding(rule Rule, cfg Config, summary string, affectedTasks []string, suggestion string, evidence []findings.Evidence, confidence float64, canAutoRevise bool, suggestedRevision *plan.Revision) plan.Finding {
	return plan.Finding{
		RuleID:            rule.RuleID(),
		Severity:          cfg.SeverityFor(rule.RuleID(), rule.DefaultSeverity()),
		Summary:           summary,
		AffectedTasks:     affectedTasks,
		Suggestion:        suggestion,
		CanAutoRevise:     canAutoRevise,
		Confidence:        confidence,
		Evidence:          evidence,
		SuggestedRevision: suggestedRevision,
		CreatedAt:         time.Now().Format(time.RFC3339),
	}
}
