package guardrail

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/rlefko/planguard/internal/rules"
	"github.com/rlefko/planguard/internal/rules/runutil"
	"github.com/rlefko/planguard/internal/workerpool"
)

// EngineConfig bounds the guardrail engine's execution contract, ported
// from PlanGuardrailEngineConfig.
type EngineConfig struct {
	FastRuleTimeout    time.Duration
	ContinueOnError    bool
	MinConfidence      float64
	MaxFindingsPerRule int
}

// DefaultEngineConfig matches the original's defaults (100ms fast-rule
// budget, continue past a failing rule, 0.7 confidence floor).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FastRuleTimeout:    100 * time.Millisecond,
		ContinueOnError:    true,
		MinConfidence:      0.7,
		MaxFindingsPerRule: 10,
	}
}

// RuleExecutionError records a single rule's failure without aborting the
// run, mirroring coderules.RuleError.
type RuleExecutionError struct {
	RuleID  string
	Message string
}

// Result aggregates one guardrail engine run (ported from
// PlanGuardrailResult).
type Result struct {
	Findings     []plan.Finding
	RulesRun     int
	RulesSkipped int
	Duration     time.Duration
	Errors       []RuleExecutionError
}

// HasFindings reports whether the run produced any finding.
func (r Result) HasFindings() bool { return len(r.Findings) > 0 }

// HasErrors reports whether any rule failed during the run.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// HasBlockingFindings reports whether any finding is at least as severe as
// blockSeverity (spec §4.7 "blocking findings").
func (r Result) HasBlockingFindings(blockSeverity findings.Severity) bool {
	for _, f := range r.Findings {
		if f.Severity.AtLeast(blockSeverity) {
			return true
		}
	}
	return false
}

// FindingsBySeverity groups findings by severity.
func (r Result) FindingsBySeverity() map[findings.Severity][]plan.Finding {
	out := make(map[findings.Severity][]plan.Finding)
	for _, f := range r.Findings {
		out[f.Severity] = append(out[f.Severity], f)
	}
	return out
}

// FindingsByCategory groups findings by the rule id's category prefix
// (e.g. "PLAN.TEST_REQUIREMENT" categorized via the rule that produced it,
// looked up through categoryOf).
func (r Result) FindingsByCategory(categoryOf func(ruleID string) string) map[string][]plan.Finding {
	out := make(map[string][]plan.Finding)
	for _, f := range r.Findings {
		cat := categoryOf(f.RuleID)
		out[cat] = append(out[cat], f)
	}
	return out
}

// ruleAdapter satisfies rules.Identified for the generic registry.
type ruleAdapter struct{ Rule }

func (a ruleAdapter) RuleID() string   { return a.Rule.RuleID() }
func (a ruleAdapter) Category() string { return a.Rule.Category() }

// Engine runs plan guardrail rules over a plan validation context,
// mirroring coderules.Engine's structure (spec §4.7/§4.8, ported from
// PlanGuardrailEngine; directory-scan auto-discovery becomes a closed,
// tagged inventory table per spec §9's design note, same translation
// already applied to coderules).
type Engine struct {
	registry *rules.Registry[ruleAdapter]
	engCfg   EngineConfig
	logger   *slog.Logger
}

// NewEngine builds an engine from a fixed rule set.
func NewEngine(ruleSet []Rule, engCfg EngineConfig, logger *slog.Logger) (*Engine, error) {
	reg := rules.NewRegistry[ruleAdapter]()
	for _, r := range ruleSet {
		if err := reg.Register(ruleAdapter{r}); err != nil {
			return nil, fmt.Errorf("registering guardrail rule: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: reg, engCfg: engCfg, logger: logger}, nil
}

// RuleCount reports how many rules are registered.
func (e *Engine) RuleCount() int { return e.registry.Len() }

// GetRule returns a registered rule by id.
func (e *Engine) GetRule(id string) (Rule, bool) {
	adapted, ok := e.registry.Get(id)
	if !ok {
		return nil, false
	}
	return adapted.Rule, true
}

// RulesByCategory returns the rules registered under category.
func (e *Engine) RulesByCategory(category string) []Rule {
	adapted := e.registry.ByCategory(category)
	out := make([]Rule, 0, len(adapted))
	for _, a := range adapted {
		out = append(out, a.Rule)
	}
	return out
}

// FastRules returns every registered rule with IsFast() true.
func (e *Engine) FastRules() []Rule {
	var out []Rule
	for _, a := range e.registry.All() {
		if a.Rule.IsFast() {
			out = append(out, a.Rule)
		}
	}
	return out
}

// AllRules returns every registered rule in registration order.
func (e *Engine) AllRules() []Rule {
	adapted := e.registry.All()
	out := make([]Rule, 0, len(adapted))
	for _, a := range adapted {
		out = append(out, a.Rule)
	}
	return out
}

// Validate runs every enabled rule (or, if ruleIDs is non-empty, only those
// named) against ctx, under an error barrier per rule.
func (e *Engine) Validate(ctx *Context, ruleIDs []string) Result {
	only := toSet(ruleIDs)
	return e.run(ctx, func(r Rule) bool {
		if len(only) > 0 && !only[r.RuleID()] {
			return false
		}
		return ctx.Config.IsRuleEnabled(r.RuleID(), r.Category())
	})
}

// ValidateFast runs only fast (is_fast=true) enabled rules, intended for
// latency-sensitive call sites (spec §4.7).
func (e *Engine) ValidateFast(ctx *Context) Result {
	return e.run(ctx, func(r Rule) bool {
		return r.IsFast() && ctx.Config.IsRuleEnabled(r.RuleID(), r.Category())
	})
}

// ValidateCategory runs only enabled rules in the given category.
func (e *Engine) ValidateCategory(ctx *Context, category string) Result {
	return e.run(ctx, func(r Rule) bool {
		return r.Category() == category && ctx.Config.IsRuleEnabled(r.RuleID(), r.Category())
	})
}

// ruleOutcome is one rule's execution result, gathered by ValidateParallel
// before being folded into a Result sequentially so no mutex is needed
// around Result's slices.
type ruleOutcome struct {
	rule     Rule
	admitted bool
	findings []plan.Finding
	err      error
}

// ValidateParallel runs the same admitted-rule set as Validate would, but
// fans each rule's Validate call out across pool (spec §8's worker-pool for
// parallel guardrail execution). Results are folded back in registration
// order, so the returned Result is identical to what Validate would have
// produced serially — only wall-clock time differs.
func (e *Engine) ValidateParallel(ctx *Context, ruleIDs []string, pool *workerpool.Pool) Result {
	only := toSet(ruleIDs)
	admit := func(r Rule) bool {
		if len(only) > 0 && !only[r.RuleID()] {
			return false
		}
		return ctx.Config.IsRuleEnabled(r.RuleID(), r.Category())
	}

	start := time.Now()
	all := e.registry.All()
	rulesToRun := make([]Rule, 0, len(all))
	for _, adapted := range all {
		rulesToRun = append(rulesToRun, adapted.Rule)
	}

	outcomes := workerpool.Map(pool.Size(), rulesToRun, func(r Rule) ruleOutcome {
		if !admit(r) {
			return ruleOutcome{rule: r, admitted: false}
		}
		found, err := e.executeRule(r, ctx)
		return ruleOutcome{rule: r, admitted: true, findings: found, err: err}
	})

	result := Result{}
	for _, o := range outcomes {
		if !o.admitted {
			result.RulesSkipped++
			continue
		}
		result.RulesRun++
		if o.err != nil {
			result.Errors = append(result.Errors, RuleExecutionError{RuleID: o.rule.RuleID(), Message: o.err.Error()})
			continue
		}
		result.Findings = append(result.Findings, o.findings...)
	}

	result.Findings = runutil.FilterByConfidence(result.Findings, e.engCfg.MinConfidence)
	result.Findings = runutil.CapPerRule(result.Findings, func(f plan.Finding) string { return f.RuleID }, e.engCfg.MaxFindingsPerRule)
	result.Duration = time.Since(start)
	return result
}

func (e *Engine) run(ctx *Context, admit func(Rule) bool) Result {
	start := time.Now()
	result := Result{}

	for _, adapted := range e.registry.All() {
		r := adapted.Rule
		if !admit(r) {
			result.RulesSkipped++
			continue
		}

		result.RulesRun++
		found, err := e.executeRule(r, ctx)
		if err != nil {
			result.Errors = append(result.Errors, RuleExecutionError{RuleID: r.RuleID(), Message: err.Error()})
			if !e.engCfg.ContinueOnError {
				break
			}
			continue
		}
		result.Findings = append(result.Findings, found...)
	}

	result.Findings = runutil.FilterByConfidence(result.Findings, e.engCfg.MinConfidence)
	result.Findings = runutil.CapPerRule(result.Findings, func(f plan.Finding) string { return f.RuleID }, e.engCfg.MaxFindingsPerRule)

	result.Duration = time.Since(start)
	return result
}

// executeRule runs a single rule behind a recover() barrier so one rule's
// panic never prevents the others from running (spec §4.7 "error barrier",
// same contract as coderules.Engine.runIsolated).
func (e *Engine) executeRule(r Rule, ctx *Context) (found []plan.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("guardrail rule panicked", "rule_id", r.RuleID(), "recover", rec)
			err = fmt.Errorf("rule %s panicked: %v", r.RuleID(), rec)
		}
	}()
	return r.Validate(ctx), nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
