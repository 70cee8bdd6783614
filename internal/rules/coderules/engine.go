// Package coderules implements the code rule engine (spec §4.2): a
// trigger-driven evaluator that runs pattern-driven textual rules against a
// single source file and aggregates their findings. Grounded on the
// teacher's janitor.go Issue/Report aggregation shape, generalized to the
// per-rule execution-barrier contract the spec requires.
package coderules

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/rules"
	"github.com/rlefko/planguard/internal/rules/runutil"
)

// DiffHunk restricts a rule's findings to lines changed in a diff (spec §3
// "Rule context (code)... optional diff hunks restricting in-scope lines").
type DiffHunk struct {
	StartLine int
	EndLine   int
}

// Context is the per-file, per-run context a code rule inspects.
type Context struct {
	FilePath string
	Content  string
	Language string
	Hunks    []DiffHunk // nil means "no restriction"
}

// InHunk reports whether line is covered by the diff restriction, or true
// unconditionally when no hunks are set.
func (c Context) InHunk(line int) bool {
	if len(c.Hunks) == 0 {
		return true
	}
	for _, h := range c.Hunks {
		if line >= h.StartLine && line <= h.EndLine {
			return true
		}
	}
	return false
}

// Rule is the contract every code-quality rule implements (spec §4.1).
type Rule interface {
	RuleID() string
	Name() string
	Category() string
	DefaultSeverity() findings.Severity
	Triggers() []findings.Trigger
	SupportedLanguages() []string // nil means "all languages"
	IsFast() bool
	Description() string
	Check(ctx Context) []findings.Finding
}

// admitsTrigger reports whether r wants to run on trigger.
func admitsTrigger(r Rule, trigger findings.Trigger) bool {
	for _, t := range r.Triggers() {
		if t == trigger {
			return true
		}
	}
	return false
}

// admitsLanguage reports whether r's language filter allows lang.
func admitsLanguage(r Rule, lang string) bool {
	langs := r.SupportedLanguages()
	if langs == nil {
		return true
	}
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}

// RuleError records a single rule's failure without aborting the run (spec
// §4.2 "error barrier").
type RuleError struct {
	RuleID  string
	Message string
}

// Result aggregates one engine run.
type Result struct {
	Findings     []findings.Finding
	RulesRun     int
	RulesSkipped int
	Duration     time.Duration
	Errors       []RuleError
}

// ShouldWarn is the convenience predicate from spec §4.2: "has at least one
// finding".
func (r Result) ShouldWarn() bool { return len(r.Findings) > 0 }

// Config bounds the engine's execution contract.
type Config struct {
	MinConfidence     float64
	MaxFindingsPerRule int
	RuleTimeBudget    time.Duration
	DisabledRules     map[string]bool
}

// DefaultConfig matches the spec's defaults: no confidence floor beyond
// [0,1], no cap, a generous per-rule time budget that is logged, not
// enforced, when exceeded.
func DefaultConfig() Config {
	return Config{
		MinConfidence:      0.0,
		MaxFindingsPerRule: 0,
		RuleTimeBudget:     50 * time.Millisecond,
	}
}

// Engine runs code-quality rules over a file context.
type Engine struct {
	registry *rules.Registry[ruleAdapter]
	cfg      Config
	logger   *slog.Logger
}

// ruleAdapter satisfies rules.Identified for the generic registry.
type ruleAdapter struct{ Rule }

func (a ruleAdapter) RuleID() string  { return a.Rule.RuleID() }
func (a ruleAdapter) Category() string { return a.Rule.Category() }

// NewEngine builds an engine from a fixed rule set (spec §9: a closed,
// tagged inventory table, not a runtime directory scan).
func NewEngine(ruleSet []Rule, cfg Config, logger *slog.Logger) (*Engine, error) {
	reg := rules.NewRegistry[ruleAdapter]()
	for _, r := range ruleSet {
		if err := reg.Register(ruleAdapter{r}); err != nil {
			return nil, fmt.Errorf("registering code rule: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: reg, cfg: cfg, logger: logger}, nil
}

// Run executes all rules admitting trigger and the context's language,
// skipping disabled ones, under an error barrier and soft time budget.
func (e *Engine) Run(ctx Context, trigger findings.Trigger) Result {
	start := time.Now()
	result := Result{}

	for _, adapted := range e.registry.All() {
		r := adapted.Rule
		if e.cfg.DisabledRules[r.RuleID()] {
			result.RulesSkipped++
			continue
		}
		if !admitsTrigger(r, trigger) || !admitsLanguage(r, ctx.Language) {
			result.RulesSkipped++
			continue
		}

		result.RulesRun++
		ruleStart := time.Now()
		found, err := e.runIsolated(r, ctx)
		if elapsed := time.Since(ruleStart); e.cfg.RuleTimeBudget > 0 && elapsed > e.cfg.RuleTimeBudget {
			e.logger.Warn("rule exceeded soft time budget", "rule_id", r.RuleID(), "elapsed", elapsed, "budget", e.cfg.RuleTimeBudget)
		}
		if err != nil {
			result.Errors = append(result.Errors, RuleError{RuleID: r.RuleID(), Message: err.Error()})
			continue
		}
		result.Findings = append(result.Findings, found...)
	}

	result.Findings = runutil.FilterByConfidence(result.Findings, e.cfg.MinConfidence)
	result.Findings = runutil.CapPerRule(result.Findings, func(f findings.Finding) string { return f.RuleID }, e.cfg.MaxFindingsPerRule)

	result.Duration = time.Since(start)
	return result
}

// RunFast is the shortcut for (trigger=on-write, is_fast=true) intended for
// post-write latency budgets (spec §4.2).
func (e *Engine) RunFast(ctx Context) Result {
	start := time.Now()
	result := Result{}

	for _, adapted := range e.registry.All() {
		r := adapted.Rule
		if !r.IsFast() {
			result.RulesSkipped++
			continue
		}
		if e.cfg.DisabledRules[r.RuleID()] || !admitsTrigger(r, findings.TriggerOnWrite) || !admitsLanguage(r, ctx.Language) {
			result.RulesSkipped++
			continue
		}

		result.RulesRun++
		found, err := e.runIsolated(r, ctx)
		if err != nil {
			result.Errors = append(result.Errors, RuleError{RuleID: r.RuleID(), Message: err.Error()})
			continue
		}
		result.Findings = append(result.Findings, found...)
	}

	result.Findings = runutil.FilterByConfidence(result.Findings, e.cfg.MinConfidence)
	result.Findings = runutil.CapPerRule(result.Findings, func(f findings.Finding) string { return f.RuleID }, e.cfg.MaxFindingsPerRule)
	result.Duration = time.Since(start)
	return result
}

// runIsolated runs a single rule behind a recover() barrier so one rule's
// panic or logic error never prevents the others from running (spec §4.2
// "each rule runs inside an error barrier").
func (e *Engine) runIsolated(r Rule, ctx Context) (found []findings.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("rule panicked", "rule_id", r.RuleID(), "recover", rec)
			err = fmt.Errorf("rule %s panicked: %v", r.RuleID(), rec)
		}
	}()
	return r.Check(ctx), nil
}
