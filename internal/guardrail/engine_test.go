package guardrail

import (
	"testing"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/plan"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	id       string
	category string
	severity findings.Severity
	fast     bool
	findings []plan.Finding
	panics   bool
}

func (s stubRule) RuleID() string                     { return s.id }
func (s stubRule) Name() string                       { return s.id }
func (s stubRule) Category() string                   { return s.category }
func (s stubRule) DefaultSeverity() findings.Severity { return s.severity }
func (s stubRule) Description() string                { return "stub" }
func (s stubRule) IsFast() bool                       { return s.fast }
func (s stubRule) Validate(ctx *Context) []plan.Finding {
	if s.panics {
		panic("boom")
	}
	return s.findings
}
func (s stubRule) SuggestRevision(finding plan.Finding, ctx *Context) *plan.Revision { return nil }

func samplePlan() *plan.ImplementationPlan {
	p := plan.NewImplementationPlan(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]plan.TaskGroup{{Scope: "components", Tasks: []plan.Task{{ID: "TASK-1", Title: "Add widget"}}}},
		nil, "test plan",
	)
	return &p
}

func TestEngine_ValidateAggregatesFindingsAcrossRules(t *testing.T) {
	r1 := stubRule{id: "PLAN.A", category: "coverage", severity: findings.SeverityMedium, fast: true,
		findings: []plan.Finding{{RuleID: "PLAN.A", Confidence: 0.9}}}
	r2 := stubRule{id: "PLAN.B", category: "architecture", severity: findings.SeverityLow, fast: true,
		findings: []plan.Finding{{RuleID: "PLAN.B", Confidence: 0.9}}}

	engine, err := NewEngine([]Rule{r1, r2}, DefaultEngineConfig(), nil)
	require.NoError(t, err)

	ctx := &Context{Plan: samplePlan(), Config: DefaultConfig()}
	result := engine.Validate(ctx, nil)

	require.Len(t, result.Findings, 2)
	require.Equal(t, 2, result.RulesRun)
}

func TestEngine_ConfidenceFloorDropsFindings(t *testing.T) {
	r1 := stubRule{id: "PLAN.A", category: "coverage", severity: findings.SeverityMedium, fast: true,
		findings: []plan.Finding{{RuleID: "PLAN.A", Confidence: 0.1}}}

	cfg := DefaultEngineConfig()
	cfg.MinConfidence = 0.7
	engine, err := NewEngine([]Rule{r1}, cfg, nil)
	require.NoError(t, err)

	ctx := &Context{Plan: samplePlan(), Config: DefaultConfig()}
	result := engine.Validate(ctx, nil)
	require.Empty(t, result.Findings)
}

func TestEngine_ValidateFastSkipsSlowRules(t *testing.T) {
	fast := stubRule{id: "PLAN.FAST", category: "coverage", severity: findings.SeverityMedium, fast: true,
		findings: []plan.Finding{{RuleID: "PLAN.FAST", Confidence: 0.9}}}
	slow := stubRule{id: "PLAN.SLOW", category: "consistency", severity: findings.SeverityHigh, fast: false,
		findings: []plan.Finding{{RuleID: "PLAN.SLOW", Confidence: 0.9}}}

	engine, err := NewEngine([]Rule{fast, slow}, DefaultEngineConfig(), nil)
	require.NoError(t, err)

	ctx := &Context{Plan: samplePlan(), Config: DefaultConfig()}
	result := engine.ValidateFast(ctx)
	require.Len(t, result.Findings, 1)
	require.Equal(t, "PLAN.FAST", result.Findings[0].RuleID)
}

func TestEngine_PanickingRuleRecordsErrorAndContinues(t *testing.T) {
	bad := stubRule{id: "PLAN.BAD", category: "coverage", severity: findings.SeverityMedium, fast: true, panics: true}
	good := stubRule{id: "PLAN.GOOD", category: "coverage", severity: findings.SeverityMedium, fast: true,
		findings: []plan.Finding{{RuleID: "PLAN.GOOD", Confidence: 0.9}}}

	engine, err := NewEngine([]Rule{bad, good}, DefaultEngineConfig(), nil)
	require.NoError(t, err)

	ctx := &Context{Plan: samplePlan(), Config: DefaultConfig()}
	result := engine.Validate(ctx, nil)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "PLAN.BAD", result.Errors[0].RuleID)
	require.Len(t, result.Findings, 1)
}

func TestEngine_DuplicateRuleIDFailsRegistration(t *testing.T) {
	r := stubRule{id: "PLAN.A", category: "coverage"}
	_, err := NewEngine([]Rule{r, r}, DefaultEngineConfig(), nil)
	require.Error(t, err)
}

func TestResult_HasBlockingFindings(t *testing.T) {
	result := Result{Findings: []plan.Finding{{Severity: findings.SeverityHigh}}}
	require.True(t, result.HasBlockingFindings(findings.SeverityHigh))
	require.False(t, result.HasBlockingFindings(findings.SeverityCritical))
}
