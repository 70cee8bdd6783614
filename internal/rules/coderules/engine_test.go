package coderules

import (
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestEngine_RunFiltersLanguageAndTrigger(t *testing.T) {
	engine, err := NewEngine(All(), DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := Context{FilePath: "deploy.sh", Content: "git push --force origin main\n", Language: "bash"}
	result := engine.Run(ctx, findings.TriggerOnWrite)

	require.True(t, result.ShouldWarn())
	require.NotZero(t, result.RulesRun)
	require.Empty(t, result.Errors)
}

func TestEngine_ConfidenceFloorDropsFindings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.99
	engine, err := NewEngine(All(), cfg, nil)
	require.NoError(t, err)

	ctx := Context{FilePath: "svc.py", Content: "def f():\n    r = requests.get(url)\n", Language: "python"}
	result := engine.Run(ctx, findings.TriggerOnWrite)
	for _, f := range result.Findings {
		require.GreaterOrEqual(t, f.Confidence, 0.99)
	}
}

func TestEngine_PerRuleCapTruncatesStably(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFindingsPerRule = 1
	engine, err := NewEngine([]Rule{ForcePushRule{}}, cfg, nil)
	require.NoError(t, err)

	content := "git push --force origin main\ngit push --force origin main\n"
	ctx := Context{FilePath: "deploy.sh", Content: content, Language: "bash"}
	result := engine.Run(ctx, findings.TriggerOnWrite)
	require.Len(t, result.Findings, 1)
}

func TestEngine_DuplicateRuleIDFailsRegistration(t *testing.T) {
	_, err := NewEngine([]Rule{ForcePushRule{}, ForcePushRule{}}, DefaultConfig(), nil)
	require.Error(t, err)
}

type panicRule struct{}

func (panicRule) RuleID() string                     { return "TEST.PANIC" }
func (panicRule) Name() string                       { return "panic rule" }
func (panicRule) Category() string                   { return "test" }
func (panicRule) DefaultSeverity() findings.Severity { return findings.SeverityLow }
func (panicRule) Triggers() []findings.Trigger       { return []findings.Trigger{findings.TriggerOnWrite} }
func (panicRule) SupportedLanguages() []string       { return nil }
func (panicRule) IsFast() bool                       { return true }
func (panicRule) Description() string                { return "always panics" }
func (panicRule) Check(ctx Context) []findings.Finding { panic("boom") }

func TestEngine_PanickingRuleRecordsErrorAndContinues(t *testing.T) {
	engine, err := NewEngine([]Rule{panicRule{}, ForcePushRule{}}, DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := Context{FilePath: "deploy.sh", Content: "git push --force origin main\n", Language: "bash"}
	result := engine.Run(ctx, findings.TriggerOnWrite)

	require.Len(t, result.Errors, 1)
	require.Equal(t, "TEST.PANIC", result.Errors[0].RuleID)
	require.True(t, result.ShouldWarn())
}

func TestEngine_RunFast_PanickingRuleRecordsErrorAndContinues(t *testing.T) {
	engine, err := NewEngine([]Rule{panicRule{}, ForcePushRule{}}, DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := Context{FilePath: "deploy.sh", Content: "git push --force origin main\n", Language: "bash"}
	result := engine.RunFast(ctx)

	require.Len(t, result.Errors, 1)
	require.Equal(t, "TEST.PANIC", result.Errors[0].RuleID)
}
