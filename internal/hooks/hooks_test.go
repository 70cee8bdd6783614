package hooks

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/planmode"
	"github.com/rlefko/planguard/internal/rules/coderules"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRule reports one finding at the given severity when fire is set, mirroring
// engine_test.go's stubRule pattern in internal/guardrail.
type stubRule struct {
	id       string
	severity findings.Severity
	fire     bool
}

func (s stubRule) RuleID() string                     { return s.id }
func (s stubRule) Name() string                       { return s.id }
func (s stubRule) Category() string                   { return "test" }
func (s stubRule) DefaultSeverity() findings.Severity  { return s.severity }
func (s stubRule) Triggers() []findings.Trigger        { return []findings.Trigger{findings.TriggerOnWrite} }
func (s stubRule) SupportedLanguages() []string        { return nil }
func (s stubRule) IsFast() bool                        { return true }
func (s stubRule) Description() string                 { return "stub rule for hook tests" }
func (s stubRule) Check(ctx coderules.Context) []findings.Finding {
	if !s.fire {
		return nil
	}
	return []findings.Finding{
		findings.NewFinding(s.id, s.severity, "stub finding", ctx.FilePath, 3, 3, 0.9),
	}
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "go", detectLanguage("main.go"))
	require.Equal(t, "python", detectLanguage("script.py"))
	require.Equal(t, "unknown", detectLanguage("data.bin"))
}

func TestCheckFile_NoFindingsReportsOK(t *testing.T) {
	engine, err := coderules.NewEngine([]coderules.Rule{stubRule{id: "R1", severity: findings.SeverityLow, fire: false}}, coderules.DefaultConfig(), testLogger())
	require.NoError(t, err)

	content := "package main\n"
	result := CheckFile(engine, "main.go", &content)

	require.Equal(t, "ok", result.Status)
	require.Empty(t, result.Findings)
	require.Equal(t, 0, result.Summary.Total)
	require.False(t, result.ShouldWarn())
}

func TestCheckFile_FindingsReportWarnAndSummary(t *testing.T) {
	engine, err := coderules.NewEngine([]coderules.Rule{
		stubRule{id: "R-HIGH", severity: findings.SeverityHigh, fire: true},
		stubRule{id: "R-LOW", severity: findings.SeverityLow, fire: true},
	}, coderules.DefaultConfig(), testLogger())
	require.NoError(t, err)

	content := "package main\n"
	result := CheckFile(engine, "main.go", &content)

	require.Equal(t, "warn", result.Status)
	require.True(t, result.ShouldWarn())
	require.Len(t, result.Findings, 2)
	require.Equal(t, 2, result.Summary.Total)
	require.Equal(t, 1, result.Summary.High)
	require.Equal(t, 1, result.Summary.Low)
}

func TestCheckFile_MissingFileReportsError(t *testing.T) {
	engine, err := coderules.NewEngine(nil, coderules.DefaultConfig(), testLogger())
	require.NoError(t, err)

	result := CheckFile(engine, "/nonexistent/does-not-exist.go", nil)

	require.NotEmpty(t, result.Error)
	require.False(t, result.ShouldWarn())
}

func TestFormatFindingsForDisplay_GroupsBySeverityDescending(t *testing.T) {
	result := PostWriteResult{
		Findings: []findings.Finding{
			findings.NewFinding("R-LOW", findings.SeverityLow, "low issue", "a.go", 1, 1, 0.5),
			findings.NewFinding("R-CRIT", findings.SeverityCritical, "critical issue", "a.go", 2, 2, 0.9),
		},
	}

	text := FormatFindingsForDisplay(result)
	critIdx := strings.Index(text, "[CRITICAL]")
	lowIdx := strings.Index(text, "[LOW]")
	require.True(t, critIdx >= 0 && lowIdx >= 0)
	require.Less(t, critIdx, lowIdx)
}

func TestFormatFindingsForDisplay_EmptyReturnsEmptyString(t *testing.T) {
	require.Equal(t, "", FormatFindingsForDisplay(PostWriteResult{}))
}

func TestRunPostWriteHook_JSONOutput(t *testing.T) {
	engine, err := coderules.NewEngine([]coderules.Rule{stubRule{id: "R1", severity: findings.SeverityMedium, fire: true}}, coderules.DefaultConfig(), testLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	content := "x := 1\n"
	code := RunPostWriteHook(engine, &buf, testLogger(), "a.go", &content, true)

	require.Equal(t, 1, code)
	var result PostWriteResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Equal(t, "warn", result.Status)
}

func TestRunPostWriteHook_TextOutputNoFindingsExitsZero(t *testing.T) {
	engine, err := coderules.NewEngine(nil, coderules.DefaultConfig(), testLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	content := "x := 1\n"
	code := RunPostWriteHook(engine, &buf, testLogger(), "a.go", &content, false)

	require.Equal(t, 0, code)
	require.Empty(t, buf.String())
}

func TestDetectIntent(t *testing.T) {
	intents := detectIntent("can you find the function that handles login")
	require.True(t, intents["search"])
	require.True(t, intents["code_terms"])
	require.False(t, intents["debug"])
}

func TestCheckSensitive(t *testing.T) {
	require.NotEmpty(t, checkSensitive("the api_key: sk-1234 is leaked"))
	require.Empty(t, checkSensitive("please refactor this module"))
}

func TestBuildToolSuggestions_SearchIntent(t *testing.T) {
	suggestions := buildToolSuggestions(map[string]bool{"search": true}, "project")
	require.Contains(t, suggestions, "mcp__project-memory__search_similar")
}

func TestRunUserPromptHook_NonPlanModeSuggestsTools(t *testing.T) {
	input := `{"prompt": "please find the function that implements login", "cwd": "/tmp"}`
	var buf bytes.Buffer

	RunUserPromptHook(strings.NewReader(input), &buf, testLogger(), UserPromptOptions{
		Collection:          "project",
		InjectionConfig:     planmode.DefaultInjectionConfig(),
		ConfidenceThreshold: planmode.ConfidenceThreshold,
		PlanModeContext:     &planmode.Context{},
	})

	require.Contains(t, buf.String(), "mcp__project-memory__")
}

func TestRunUserPromptHook_SensitivePromptWarns(t *testing.T) {
	input := `{"prompt": "my password: hunter2 is insecure", "cwd": "/tmp"}`
	var buf bytes.Buffer

	RunUserPromptHook(strings.NewReader(input), &buf, testLogger(), UserPromptOptions{
		Collection:          "project",
		InjectionConfig:     planmode.DefaultInjectionConfig(),
		ConfidenceThreshold: planmode.ConfidenceThreshold,
		PlanModeContext:     &planmode.Context{},
	})

	require.Contains(t, buf.String(), "sensitive data")
}

func TestRunUserPromptHook_MalformedInputDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	require.NotPanics(t, func() {
		RunUserPromptHook(strings.NewReader("not json"), &buf, testLogger(), UserPromptOptions{
			InjectionConfig: planmode.DefaultInjectionConfig(),
			PlanModeContext: &planmode.Context{},
		})
	})
	require.Empty(t, buf.String())
}

func TestLoadInjectionConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg := LoadInjectionConfig("", false)
	require.Equal(t, planmode.DefaultInjectionConfig(), cfg)
}

func TestLoadInjectionConfig_CompactEnvTogglesCompactMode(t *testing.T) {
	cfg := LoadInjectionConfig("", true)
	require.True(t, cfg.CompactMode)
}

func TestLoadInjectionConfig_PartialFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/plan_mode.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"inject_hints": false, "guidelines_config": {"include_testing_requirements": false}}`), 0o644))

	cfg := LoadInjectionConfig(path, false)

	require.True(t, cfg.Enabled) // untouched default
	require.False(t, cfg.InjectHints)
	require.False(t, cfg.GuidelinesConfig.IncludeTestingRequirements)
	require.True(t, cfg.GuidelinesConfig.IncludeCodeReuseCheck) // untouched default
}
