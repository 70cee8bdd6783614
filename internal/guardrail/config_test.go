package guardrail

import (
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestConfig_IsRuleEnabled_CategoryToggleWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckCoverage = false
	require.False(t, cfg.IsRuleEnabled("PLAN.TEST_REQUIREMENT", "coverage"))
}

func TestConfig_IsRuleEnabled_RuleOverrideWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules["PLAN.TEST_REQUIREMENT"] = RuleConfig{Enabled: false}
	require.False(t, cfg.IsRuleEnabled("PLAN.TEST_REQUIREMENT", "coverage"))
}

func TestConfig_SeverityFor_UsesOverrideThenDefault(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, findings.SeverityMedium, cfg.SeverityFor("PLAN.TEST_REQUIREMENT", findings.SeverityMedium))

	high := findings.SeverityHigh
	cfg.Rules["PLAN.TEST_REQUIREMENT"] = RuleConfig{Severity: &high}
	require.Equal(t, findings.SeverityHigh, cfg.SeverityFor("PLAN.TEST_REQUIREMENT", findings.SeverityMedium))
}

func TestConfig_ShouldAutoRevise_RespectsConfidenceFloor(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.ShouldAutoRevise("PLAN.TEST_REQUIREMENT", 0.5))
	require.True(t, cfg.ShouldAutoRevise("PLAN.TEST_REQUIREMENT", 0.9))
}

func TestConfig_ShouldAutoRevise_RuleOverrideDisables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules["PLAN.TEST_REQUIREMENT"] = RuleConfig{AutoRevise: false}
	require.False(t, cfg.ShouldAutoRevise("PLAN.TEST_REQUIREMENT", 0.95))
}

func TestConfig_SeverityShouldBlock(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.SeverityShouldBlock(findings.SeverityHigh))
	require.True(t, cfg.SeverityShouldBlock(findings.SeverityCritical))
	require.False(t, cfg.SeverityShouldBlock(findings.SeverityMedium))
}
