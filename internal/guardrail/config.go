package guardrail

import "github.com/rlefko/planguard/internal/findings"

// RuleConfig is a per-rule override (spec §4.7, ported from RuleConfig).
type RuleConfig struct {
	Enabled    bool
	Severity   *findings.Severity
	Threshold  *float64
	AutoRevise bool
}

// Config controls which guardrail rules run, their severity, and
// auto-revision behavior (spec §4.7/§4.8, ported from PlanGuardrailConfig).
type Config struct {
	Enabled bool
	Rules   map[string]RuleConfig

	BlockSeverity findings.Severity
	WarnSeverity  findings.Severity

	CheckCoverage     bool
	CheckConsistency  bool
	CheckArchitecture bool
	CheckPerformance  bool

	AutoRevise                  bool
	MaxRevisionsPerPlan         int
	RevisionConfidenceThreshold float64

	MaxFindingsPerRule int
}

// DefaultConfig enables every check/category and matches the original's
// field defaults (revision confidence 0.7, max 10 revisions/findings,
// block at HIGH, warn at MEDIUM).
func DefaultConfig() Config {
	return Config{
		Enabled:                     true,
		Rules:                       map[string]RuleConfig{},
		BlockSeverity:               findings.SeverityHigh,
		WarnSeverity:                findings.SeverityMedium,
		CheckCoverage:               true,
		CheckConsistency:            true,
		CheckArchitecture:           true,
		CheckPerformance:            true,
		AutoRevise:                  true,
		MaxRevisionsPerPlan:         10,
		RevisionConfidenceThreshold: 0.7,
		MaxFindingsPerRule:          10,
	}
}

var categoryToggle = map[string]func(Config) bool{
	"coverage":     func(c Config) bool { return c.CheckCoverage },
	"consistency":  func(c Config) bool { return c.CheckConsistency },
	"architecture": func(c Config) bool { return c.CheckArchitecture },
	"performance":  func(c Config) bool { return c.CheckPerformance },
}

// IsRuleEnabled reports whether ruleID should run, honoring the enabled
// flag, category toggle, and any rule-specific override.
func (c Config) IsRuleEnabled(ruleID, category string) bool {
	if !c.Enabled {
		return false
	}
	if toggle, ok := categoryToggle[category]; ok && !toggle(c) {
		return false
	}
	if rc, ok := c.Rules[ruleID]; ok {
		return rc.Enabled
	}
	return true
}

// GetRuleConfig returns the override for ruleID, if any.
func (c Config) GetRuleConfig(ruleID string) (RuleConfig, bool) {
	rc, ok := c.Rules[ruleID]
	return rc, ok
}

// SeverityFor resolves the severity to stamp a finding with: a rule-config
// override if present, else the rule's own default.
func (c Config) SeverityFor(ruleID string, defaultSeverity findings.Severity) findings.Severity {
	if rc, ok := c.Rules[ruleID]; ok && rc.Severity != nil {
		return *rc.Severity
	}
	return defaultSeverity
}

// ShouldAutoRevise reports whether a finding at confidence should receive
// an auto-revision, honoring the global toggle, confidence floor, and any
// rule-specific override.
func (c Config) ShouldAutoRevise(ruleID string, confidence float64) bool {
	if !c.AutoRevise {
		return false
	}
	if confidence < c.RevisionConfidenceThreshold {
		return false
	}
	if rc, ok := c.Rules[ruleID]; ok {
		return rc.AutoRevise
	}
	return true
}

// SeverityShouldBlock reports whether severity meets the configured block
// threshold.
func (c Config) SeverityShouldBlock(severity findings.Severity) bool {
	return severity.AtLeast(c.BlockSeverity)
}
