// Package config loads planguard's configuration, layering environment
// variables over a TOML file over built-in defaults, in the same shape as
// the teacher's own config loader.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/guardrail"
)

// Config holds all configuration for planguard.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Emergent   EmergentConfig   `toml:"emergent"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Guardrail  GuardrailConfig  `toml:"guardrail"`
	Revision   RevisionConfig   `toml:"revision"`
	WorkerPool WorkerPoolConfig `toml:"worker_pool"`
	PlanMode   PlanModeConfig   `toml:"plan_mode"`
	History    HistoryConfig    `toml:"history"`
}

// EmergentConfig holds the vector-store connection details (spec §6's
// external vector store client collaborator, reached through the teacher's
// Emergent SDK wrapper — see internal/memory.EmergentSearcher).
type EmergentConfig struct {
	URL       string `toml:"url"`
	Token     string `toml:"token"`      // Project-scoped token (emt_*) or standalone API key.
	ProjectID string `toml:"project_id"` // Optional: explicit project ID (X-Project-ID header).
}

// ServerConfig holds identifying metadata stamped into hook output.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// GuardrailConfig is the TOML-facing mirror of guardrail.Config: severities
// are plain strings here (BurntSushi/toml has no hook into our ordered enum)
// and resolved to findings.Severity in ToGuardrailConfig, after Validate has
// confirmed they parse.
type GuardrailConfig struct {
	Enabled           bool   `toml:"enabled"`
	BlockSeverity     string `toml:"block_severity"`
	WarnSeverity      string `toml:"warn_severity"`
	CheckCoverage     bool   `toml:"check_coverage"`
	CheckConsistency  bool   `toml:"check_consistency"`
	CheckArchitecture bool   `toml:"check_architecture"`
	CheckPerformance  bool   `toml:"check_performance"`
	MaxFindingsPerRule int   `toml:"max_findings_per_rule"`
}

// RevisionConfig controls internal/autorevision's behavior.
type RevisionConfig struct {
	AutoRevise          bool    `toml:"auto_revise"`
	MaxRevisionsPerPlan int     `toml:"max_revisions_per_plan"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// WorkerPoolConfig bounds internal/workerpool's parallel guardrail mode.
type WorkerPoolConfig struct {
	Size int `toml:"size"`
}

// PlanModeConfig locates the plan-mode injection config file, with the
// original's legacy env-var alias carried forward (spec §7 supplemented
// feature).
type PlanModeConfig struct {
	ConfigFile  string `toml:"config_file"`
	CompactMode bool   `toml:"compact_mode"`
}

// HistoryConfig points internal/history's persistence layer at a storage
// directory.
type HistoryConfig struct {
	StorageDir string `toml:"storage_dir"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (cmd/planguard passes $PLANGUARD_CONFIG)
//  2. PLANGUARD_CONFIG environment variable
//  3. ./planguard.toml (current directory)
//  4. ~/.config/planguard/planguard.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Emergent: EmergentConfig{
			URL: "http://localhost:3002",
		},
		Server: ServerConfig{
			Name:    "planguard",
			Version: "0.1.0",
		},
		Log: LogConfig{
			Level: "info",
		},
		Guardrail: GuardrailConfig{
			Enabled:            true,
			BlockSeverity:      "high",
			WarnSeverity:       "medium",
			CheckCoverage:      true,
			CheckConsistency:   true,
			CheckArchitecture:  true,
			CheckPerformance:   true,
			MaxFindingsPerRule: 10,
		},
		Revision: RevisionConfig{
			AutoRevise:          true,
			MaxRevisionsPerPlan: 10,
			ConfidenceThreshold: 0.7,
		},
		WorkerPool: WorkerPoolConfig{
			Size: 4,
		},
		History: HistoryConfig{
			StorageDir: ".planguard/history",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty
// string if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	// 1. Explicit path passed by the caller
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	// 2. PLANGUARD_CONFIG env var
	if p := os.Getenv("PLANGUARD_CONFIG"); p != "" {
		return p
	}

	// 3. ./planguard.toml in current directory
	if _, err := os.Stat("planguard.toml"); err == nil {
		return "planguard.toml"
	}

	// 4. ~/.config/planguard/planguard.toml
	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/planguard/planguard.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	// Emergent
	envOverride("EMERGENT_URL", &c.Emergent.URL)
	envOverride("EMERGENT_TOKEN", &c.Emergent.Token)
	envOverride("EMERGENT_API_KEY", &c.Emergent.Token) // legacy alias
	envOverride("EMERGENT_PROJECT_ID", &c.Emergent.ProjectID)

	// Logging
	envOverride("PLANGUARD_LOG_LEVEL", &c.Log.Level)

	// Guardrail
	envOverride("PLANGUARD_BLOCK_SEVERITY", &c.Guardrail.BlockSeverity)
	envOverride("PLANGUARD_WARN_SEVERITY", &c.Guardrail.WarnSeverity)
	if v := os.Getenv("PLANGUARD_GUARDRAIL_ENABLED"); v != "" {
		c.Guardrail.Enabled = (v == "true" || v == "1")
	}
	envOverrideInt("PLANGUARD_MAX_FINDINGS_PER_RULE", &c.Guardrail.MaxFindingsPerRule)

	// Revision
	if v := os.Getenv("PLANGUARD_AUTO_REVISE"); v != "" {
		c.Revision.AutoRevise = (v == "true" || v == "1")
	}
	envOverrideInt("PLANGUARD_MAX_REVISIONS_PER_PLAN", &c.Revision.MaxRevisionsPerPlan)
	envOverrideFloat("PLANGUARD_REVISION_CONFIDENCE_THRESHOLD", &c.Revision.ConfidenceThreshold)

	// Worker pool
	envOverrideInt("PLANGUARD_WORKER_POOL_SIZE", &c.WorkerPool.Size)

	// Plan mode: PLANMODE_CONFIG_FILE is this module's own name, with a
	// legacy CLAUDE_PLAN_MODE_CONFIG alias matching the original Python's
	// CLAUDE_PLAN_MODE naming convention (spec §7 supplemented feature).
	envOverride("CLAUDE_PLAN_MODE_CONFIG", &c.PlanMode.ConfigFile)
	envOverride("PLANMODE_CONFIG_FILE", &c.PlanMode.ConfigFile)
	if v := os.Getenv("PLANGUARD_COMPACT"); v != "" {
		c.PlanMode.CompactMode = (v == "true" || v == "1")
	}

	// History
	envOverride("PLANGUARD_HISTORY_DIR", &c.History.StorageDir)
}

// Validate enforces spec.md §7's "bounded numerics fail construction" rule:
// confidence thresholds, cap counts, and worker-pool size
// all validate at load time and return a wrapped error, never a panic.
func (c *Config) Validate() error {
	if _, err := findings.ParseSeverity(c.Guardrail.BlockSeverity); err != nil {
		return fmt.Errorf("guardrail.block_severity: %w", err)
	}
	if _, err := findings.ParseSeverity(c.Guardrail.WarnSeverity); err != nil {
		return fmt.Errorf("guardrail.warn_severity: %w", err)
	}
	if c.Guardrail.MaxFindingsPerRule < 1 {
		return fmt.Errorf("guardrail.max_findings_per_rule must be >= 1, got %d", c.Guardrail.MaxFindingsPerRule)
	}
	if c.Revision.MaxRevisionsPerPlan < 1 {
		return fmt.Errorf("revision.max_revisions_per_plan must be >= 1, got %d", c.Revision.MaxRevisionsPerPlan)
	}
	if c.Revision.ConfidenceThreshold < 0 || c.Revision.ConfidenceThreshold > 1 {
		return fmt.Errorf("revision.confidence_threshold must be in [0,1], got %f", c.Revision.ConfidenceThreshold)
	}
	if c.WorkerPool.Size < 1 {
		return fmt.Errorf("worker_pool.size must be >= 1, got %d", c.WorkerPool.Size)
	}
	return nil
}

// ToGuardrailConfig builds a guardrail.Config from the loaded TOML config.
// Callers should only invoke this after Load/Validate has succeeded, since
// it ignores the (by-then-impossible) severity parse error.
func (c *Config) ToGuardrailConfig() guardrail.Config {
	block, _ := findings.ParseSeverity(c.Guardrail.BlockSeverity)
	warn, _ := findings.ParseSeverity(c.Guardrail.WarnSeverity)

	return guardrail.Config{
		Enabled:                     c.Guardrail.Enabled,
		Rules:                       map[string]guardrail.RuleConfig{},
		BlockSeverity:               block,
		WarnSeverity:                warn,
		CheckCoverage:               c.Guardrail.CheckCoverage,
		CheckConsistency:            c.Guardrail.CheckConsistency,
		CheckArchitecture:           c.Guardrail.CheckArchitecture,
		CheckPerformance:            c.Guardrail.CheckPerformance,
		AutoRevise:                  c.Revision.AutoRevise,
		MaxRevisionsPerPlan:         c.Revision.MaxRevisionsPerPlan,
		RevisionConfidenceThreshold: c.Revision.ConfidenceThreshold,
		MaxFindingsPerRule:          c.Guardrail.MaxFindingsPerRule,
	}
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*dst = n
	}
}

func envOverrideFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
		*dst = f
	}
}
