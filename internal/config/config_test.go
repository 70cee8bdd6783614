package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		original, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, original)
			}
		})
	}
}

func TestLoad_AppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	clearEnv(t, "PLANGUARD_CONFIG", "EMERGENT_TOKEN", "PLANGUARD_BLOCK_SEVERITY", "PLANGUARD_WORKER_POOL_SIZE")
	dir := t.TempDir()
	oldwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldwd) })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "high", cfg.Guardrail.BlockSeverity)
	require.Equal(t, 4, cfg.WorkerPool.Size)
	require.True(t, cfg.Revision.AutoRevise)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t, "PLANGUARD_CONFIG", "PLANGUARD_WORKER_POOL_SIZE", "PLANGUARD_BLOCK_SEVERITY")
	dir := t.TempDir()
	path := filepath.Join(dir, "planguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[worker_pool]
size = 8

[guardrail]
block_severity = "critical"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.WorkerPool.Size)
	require.Equal(t, "critical", cfg.Guardrail.BlockSeverity)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[worker_pool]
size = 8
`), 0o644))

	os.Setenv("PLANGUARD_WORKER_POOL_SIZE", "16")
	t.Cleanup(func() { os.Unsetenv("PLANGUARD_WORKER_POOL_SIZE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.WorkerPool.Size)
}

func TestLoad_RejectsInvalidSeverity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[guardrail]
block_severity = "extreme"
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsZeroWorkerPoolSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[worker_pool]
size = 0
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsOutOfRangeConfidenceThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planguard.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[revision]
confidence_threshold = 1.5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestToGuardrailConfig_ResolvesSeverityStrings(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	gc := cfg.ToGuardrailConfig()
	require.Equal(t, cfg.Revision.AutoRevise, gc.AutoRevise)
	require.Equal(t, cfg.Guardrail.MaxFindingsPerRule, gc.MaxFindingsPerRule)
}

func TestApplyEnv_LegacyPlanModeAliasIsHonored(t *testing.T) {
	clearEnv(t, "PLANMODE_CONFIG_FILE")
	os.Setenv("CLAUDE_PLAN_MODE_CONFIG", "/tmp/legacy-plan-mode.json")
	t.Cleanup(func() { os.Unsetenv("CLAUDE_PLAN_MODE_CONFIG") })

	cfg := &Config{}
	cfg.applyEnv()
	require.Equal(t, "/tmp/legacy-plan-mode.json", cfg.PlanMode.ConfigFile)
}
