package coderules

import (
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestForcePushRule_SeedScenario(t *testing.T) {
	ctx := Context{FilePath: "deploy.sh", Content: "git push --force origin main\n", Language: "bash"}
	got := ForcePushRule{}.Check(ctx)
	require.Len(t, got, 1)
	require.Equal(t, "DANGER: Force push to main/master branch", got[0].Summary)
	require.Equal(t, findings.SeverityCritical, got[0].Severity)

	ctx2 := Context{FilePath: "deploy.sh", Content: "git push --force origin feature-x\n", Language: "bash"}
	got2 := ForcePushRule{}.Check(ctx2)
	require.Len(t, got2, 1)
	require.Equal(t, "Force push command detected", got2[0].Summary)
}

func TestDestructiveOpsRule_RootRmExcludesTmp(t *testing.T) {
	ctx := Context{FilePath: "cleanup.sh", Content: "rm -rf /tmp/build\n", Language: "bash"}
	got := DestructiveOpsRule{}.Check(ctx)
	require.Empty(t, got)

	ctx2 := Context{FilePath: "cleanup.sh", Content: "rm -rf /\n", Language: "bash"}
	got2 := DestructiveOpsRule{}.Check(ctx2)
	require.Len(t, got2, 1)
}

func TestGitRules_IgnoreNonShellLanguages(t *testing.T) {
	rule := ForcePushRule{}
	admits := false
	for _, l := range rule.SupportedLanguages() {
		if l == "python" {
			admits = true
		}
	}
	require.False(t, admits)
}
