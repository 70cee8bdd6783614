package planqa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyPlan_FlagsMissingTests(t *testing.T) {
	r := VerifyPlanQA("1. Create AuthService class\n2. Wire it into the router", DefaultConfig())
	require.True(t, r.HasIssues())
	require.NotEmpty(t, r.MissingTests)
	require.True(t, r.IsValid)
}

func TestVerifyPlan_TestTaskSuppressesMissingTestFinding(t *testing.T) {
	r := VerifyPlanQA("1. Create AuthService class\n2. Add unit tests for AuthService", DefaultConfig())
	require.Empty(t, r.MissingTests)
}

func TestVerifyPlan_UserFacingWithoutDocsFlagged(t *testing.T) {
	r := VerifyPlanQA("1. Add a new CLI flag --verbose", DefaultConfig())
	require.NotEmpty(t, r.MissingDocs)
}

func TestVerifyPlan_NewCodeWithoutReuseCheckFlagged(t *testing.T) {
	r := VerifyPlanQA("1. Create PaymentProcessor class", DefaultConfig())
	require.NotEmpty(t, r.PotentialDuplicates)
}

func TestVerifyPlan_ReuseCheckSuppressesDuplicateFinding(t *testing.T) {
	r := VerifyPlanQA("1. Verified no existing PaymentProcessor, create PaymentProcessor class", DefaultConfig())
	require.Empty(t, r.PotentialDuplicates)
}

func TestVerifyPlan_ArchitectureWarningsCapAtThree(t *testing.T) {
	text := "Avoid O(n^2), nested loop, no timeout, and global state in this plan."
	r := VerifyPlanQA(text, DefaultConfig())
	require.Len(t, r.ArchitectureWarnings, 3)
}

func TestVerifyPlan_FailOnMissingTestsInvalidatesPlan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailOnMissingTests = true
	r := VerifyPlanQA("1. Create AuthService class", cfg)
	require.False(t, r.IsValid)
}

func TestVerifyPlan_DisabledReturnsValidImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	r := VerifyPlanQA("Create BadService with no tests or docs", cfg)
	require.True(t, r.IsValid)
	require.False(t, r.HasIssues())
}

func TestFormatFeedback_NoIssuesMessage(t *testing.T) {
	r := Result{IsValid: true}
	require.Contains(t, r.FormatFeedback(), "All quality checks passed")
}

func TestFormatFeedback_ListsEachSection(t *testing.T) {
	r := Result{
		MissingTests:         []string{"missing test"},
		MissingDocs:          []string{"missing doc"},
		PotentialDuplicates:  []string{"dup risk"},
		ArchitectureWarnings: []string{"perf risk"},
		Suggestions:          []string{"do the thing"},
	}
	out := r.FormatFeedback()
	require.Contains(t, out, "missing test")
	require.Contains(t, out, "missing doc")
	require.Contains(t, out, "dup risk")
	require.Contains(t, out, "perf risk")
	require.Contains(t, out, "do the thing")
}
