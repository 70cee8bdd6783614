package coderules

import (
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestSwallowedExceptionsRule_SeedScenario(t *testing.T) {
	content := "try:\n    do()\nexcept Exception:\n    pass\n"
	ctx := Context{FilePath: "app.py", Content: content, Language: "python"}

	got := SwallowedExceptionsRule{}.Check(ctx)
	require.Len(t, got, 1)

	f := got[0]
	require.Equal(t, "RESILIENCE.SWALLOWED_EXCEPTIONS", f.RuleID)
	require.Equal(t, 3, f.LineStart)
	require.Equal(t, findings.SeverityHigh, f.Severity)
	require.GreaterOrEqual(t, f.Confidence, 0.90)
	require.NotEmpty(t, f.RemediationHints)
	require.Contains(t, f.RemediationHints[0], "Log the exception")
}

func TestSwallowedExceptionsRule_SuppressedWhenLogged(t *testing.T) {
	content := "try:\n    do()\nexcept Exception as e:\n    logger.exception(e)\n"
	ctx := Context{FilePath: "app.py", Content: content, Language: "python"}

	got := SwallowedExceptionsRule{}.Check(ctx)
	require.Empty(t, got)
}

func TestSwallowedExceptionsRule_JavaScriptEmptyCatch(t *testing.T) {
	content := "try {\n  risky();\n} catch (e) {}\n"
	ctx := Context{FilePath: "app.js", Content: content, Language: "javascript"}

	got := SwallowedExceptionsRule{}.Check(ctx)
	require.Len(t, got, 1)
}
