package coderules

import (
	"testing"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/stretchr/testify/require"
)

func TestMissingRetryRule_FlagsBareHTTPCall(t *testing.T) {
	content := "def fetch_data():\n    r = requests.get(url)\n    return r.json()\n"
	ctx := Context{FilePath: "client.py", Content: content, Language: "python"}

	got := MissingRetryRule{}.Check(ctx)
	require.Len(t, got, 1)
	require.Equal(t, "RESILIENCE.MISSING_RETRY", got[0].RuleID)
	require.Equal(t, 2, got[0].LineStart)
	require.Equal(t, findings.SeverityMedium, got[0].Severity)
}

func TestMissingRetryRule_SuppressedByNearbyDecorator(t *testing.T) {
	content := "@retry(stop=stop_after_attempt(3))\ndef fetch_data():\n    r = requests.get(url)\n    return r.json()\n"
	ctx := Context{FilePath: "client.py", Content: content, Language: "python"}

	got := MissingRetryRule{}.Check(ctx)
	require.Empty(t, got)
}

func TestMissingRetryRule_SuppressedByFileLevelImport(t *testing.T) {
	content := "import tenacity\n\ndef fetch_data():\n    r = requests.get(url)\n    return r.json()\n"
	ctx := Context{FilePath: "client.py", Content: content, Language: "python"}

	got := MissingRetryRule{}.Check(ctx)
	require.Empty(t, got)
}

func TestMissingRetryRule_HalvesConfidenceForTestFiles(t *testing.T) {
	content := "def fetch_data():\n    r = requests.get(url)\n    return r.json()\n"
	normalCtx := Context{FilePath: "client.py", Content: content, Language: "python"}
	testCtx := Context{FilePath: "test_client.py", Content: content, Language: "python"}

	normal := MissingRetryRule{}.Check(normalCtx)
	testFile := MissingRetryRule{}.Check(testCtx)

	require.Len(t, normal, 1)
	require.Len(t, testFile, 1)
	require.Less(t, testFile[0].Confidence, normal[0].Confidence)
}

func TestMissingRetryRule_IgnoresUnsupportedLanguage(t *testing.T) {
	content := "func Fetch() { http.Get(url) }\n"
	ctx := Context{FilePath: "client.go", Content: content, Language: "go"}

	got := MissingRetryRule{}.Check(ctx)
	require.Empty(t, got)
}
