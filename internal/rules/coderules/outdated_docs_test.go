package coderules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutdatedDocsRule_PythonMissingParam(t *testing.T) {
	content := "def fetch(a, b):\n    \"\"\"Fetch data.\n\n    :param a: first\n    \"\"\"\n    pass\n"
	ctx := Context{FilePath: "svc.py", Content: content, Language: "python"}

	got := OutdatedDocsRule{}.Check(ctx)
	require.Len(t, got, 1)
	require.Equal(t, "DOCUMENTATION.OUTDATED_DOCS", got[0].RuleID)
	require.Contains(t, got[0].Evidence[0].Data["missing_in_docs"], "b")
}

func TestOutdatedDocsRule_JSDocExtraParam(t *testing.T) {
	content := "/**\n * @param {string} name\n * @param {number} age\n */\nfunction greet(name) {\n  return name;\n}\n"
	ctx := Context{FilePath: "greet.js", Content: content, Language: "javascript"}

	got := OutdatedDocsRule{}.Check(ctx)
	require.Len(t, got, 1)
	require.Contains(t, got[0].Evidence[0].Data["extra_in_docs"], "age")
}

func TestOutdatedDocsRule_MatchingSignatureProducesNoFinding(t *testing.T) {
	content := "def fetch(a, b):\n    \"\"\"Fetch data.\n\n    :param a: first\n    :param b: second\n    \"\"\"\n    pass\n"
	ctx := Context{FilePath: "svc.py", Content: content, Language: "python"}

	got := OutdatedDocsRule{}.Check(ctx)
	require.Empty(t, got)
}

func TestOutdatedDocsRule_IgnoresUnsupportedLanguage(t *testing.T) {
	content := "func Fetch(a, b int) {}\n"
	ctx := Context{FilePath: "svc.go", Content: content, Language: "go"}

	got := OutdatedDocsRule{}.Check(ctx)
	require.Empty(t, got)
}
