package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/rlefko/planguard/internal/planmode"
)

// intentPatterns mirrors prompt_handler.py's PATTERNS table, compiled once.
var intentPatterns = map[string]*regexp.Regexp{
	"search":      regexp.MustCompile(`(?i)\b(find|search|look for|where is|locate|show me)\b`),
	"debug":       regexp.MustCompile(`(?i)\b(error|bug|fix|issue|problem|broken|failing|crash)\b`),
	"implement":   regexp.MustCompile(`(?i)\b(add|create|implement|build|write|make)\b`),
	"refactor":    regexp.MustCompile(`(?i)\b(refactor|improve|clean up|optimize|restructure)\b`),
	"understand":  regexp.MustCompile(`(?i)\b(how does|what does|explain|understand|architecture)\b`),
	"code_terms":  regexp.MustCompile(`(?i)\b(function|class|component|module|service|api|endpoint)\b`),
}

var sensitivePattern = regexp.MustCompile(`(?i)\b(password|secret|api[_-]?key|token|credential|private[_-]?key)\s*[:=]`)

// detectIntent reports which intent categories prompt matches.
func detectIntent(prompt string) map[string]bool {
	intents := make(map[string]bool)
	for name, pattern := range intentPatterns {
		if pattern.MatchString(prompt) {
			intents[name] = true
		}
	}
	return intents
}

// checkSensitive returns a warning line when prompt looks like it carries a
// credential, or "" otherwise.
func checkSensitive(prompt string) string {
	if sensitivePattern.MatchString(prompt) {
		return "Warning: Prompt may contain sensitive data."
	}
	return ""
}

// buildToolSuggestions reproduces build_context: MCP tool-usage suggestions
// keyed off detected intent, scoped to collection's memory-tool prefix.
func buildToolSuggestions(intents map[string]bool, collection string) string {
	prefix := fmt.Sprintf("mcp__%s-memory__", collection)
	var suggestions []string

	if intents["search"] || intents["understand"] {
		suggestions = append(suggestions, fmt.Sprintf(`Use %ssearch_similar("query") to find relevant code`, prefix))
	}
	if intents["debug"] {
		suggestions = append(suggestions, fmt.Sprintf(`Check %ssearch_similar("error description", entityTypes=["debugging_pattern"]) for past solutions`, prefix))
	}
	if intents["implement"] && intents["code_terms"] {
		suggestions = append(suggestions, fmt.Sprintf(`Search for existing patterns with %ssearch_similar() before implementing`, prefix))
	}
	if intents["refactor"] {
		suggestions = append(suggestions, fmt.Sprintf(`Use %sread_graph(entity="Name", mode="smart") to understand dependencies`, prefix))
	}

	if len(suggestions) == 0 && intents["code_terms"] {
		suggestions = append(suggestions, fmt.Sprintf(`This project has semantic memory. Use %ssearch_similar() before reading files.`, prefix))
	}

	return strings.Join(suggestions, "\n")
}

// UserPromptInput is the hook's stdin document (spec §6 "at least
// { prompt, cwd }").
type UserPromptInput struct {
	Prompt string `json:"prompt"`
	Cwd    string `json:"cwd"`
}

// UserPromptOptions carries the process-level knobs the hook needs beyond
// stdin: the memory collection name and plan-mode injection configuration,
// both resolved once in cmd/planguard (the collection from its --collection
// flag, the injection config from the environment and internal/config).
type UserPromptOptions struct {
	Collection           string
	InjectionConfig       planmode.InjectionConfig
	ConfidenceThreshold   float64
	PlanModeContext       *planmode.Context
}

// RunUserPromptHook reads a UserPromptInput JSON document from r, writes the
// composed context block (if any) to w, and logs any non-fatal failure
// through logger — it never returns a non-nil error that should change the
// caller's exit code, since the user-prompt hook always exits 0 (spec §6,
// §7 "fails open").
func RunUserPromptHook(r io.Reader, w io.Writer, logger *slog.Logger, opts UserPromptOptions) {
	var input UserPromptInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		logger.Warn("user-prompt hook: failed to parse stdin", "error", err)
		return
	}
	if input.Cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			input.Cwd = wd
		}
	}

	var parts []string

	if warning := checkSensitive(input.Prompt); warning != "" {
		parts = append(parts, warning)
	}

	detector := planmode.NewDetector(opts.PlanModeContext, opts.ConfidenceThreshold)
	result := detector.Detect(input.Prompt)

	if result.IsPlanMode {
		parts = append(parts, fmt.Sprintf("[Plan Mode Active: %s, confidence=%.0f%%]", result.Source, result.Confidence*100))

		injector := planmode.NewInjector(opts.Collection, input.Cwd, opts.InjectionConfig)
		injection := injector.Inject(input.Prompt)
		if injection.Success && injection.InjectedText != "" {
			parts = append(parts, injection.InjectedText)
		}
	} else {
		intents := detectIntent(input.Prompt)
		if suggestions := buildToolSuggestions(intents, opts.Collection); suggestions != "" {
			parts = append(parts, suggestions)
		}
	}

	if len(parts) > 0 {
		fmt.Fprintln(w, strings.Join(parts, "\n"))
	}
}
