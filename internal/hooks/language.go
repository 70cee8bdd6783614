// Package hooks wires the rule engines and plan-mode pipeline into the two
// assistant lifecycle entry points named in spec.md §6: the user-prompt hook
// and the post-write hook. Grounded on hooks/prompt_handler.py (user-prompt
// side) and claude_indexer/hooks/post_write.py (post-write side), translated
// from Python's stdin/stdout JSON protocol into the same shape over Go's
// encoding/json and log/slog.
package hooks

import "path/filepath"

// extToLanguage mirrors post_write.py's _detect_language extension table.
var extToLanguage = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".sh":   "bash",
	".bash": "bash",
	".go":   "go",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".c":    "c",
	".cpp":  "cpp",
	".h":    "c",
	".hpp":  "cpp",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".html": "html",
	".css":  "css",
}

// detectLanguage resolves a file's language from its extension, returning
// "unknown" for anything not in the table (matching the original's fallback).
func detectLanguage(path string) string {
	lang, ok := extToLanguage[filepath.Ext(path)]
	if !ok {
		return "unknown"
	}
	return lang
}
