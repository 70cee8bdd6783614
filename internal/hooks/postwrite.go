package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rlefko/planguard/internal/findings"
	"github.com/rlefko/planguard/internal/rules/coderules"
)

// PostWriteResult mirrors PostWriteResult's JSON shape from post_write.py,
// with the per-severity summary counts filled in by summarize.
type PostWriteResult struct {
	Status          string              `json:"status"`
	Findings        []findings.Finding  `json:"findings"`
	ExecutionTimeMs float64             `json:"execution_time_ms"`
	RulesExecuted   int                 `json:"rules_executed"`
	Summary         postWriteSummary    `json:"summary"`
	Error           string              `json:"error,omitempty"`
}

type postWriteSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// ShouldWarn reports whether the post-write hook should exit 1 (spec §6
// "exit 0 when no findings, 1 when findings exist").
func (r PostWriteResult) ShouldWarn() bool { return len(r.Findings) > 0 }

func summarize(found []findings.Finding) postWriteSummary {
	s := postWriteSummary{Total: len(found)}
	for _, f := range found {
		switch f.Severity {
		case findings.SeverityCritical:
			s.Critical++
		case findings.SeverityHigh:
			s.High++
		case findings.SeverityMedium:
			s.Medium++
		case findings.SeverityLow:
			s.Low++
		}
	}
	return s
}

// CheckFile runs the fast code rules against path, reading content from disk
// unless content is already supplied (spec §6 "accepts a file path and
// optional content"), mirroring PostWriteExecutor.check_file.
func CheckFile(engine *coderules.Engine, path string, content *string) PostWriteResult {
	start := time.Now()

	var body string
	if content != nil {
		body = *content
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return PostWriteResult{
				Error:           fmt.Sprintf("file not found: %s", path),
				ExecutionTimeMs: elapsedMs(start),
			}
		}
		body = string(data)
	}

	ctx := coderules.Context{
		FilePath: path,
		Content:  body,
		Language: detectLanguage(path),
	}

	result := engine.RunFast(ctx)
	found := result.Findings
	if found == nil {
		found = []findings.Finding{}
	}

	status := "ok"
	if len(found) > 0 {
		status = "warn"
	}

	return PostWriteResult{
		Status:          status,
		Findings:        found,
		ExecutionTimeMs: elapsedMs(start),
		RulesExecuted:   result.RulesRun,
		Summary:         summarize(found),
	}
}

func elapsedMs(start time.Time) float64 {
	ms := time.Since(start).Seconds() * 1000
	// round to 2 decimal places, matching the original's round(..., 2)
	return float64(int(ms*100+0.5)) / 100
}

var severityIcon = map[findings.Severity]string{
	findings.SeverityCritical: "[CRITICAL]",
	findings.SeverityHigh:     "[HIGH]",
	findings.SeverityMedium:   "[MEDIUM]",
	findings.SeverityLow:      "[LOW]",
}

var severityOrder = []findings.Severity{
	findings.SeverityCritical, findings.SeverityHigh, findings.SeverityMedium, findings.SeverityLow,
}

// FormatFindingsForDisplay renders a human-readable text listing, grouped by
// severity descending, matching format_findings_for_display's layout
// (icons swapped for ASCII tags since this is a terminal, not an emoji-aware
// chat client).
func FormatFindingsForDisplay(result PostWriteResult) string {
	if len(result.Findings) == 0 {
		return ""
	}

	var lines []string
	for _, sev := range severityOrder {
		for _, f := range result.Findings {
			if f.Severity != sev {
				continue
			}
			location := f.FilePath
			if f.LineStart > 0 {
				location += ":" + strconv.Itoa(f.LineStart)
			}
			lines = append(lines, fmt.Sprintf("%s %s", severityIcon[sev], f.RuleID))
			lines = append(lines, "   "+location)
			lines = append(lines, "   "+f.Summary)
			if len(f.RemediationHints) > 0 {
				lines = append(lines, "   Suggestion: "+f.RemediationHints[0])
			}
			lines = append(lines, "")
		}
	}

	if result.ExecutionTimeMs > 0 {
		lines = append(lines, fmt.Sprintf("Checked in %.0fms", result.ExecutionTimeMs))
	}

	return strings.Join(lines, "\n")
}

// RunPostWriteHook runs the post-write checks for path and writes either a
// JSON document or a formatted text listing to w, returning the process
// exit code (0 = no findings, 1 = findings present — spec §6, §7 "exit 1
// only to signal findings, not faults").
func RunPostWriteHook(engine *coderules.Engine, w io.Writer, logger *slog.Logger, path string, content *string, outputJSON bool) int {
	result := CheckFile(engine, path, content)

	switch {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Error("post-write hook: failed to write JSON result", "error", err)
		}
	case len(result.Findings) > 0:
		fmt.Fprintln(w, FormatFindingsForDisplay(result))
	case result.Error != "":
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}

	if result.ShouldWarn() {
		return 1
	}
	return 0
}
