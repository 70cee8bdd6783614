// Package findings defines the shared value types produced by every rule
// family: code-quality rules and plan-validation rules alike stamp findings
// built from these shapes.
package findings

import "fmt"

// Severity is an ordered enum; zero value is the lowest severity.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity parses the lowercase name back into a Severity.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if name == s {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' {
		str = str[1 : len(str)-1]
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AtLeast reports whether s meets or exceeds the threshold severity.
func (s Severity) AtLeast(threshold Severity) bool { return s >= threshold }

// Trigger names the lifecycle event a rule wants to run on.
type Trigger string

const (
	TriggerOnWrite  Trigger = "on-write"
	TriggerOnStop   Trigger = "on-stop"
	TriggerOnCommit Trigger = "on-commit"
)

// Evidence is one piece of supporting material for a finding.
type Evidence struct {
	Description string         `json:"description"`
	Line        *int           `json:"line,omitempty"`
	Snippet     string         `json:"snippet,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Fix is a deterministic, machine-applicable text replacement for a code
// finding. It is consumed once by the fix applier.
type Fix struct {
	FindingRuleID string `json:"finding_rule_id"`
	OldText       string `json:"old_text"`
	NewText       string `json:"new_text"`
	LineStart     int    `json:"line_start"`
	LineEnd       int    `json:"line_end"`
	Description   string `json:"description"`
}

// Finding is the code-quality rule output: a diagnosed issue anchored to a
// file and line range. Immutable after creation.
type Finding struct {
	RuleID            string     `json:"rule_id"`
	Severity          Severity   `json:"severity"`
	Summary           string     `json:"summary"`
	FilePath          string     `json:"file_path"`
	LineStart         int        `json:"line_start"`
	LineEnd           int        `json:"line_end"`
	Evidence          []Evidence `json:"evidence"`
	Confidence        float64    `json:"confidence"`
	RemediationHints  []string   `json:"remediation_hints"`
	Fix               *Fix       `json:"fix,omitempty"`
}

// GetConfidence implements runutil.Confidenced.
func (f Finding) GetConfidence() float64 { return f.Confidence }

// NewFinding stamps the rule id and clamps confidence into [0,1]; it is the
// construction helper every rule funnels findings through (spec §4.2
// "finding construction helper").
func NewFinding(ruleID string, severity Severity, summary, filePath string, lineStart, lineEnd int, confidence float64) Finding {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Finding{
		RuleID:     ruleID,
		Severity:   severity,
		Summary:    summary,
		FilePath:   filePath,
		LineStart:  lineStart,
		LineEnd:    lineEnd,
		Confidence: confidence,
	}
}
