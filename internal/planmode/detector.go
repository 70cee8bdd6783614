package planmode

import (
	"math"
	"os"
	"regexp"
	"strings"
)

// Confidence constants (spec §4.5, ported verbatim from the original's
// class-level constants).
const (
	ConfidenceThreshold  = 0.6
	ExplicitConfidence   = 1.0
	KeywordBaseConfidence = 0.7
	BoosterIncrement     = 0.1
	MaxBoosterIncrement  = 0.3
	NegativeDecrement    = 0.15
	EnvConfidence        = 1.0
)

// EnvVarName is the environment-variable override checked by the detector.
const EnvVarName = "CLAUDE_PLAN_MODE"

var explicitPattern = regexp.MustCompile(`(?i)@agent-plan|@plan\b|--plan\b|plan\s*mode`)

var planningKeywordPattern = regexp.MustCompile(
	`(?i)\b(create|make|write|design|implement|develop|draft|formulate)\s+` +
		`(a\s+)?(\w+\s+){0,3}plan\b`,
)

var planningBoosterPattern = regexp.MustCompile(`(?i)\b(step[- ]by[- ]step|phases?|milestones?|tasks?|timeline|roadmap)\b`)

var nonPlanningPattern = regexp.MustCompile(`(?i)\b(execute|run|apply|implement this|do it|start coding|write the code)\b`)

var truthyEnvValues = map[string]bool{"true": true, "1": true, "yes": true, "on": true}

// Result is one detection outcome (spec §3 "Detection result").
type Result struct {
	IsPlanMode      bool
	Confidence      float64
	Source          Source
	DetectedMarkers []string
	Reasoning       string
}

// Detector classifies prompts into plan-mode detection results using a
// fixed precedence order (spec §4.5): explicit markers, environment
// override, planning keywords, session persistence.
type Detector struct {
	Context            *Context
	ConfidenceThreshold float64
}

// NewDetector builds a detector over ctx (created fresh if nil), with an
// optional threshold override.
func NewDetector(ctx *Context, confidenceThreshold float64) *Detector {
	if ctx == nil {
		ctx = &Context{}
	}
	threshold := confidenceThreshold
	if threshold == 0 {
		threshold = ConfidenceThreshold
	}
	return &Detector{Context: ctx, ConfidenceThreshold: threshold}
}

// Detect runs all detection sources in precedence order over prompt,
// returning on the first success (spec §4.5 "first success wins").
func (d *Detector) Detect(prompt string) Result {
	if r := d.checkExplicitMarkers(prompt); r.IsPlanMode {
		return r
	}
	if r := d.checkEnvironmentVariable(); r.IsPlanMode {
		return r
	}
	if r := d.checkPlanningKeywords(prompt); r.IsPlanMode {
		return r
	}
	if r := d.checkSessionPersistence(); r.IsPlanMode {
		return r
	}
	return Result{Reasoning: "No Plan Mode indicators detected"}
}

func (d *Detector) checkExplicitMarkers(prompt string) Result {
	matches := explicitPattern.FindAllString(prompt, -1)
	if len(matches) == 0 {
		return Result{}
	}
	markers := make([]string, len(matches))
	for i, m := range matches {
		markers[i] = strings.ToLower(strings.TrimSpace(m))
	}
	return Result{
		IsPlanMode:      true,
		Confidence:      ExplicitConfidence,
		Source:          SourceExplicitMarker,
		DetectedMarkers: markers,
		Reasoning:       "Explicit marker detected: " + strings.Join(markers, ", "),
	}
}

func (d *Detector) checkEnvironmentVariable() Result {
	value := strings.ToLower(os.Getenv(EnvVarName))
	if !truthyEnvValues[value] {
		return Result{}
	}
	return Result{
		IsPlanMode:      true,
		Confidence:      EnvConfidence,
		Source:          SourceEnvironmentVar,
		DetectedMarkers: []string{EnvVarName + "=" + value},
		Reasoning:       "Environment variable " + EnvVarName + " is set",
	}
}

func (d *Detector) checkPlanningKeywords(prompt string) Result {
	matches := planningKeywordPattern.FindAllString(prompt, -1)
	if len(matches) == 0 {
		return Result{}
	}

	confidence := KeywordBaseConfidence
	markers := make([]string, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, strings.TrimSpace(m))
	}

	boosterMatches := planningBoosterPattern.FindAllString(prompt, -1)
	if len(boosterMatches) > 0 {
		boost := float64(len(boosterMatches)) * BoosterIncrement
		if boost > MaxBoosterIncrement {
			boost = MaxBoosterIncrement
		}
		confidence += boost
		for _, b := range boosterMatches {
			markers = append(markers, strings.ToLower(b))
		}
	}

	negativeMatches := nonPlanningPattern.FindAllString(prompt, -1)
	if len(negativeMatches) > 0 {
		confidence -= float64(len(negativeMatches)) * NegativeDecrement
	}

	// Round off float drift so 0.7 + 0.2 scores 0.9, not 0.8999999999999999.
	confidence = clamp(math.Round(confidence*1e9)/1e9, 0, 1)

	if confidence >= d.ConfidenceThreshold {
		return Result{
			IsPlanMode:      true,
			Confidence:      confidence,
			Source:          SourcePlanningKeyword,
			DetectedMarkers: markers,
			Reasoning:       "Planning keywords detected with high confidence",
		}
	}
	return Result{
		IsPlanMode: false,
		Confidence: confidence,
		Reasoning:  "Planning keywords found but confidence below threshold",
	}
}

func (d *Detector) checkSessionPersistence() Result {
	if !d.Context.IsActive {
		return Result{}
	}
	return Result{
		IsPlanMode:      true,
		Confidence:      d.Context.Confidence,
		Source:          SourceSessionPersisted,
		DetectedMarkers: []string{"session_state"},
		Reasoning:       "Plan Mode persisted from previous turn",
	}
}

// UpdateContext activates or advances the detector's context per result
// (spec §4.5: once active, non-plan-mode detections don't auto-deactivate;
// that remains an explicit, externally controlled action).
func (d *Detector) UpdateContext(result Result, activatedAtUnix int64, sessionID string) {
	if !result.IsPlanMode {
		return
	}
	if !d.Context.IsActive {
		d.Context.Activate(result.Source, result.Confidence, result.DetectedMarkers, activatedAtUnix, sessionID)
		return
	}
	d.Context.IncrementTurn()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
