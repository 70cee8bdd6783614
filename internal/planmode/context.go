// Package planmode implements the plan-mode pipeline's detection and
// context half (spec §4.5): classifying a user prompt against explicit
// markers, scored planning keywords, an environment override, and
// session-persisted state, plus the guidelines/hints/injector stages built
// on top of detection. Grounded on the original's
// hooks/plan_mode_detector.py and session/plan_context.py.
package planmode

// Source records how plan mode was detected (spec §3 "source
// {explicit-marker, keyword, env-var, session}").
type Source string

const (
	SourceExplicitMarker  Source = "explicit_marker"
	SourcePlanningKeyword Source = "planning_keyword"
	SourceEnvironmentVar  Source = "environment_var"
	SourceSessionPersisted Source = "session_persisted"
)

// Context tracks plan-mode state across turns in a session (spec §3
// "Plan-mode context | is-active; source; confidence; activation time;
// markers; turn count; optional session id"). Activation/turn bookkeeping
// is owned by the caller; this type only holds the data, since session
// persistence itself is an out-of-scope collaborator (spec §1 "session/
// workspace bookkeeping").
type Context struct {
	IsActive        bool
	Source          Source
	Confidence      float64
	ActivatedAtUnix int64
	DetectedMarkers []string
	TurnCount       int
	SessionID       string
}

// Activate sets the context active with the given detection parameters.
func (c *Context) Activate(source Source, confidence float64, markers []string, activatedAtUnix int64, sessionID string) {
	c.IsActive = true
	c.Source = source
	c.Confidence = confidence
	c.DetectedMarkers = markers
	c.ActivatedAtUnix = activatedAtUnix
	c.TurnCount = 1
	if sessionID != "" {
		c.SessionID = sessionID
	}
}

// Deactivate clears plan-mode state explicitly; detection never
// auto-deactivates (spec §4.5 prose on the original's "we don't deactivate
// automatically - controlled externally").
func (c *Context) Deactivate() {
	c.IsActive = false
	c.Source = ""
	c.Confidence = 0
	c.DetectedMarkers = nil
	c.ActivatedAtUnix = 0
}

// IncrementTurn bumps the turn counter while plan mode remains active.
func (c *Context) IncrementTurn() {
	if c.IsActive {
		c.TurnCount++
	}
}
