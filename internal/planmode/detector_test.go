package planmode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect_ExplicitMarkerWinsWithFullConfidence(t *testing.T) {
	d := NewDetector(nil, 0)
	r := d.Detect("@plan Create a feature plan")
	require.True(t, r.IsPlanMode)
	require.Equal(t, 1.0, r.Confidence)
	require.Equal(t, SourceExplicitMarker, r.Source)
	require.Contains(t, r.DetectedMarkers, "@plan")
}

func TestDetect_PlanningKeywordsWithBoosterCrossThreshold(t *testing.T) {
	d := NewDetector(nil, 0)
	r := d.Detect("Create a plan with phases and milestones")
	require.True(t, r.IsPlanMode)
	require.GreaterOrEqual(t, r.Confidence, 0.9)
	require.LessOrEqual(t, r.Confidence, 1.0)
	require.Equal(t, SourcePlanningKeyword, r.Source)
}

func TestDetect_ExecutionLanguageIsNotPlanMode(t *testing.T) {
	d := NewDetector(nil, 0)
	r := d.Detect("Execute the plan now")
	require.False(t, r.IsPlanMode)
}

func TestDetect_EnvironmentVariableOverride(t *testing.T) {
	t.Setenv(EnvVarName, "true")
	d := NewDetector(nil, 0)
	r := d.Detect("anything at all")
	require.True(t, r.IsPlanMode)
	require.Equal(t, 1.0, r.Confidence)
	require.Equal(t, SourceEnvironmentVar, r.Source)
}

func TestDetect_SessionPersistenceCarriesForward(t *testing.T) {
	ctx := &Context{}
	ctx.Activate(SourcePlanningKeyword, 0.8, []string{"plan"}, 100, "sess-1")
	d := NewDetector(ctx, 0)

	r := d.Detect("just a regular follow-up message")
	require.True(t, r.IsPlanMode)
	require.Equal(t, SourceSessionPersisted, r.Source)
	require.Equal(t, 0.8, r.Confidence)
}

func TestDetect_NoIndicatorsReturnsFalse(t *testing.T) {
	d := NewDetector(nil, 0)
	r := d.Detect("what time is it")
	require.False(t, r.IsPlanMode)
	require.Equal(t, Source(""), r.Source)
}

func TestUpdateContext_ActivatesThenIncrementsTurn(t *testing.T) {
	ctx := &Context{}
	d := NewDetector(ctx, 0)

	first := d.Detect("@plan build the thing")
	d.UpdateContext(first, 1000, "sess-1")
	require.True(t, ctx.IsActive)
	require.Equal(t, 1, ctx.TurnCount)

	second := d.Detect("@plan build the thing")
	d.UpdateContext(second, 2000, "sess-1")
	require.Equal(t, 2, ctx.TurnCount)
}

func TestUpdateContext_IgnoresNonPlanModeResult(t *testing.T) {
	ctx := &Context{}
	d := NewDetector(ctx, 0)
	d.UpdateContext(Result{IsPlanMode: false}, 1000, "sess-1")
	require.False(t, ctx.IsActive)
}
