package trace_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/trace"
)

func selectionEvent(ts time.Time, decisionID string, status model.Status, approved, proposed float64) model.TraceEvent {
	return model.NewTraceEvent(ts, decisionID, model.PhaseFinal, model.ComponentGrid, model.RuleApprovedDeltaSelected,
		status, model.SeverityLow, "selected", model.WithApprovedDeltaP(approved), model.WithProposedDeltaP(proposed))
}

func TestSummarize_EmptyWindowYieldsZeroRate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	summary := trace.Summarize(nil, now, 600)
	assert.Equal(t, 0, summary.TotalRecent)
	assert.Equal(t, 0.0, summary.BlockedRatePct)
}

func TestSummarize_CountsUniqueDecisionsAndBlockedRate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	events := []model.TraceEvent{
		selectionEvent(now.Add(-10*time.Second), "d1", model.StatusAllowed, 100, 100),
		selectionEvent(now.Add(-20*time.Second), "d2", model.StatusBlocked, 0, 200),
		selectionEvent(now.Add(-30*time.Second), "d3", model.StatusAllowed, 50, 100),
	}

	summary := trace.Summarize(events, now, 60)

	assert.Equal(t, 3, summary.TotalRecent)
	assert.Equal(t, 1, summary.BlockedDecisionsUnique)
	assert.Equal(t, 2, summary.UnsafeActionsPreventedTotal) // d2 blocked + d3 clipped
	assert.InDelta(t, 33.33, summary.BlockedRatePct, 0.1)
}

func TestSummarize_ExcludesEventsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	events := []model.TraceEvent{
		selectionEvent(now.Add(-2*time.Hour), "old", model.StatusAllowed, 100, 100),
		selectionEvent(now.Add(-10*time.Second), "recent", model.StatusAllowed, 100, 100),
	}

	summary := trace.Summarize(events, now, 60)
	assert.Equal(t, 1, summary.TotalRecent)
}

func TestSummarize_ExcludesCandidatePhaseEvents(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	candidate := model.NewTraceEvent(now.Add(-5*time.Second), "c1", model.PhaseCandidate, model.ComponentThermal,
		model.RuleApprovedDeltaSelected, model.StatusBlocked, model.SeverityLow, "discarded probe")

	summary := trace.Summarize([]model.TraceEvent{candidate}, now, 60)
	assert.Equal(t, 0, summary.TotalRecent)
}

func TestSummarize_DerivedEconomicsArePureFunctionsOfKWhShifted(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
	events := []model.TraceEvent{
		selectionEvent(now.Add(-10*time.Second), "d1", model.StatusAllowed, 1200, 1200),
	}

	summary := trace.Summarize(events, now, 60)
	expectedKWh := 1200 * (30.0 / 3600.0)
	assert.InDelta(t, expectedKWh, summary.KWhShifted, 1e-9)
	assert.InDelta(t, 0.15*expectedKWh, summary.MoneySaved, 1e-9)
	assert.InDelta(t, 0.4*expectedKWh, summary.CO2Avoided, 1e-9)
}
