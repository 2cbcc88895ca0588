package persistence_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/persistence"
)

var testSinkCounter int

func openTestSink(t *testing.T) *persistence.Sink {
	t.Helper()
	testSinkCounter++
	dsn := fmt.Sprintf("file:sink_test_%d?mode=memory&cache=shared", testSinkCounter)
	sink, err := persistence.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func TestSink_AppendAndRecentRoundTrip(t *testing.T) {
	sink := openTestSink(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	decision := model.DecisionRecord{
		DecisionID:        "d1",
		TS:                now,
		RequestedDeltaPKW: 200,
		ApprovedDeltaPKW:  200,
		ReasonCode:        model.RuleApprovedDeltaSelected,
		Confidence:        0.85,
	}
	events := []model.TraceEvent{
		model.NewTraceEvent(now, "d1", model.PhaseFinal, model.ComponentGrid, model.RuleGridHeadroomClamp, model.StatusInfo, model.SeverityLow, "clamped"),
	}

	require.NoError(t, sink.Append(decision, events))

	recent, err := sink.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "d1", recent[0].DecisionID)

	trace, err := sink.TraceFor("d1")
	require.NoError(t, err)
	require.Len(t, trace, 1)
	assert.Equal(t, model.RuleGridHeadroomClamp, trace[0].RuleID)
}

func TestSink_AppendExcludesCandidatePhaseEvents(t *testing.T) {
	sink := openTestSink(t)
	now := time.Now().UTC()

	decision := model.DecisionRecord{DecisionID: "d2", TS: now}
	events := []model.TraceEvent{
		model.NewTraceEvent(now, "d2", model.PhaseCandidate, model.ComponentThermal, model.RuleThermalPredictStep, model.StatusInfo, model.SeverityLow, "probe"),
	}
	require.NoError(t, sink.Append(decision, events))

	trace, err := sink.TraceFor("d2")
	require.NoError(t, err)
	assert.Empty(t, trace)
}

func TestCoalesce_GroupsConsecutiveMatchingBlockedRows(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.DecisionRecord{
		{DecisionID: "a", TS: now, Blocked: true, ReasonCode: model.RuleThermalBlocked, PrimaryConstraint: model.ComponentThermal, RequestedDeltaPKW: 500},
		{DecisionID: "b", TS: now.Add(-5 * time.Second), Blocked: true, ReasonCode: model.RuleThermalBlocked, PrimaryConstraint: model.ComponentThermal, RequestedDeltaPKW: 500},
		{DecisionID: "c", TS: now.Add(-9 * time.Second), Blocked: false},
	}

	coalesced := persistence.Coalesce(rows, 10)
	require.Len(t, coalesced, 2)
	assert.Equal(t, 2, coalesced[0].Count)
	assert.Equal(t, 1, coalesced[1].Count)
}

func TestCoalesce_DoesNotGroupAcrossWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.DecisionRecord{
		{DecisionID: "a", TS: now, Blocked: true, ReasonCode: model.RuleThermalBlocked, RequestedDeltaPKW: 500},
		{DecisionID: "b", TS: now.Add(-20 * time.Second), Blocked: true, ReasonCode: model.RuleThermalBlocked, RequestedDeltaPKW: 500},
	}

	coalesced := persistence.Coalesce(rows, 10)
	require.Len(t, coalesced, 2)
}
