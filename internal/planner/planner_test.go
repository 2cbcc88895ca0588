package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/planner"
)

func baseInput() planner.Input {
	return planner.Input{
		PSiteKW:        3000,
		GridHeadroomKW: 500,
		ThermalCfg: model.ThermalConfig{
			KTransfer:        5.0,
			TMax:             55.0,
			TMin:             10.0,
			TAmbient:         25.0,
			TSetpoint:        45.0,
			TDeadband:        1.0,
			CoolingRampMaxKW: 50.0,
			CoolingCOP:       3.0,
			CoolingMinKW:     0,
			CoolingMaxKW:     2000,
			KpTempKWPerC:     200.0,
			CMassKJPerC:      5000.0,
			MaxExportKW:      1000,
			MaxImportKW:      1000,
		},
		ThermalState: model.ThermalState{TC: 40.0, PCoolKW: 300},
		AgingCfg: model.BatteryAgingConfig{
			EaJPerMol:                 20000,
			RGasJPerMolK:              8.314,
			KAging:                    1e-8,
			MaxCapLossFracPerDecision: 0.01,
			MaxTempForAgingC:          60,
		},
		DeltaPRequestKW: 200,
		HorizonS:        30,
		DtS:             1,
		RampRateKWPerS:  20,
		DecisionID:      "dec-1",
		Now:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlan_ApprovesWithinHeadroomWhenThermallySafe(t *testing.T) {
	in := baseInput()
	res := planner.Plan(in)

	require.False(t, res.Plan.Blocked)
	assert.InDelta(t, 200, res.ApprovedDeltaPKW, 1.0)
	assert.NotEmpty(t, res.Trace)
	assert.NotEmpty(t, res.Plan.Steps)
}

func TestPlan_ZeroHeadroomBlocksImmediately(t *testing.T) {
	in := baseInput()
	in.GridHeadroomKW = 0

	res := planner.Plan(in)

	require.True(t, res.Plan.Blocked)
	assert.Equal(t, model.RuleGridHeadroomZero, res.Plan.Reason)
	assert.Equal(t, model.ComponentGrid, res.Plan.PrimaryConstraint)
	assert.Equal(t, 0.0, res.ApprovedDeltaPKW)

	var sawZero bool
	for _, ev := range res.Trace {
		if ev.RuleID == model.RuleGridHeadroomZero {
			sawZero = true
		}
	}
	assert.True(t, sawZero)
}

func TestPlan_ClampsToGridHeadroomBelowRequest(t *testing.T) {
	in := baseInput()
	in.DeltaPRequestKW = 900
	in.GridHeadroomKW = 150

	res := planner.Plan(in)

	assert.LessOrEqual(t, res.ApprovedDeltaPKW, 150.0+1e-6)

	var sawClamp bool
	for _, ev := range res.Trace {
		if ev.RuleID == model.RuleGridHeadroomClamp {
			sawClamp = true
		}
	}
	assert.True(t, sawClamp)
}

func TestPlan_NegativeRequestIsImportAndBoundedByMaxImport(t *testing.T) {
	in := baseInput()
	in.DeltaPRequestKW = -300
	in.ThermalCfg.MaxImportKW = 100
	in.GridHeadroomKW = 1000

	res := planner.Plan(in)

	assert.GreaterOrEqual(t, res.ApprovedDeltaPKW, -100.0-1e-6)
	assert.LessOrEqual(t, res.ApprovedDeltaPKW, 0.0)
}

func TestPlan_BlocksOnThermalOverTempNearCeiling(t *testing.T) {
	in := baseInput()
	in.ThermalState.TC = 54.0
	in.ThermalCfg.TMax = 55.0
	in.DeltaPRequestKW = 900
	in.GridHeadroomKW = 900
	in.ThermalCfg.MaxExportKW = 900
	in.HorizonS = 60

	res := planner.Plan(in)

	require.True(t, res.Plan.Blocked)
	assert.Contains(t, []model.RuleID{model.RuleThermalBlocked, model.RuleBatteryWearBlocked}, res.Plan.Reason)

	var sawMatch bool
	for _, ev := range res.Trace {
		if ev.Phase == model.PhaseFinal && ev.Status == model.StatusBlocked &&
			ev.Component == res.Plan.PrimaryConstraint && ev.RuleID == res.Plan.Reason {
			sawMatch = true
		}
	}
	assert.True(t, sawMatch, "expected a final-phase BLOCKED trace event matching (component, rule_id) = (%s, %s)",
		res.Plan.PrimaryConstraint, res.Plan.Reason)
}

func TestPlan_NeverMutatesInputThermalState(t *testing.T) {
	in := baseInput()
	stateCopy := in.ThermalState

	planner.Plan(in)

	assert.Equal(t, stateCopy, in.ThermalState)
}

func TestPlan_StepsAreOrderedByOffset(t *testing.T) {
	in := baseInput()
	res := planner.Plan(in)

	require.NotEmpty(t, res.Plan.Steps)
	for i := 1; i < len(res.Plan.Steps); i++ {
		assert.Greater(t, res.Plan.Steps[i].TOffsetS, res.Plan.Steps[i-1].TOffsetS)
	}
}

func TestPlan_RampRateNeverExceededBetweenConsecutiveSteps(t *testing.T) {
	in := baseInput()
	in.DeltaPRequestKW = 500
	in.GridHeadroomKW = 500
	in.ThermalCfg.MaxExportKW = 500

	res := planner.Plan(in)

	prev := 0.0
	for _, step := range res.Plan.Steps {
		delta := step.ProposedDeltaPKW - prev
		maxStep := in.RampRateKWPerS*in.DtS + 1e-6
		assert.LessOrEqual(t, delta, maxStep)
		assert.GreaterOrEqual(t, delta, -maxStep)
		prev = step.ProposedDeltaPKW
	}
}
