package orchestrator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/orchestrator"
	"gridshift-gate/internal/trace"
)

func baseThermalCfg() model.ThermalConfig {
	return model.ThermalConfig{
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
	}
}

func baseAgingCfg() model.BatteryAgingConfig {
	return model.BatteryAgingConfig{
		EaJPerMol:                 20000,
		RGasJPerMolK:              8.314,
		KAging:                    1e-8,
		MaxCapLossFracPerDecision: 0.01,
		MaxTempForAgingC:          60,
	}
}

type stubPersistence struct {
	appended []model.DecisionRecord
	failNext bool
}

func (s *stubPersistence) Append(d model.DecisionRecord, events []model.TraceEvent) error {
	if s.failNext {
		return errors.New("boom")
	}
	s.appended = append(s.appended, d)
	return nil
}
func (s *stubPersistence) Recent(limit int) ([]model.DecisionRecord, error) { return s.appended, nil }
func (s *stubPersistence) TraceFor(decisionID string) ([]model.TraceEvent, error) { return nil, nil }

func newOrch() (*orchestrator.Orchestrator, *stubPersistence) {
	persistence := &stubPersistence{}
	o := &orchestrator.Orchestrator{
		ThermalCfg:  baseThermalCfg(),
		AgingCfg:    baseAgingCfg(),
		State:       model.ThermalState{TC: 40.0, PCoolKW: 300},
		Persistence: persistence,
		Ring:        trace.NewRing(),
	}
	return o, persistence
}

func TestDecide_RejectsNonFiniteInput(t *testing.T) {
	o, _ := newOrch()
	limits := orchestrator.DefaultLimits(1000, 1000)

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW: math.NaN(),
		PSiteKW:         3000,
		HorizonS:        30,
		DtS:             1,
		RampRateKWPerS:  20,
	}, limits)

	require.Equal(t, model.OutcomeInputError, outcome.Kind)
	assert.NotEmpty(t, outcome.InputErrorMessage)
}

func TestDecide_ApprovesAndCommitsStateOnSuccess(t *testing.T) {
	o, persistence := newOrch()
	limits := orchestrator.DefaultLimits(1000, 1000)
	override := 500.0

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW:      200,
		PSiteKW:              3000,
		GridHeadroomOverride: &override,
		HorizonS:             20,
		DtS:                  1,
		RampRateKWPerS:       20,
	}, limits)

	require.Equal(t, model.OutcomeApproved, outcome.Kind)
	assert.False(t, outcome.Plan.Blocked)
	assert.Len(t, persistence.appended, 1)
	assert.Equal(t, model.HeadroomManual, outcome.Record.HeadroomSource)
	assert.NotEqual(t, 40.0, o.State.TC, "state should commit to step 0 on approval")
}

func TestDecide_ZeroHeadroomBlocksAndDoesNotMutateState(t *testing.T) {
	o, _ := newOrch()
	limits := orchestrator.DefaultLimits(1000, 1000)
	override := 0.0
	initialTC := o.State.TC

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW:      200,
		PSiteKW:              3000,
		GridHeadroomOverride: &override,
		HorizonS:             20,
		DtS:                  1,
		RampRateKWPerS:       20,
	}, limits)

	require.Equal(t, model.OutcomeBlocked, outcome.Kind)
	assert.Equal(t, model.RuleGridHeadroomZero, outcome.Record.ReasonCode)
	assert.Equal(t, 0.4, outcome.Record.Confidence)
	assert.Equal(t, initialTC, o.State.TC)
}

func TestDecide_PersistenceFailureNeverFailsTheDecision(t *testing.T) {
	o, persistence := newOrch()
	persistence.failNext = true
	limits := orchestrator.DefaultLimits(1000, 1000)
	override := 500.0

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW:      200,
		PSiteKW:              3000,
		GridHeadroomOverride: &override,
		HorizonS:             20,
		DtS:                  1,
		RampRateKWPerS:       20,
	}, limits)

	assert.NotEqual(t, model.OutcomeInputError, outcome.Kind)
}

func TestDecide_ClampsRequestBeyondExportLimit(t *testing.T) {
	o, _ := newOrch()
	limits := orchestrator.DefaultLimits(1000, 1000)
	override := 5000.0

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW:      5000,
		PSiteKW:              3000,
		GridHeadroomOverride: &override,
		HorizonS:             20,
		DtS:                  1,
		RampRateKWPerS:       20,
	}, limits)

	assert.LessOrEqual(t, math.Abs(outcome.Record.RequestedDeltaPKW), 1000.0+1e-6)
}

type stubPredictorLowerThanOverride struct{ value float64 }

func (s stubPredictorLowerThanOverride) Ready() bool { return true }
func (s stubPredictorLowerThanOverride) Predict(state contracts.GraphState) (float64, error) {
	return s.value, nil
}

func TestDecide_PredictorClampsOverrideWhenSmaller(t *testing.T) {
	o, _ := newOrch()
	o.Predictor = stubPredictorLowerThanOverride{value: 100}
	limits := orchestrator.DefaultLimits(1000, 1000)
	override := 500.0

	outcome := o.Decide(orchestrator.Request{
		DeltaPRequestKW:      200,
		PSiteKW:              3000,
		GridHeadroomOverride: &override,
		HorizonS:             20,
		DtS:                  1,
		RampRateKWPerS:       20,
	}, limits)

	assert.Equal(t, model.HeadroomGNN, outcome.Record.HeadroomSource)
	assert.Equal(t, 100.0, outcome.Record.GridHeadroomKW)
}
