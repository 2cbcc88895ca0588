package thermal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/thermal"
)

func baseConfig() model.ThermalConfig {
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
		MaxExportKW:      5000,
		MaxImportKW:      5000,
	}
}

func TestPredict_IsPureFunction(t *testing.T) {
	cfg := baseConfig()
	state := model.ThermalState{TC: 45.0, PCoolKW: 400}

	p1 := thermal.Predict(cfg, state, 1000, 1)
	p2 := thermal.Predict(cfg, state, 1000, 1)

	assert.Equal(t, p1, p2, "Predict must be deterministic for identical inputs")
	// Predict must not mutate the state passed by value.
	assert.Equal(t, 45.0, state.TC)
	assert.Equal(t, 400.0, state.PCoolKW)
}

func TestPredict_CoolingNeverExceedsRampLimit(t *testing.T) {
	cfg := baseConfig()
	state := model.ThermalState{TC: 52.0, PCoolKW: 0}

	pred := thermal.Predict(cfg, state, 10000, 1)
	delta := pred.NextPCoolKW - state.PCoolKW
	assert.LessOrEqual(t, delta, cfg.CoolingRampMaxKW+1e-6)
	assert.GreaterOrEqual(t, delta, -cfg.CoolingRampMaxKW-1e-6)
}

func TestPredict_TemperatureFloor(t *testing.T) {
	cfg := baseConfig()
	cfg.TMin = 20.0
	state := model.ThermalState{TC: 20.5, PCoolKW: 1900}

	// Massive overcooling relative to a tiny IT load should still
	// respect the floor after integration.
	pred := thermal.Predict(cfg, state, 0, 5)
	assert.GreaterOrEqual(t, pred.NextTC, cfg.TMin)
}

func TestPredict_ActuatorBoundsRespected(t *testing.T) {
	cfg := baseConfig()
	cfg.CoolingMaxKW = 100
	state := model.ThermalState{TC: 54.0, PCoolKW: 100}

	pred := thermal.Predict(cfg, state, 50000, 1)
	assert.LessOrEqual(t, pred.NextPCoolKW, cfg.CoolingMaxKW+1e-9)
	assert.GreaterOrEqual(t, pred.NextPCoolKW, cfg.CoolingMinKW-1e-9)
}

func TestStep_CommitsPredictedValues(t *testing.T) {
	cfg := baseConfig()
	state := model.ThermalState{TC: 45.0, PCoolKW: 400}

	pred := thermal.Step(cfg, &state, 1000, 1)
	require.Equal(t, pred.NextTC, state.TC)
	require.Equal(t, pred.NextPCoolKW, state.PCoolKW)
}

func TestPredict_DynamicCoolantMass(t *testing.T) {
	cfg := baseConfig()
	cfg.UseDynamicCoolantMass = true
	cfg.CoolantVolumeM3 = 2.0
	cfg.GlycolFraction = 0.3

	state := model.ThermalState{TC: 45.0, PCoolKW: 400}
	pred := thermal.Predict(cfg, state, 1000, 1)

	assert.Greater(t, pred.CMassUsed, 1e-3)
}

func TestAgingIncrement_NonNegativeAndMonotoneInTemp(t *testing.T) {
	agingCfg := model.BatteryAgingConfig{
		EaJPerMol:                 20000,
		RGasJPerMolK:              8.314,
		KAging:                    1e-6,
		MaxCapLossFracPerDecision: 0.01,
		MaxTempForAgingC:          60,
	}

	lowTemp := thermal.AgingIncrement(agingCfg, 30, 500, 1)
	highTemp := thermal.AgingIncrement(agingCfg, 55, 500, 1)

	assert.GreaterOrEqual(t, lowTemp, 0.0)
	assert.Greater(t, highTemp, lowTemp, "aging should accelerate with temperature")
}

func TestAgingIncrement_SaturatesAboveMaxTemp(t *testing.T) {
	agingCfg := model.BatteryAgingConfig{
		EaJPerMol:                 20000,
		RGasJPerMolK:              8.314,
		KAging:                    1e-6,
		MaxCapLossFracPerDecision: 0.01,
		MaxTempForAgingC:          60,
	}

	atCap := thermal.AgingIncrement(agingCfg, 60, 500, 1)
	beyondCap := thermal.AgingIncrement(agingCfg, 90, 500, 1)
	assert.Equal(t, atCap, beyondCap, "aging factor should saturate at MaxTempForAgingC")
}

func TestAgingIncrement_NegativeThroughputClampedToZero(t *testing.T) {
	agingCfg := model.BatteryAgingConfig{
		EaJPerMol:                 20000,
		RGasJPerMolK:              8.314,
		KAging:                    1e-6,
		MaxCapLossFracPerDecision: 0.01,
		MaxTempForAgingC:          60,
	}
	got := thermal.AgingIncrement(agingCfg, 40, -100, 1)
	assert.Equal(t, 0.0, got)
}
