package demo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/demo"
)

func TestScenario_HeatWaveRampsInLinearly(t *testing.T) {
	s := demo.Scenario{ID: "heat_wave", Duration: 600, Speed: 1}
	effect, active := s.EffectAt(60)
	require.True(t, active)
	assert.InDelta(t, 400, effect.LoadDeltaKW, 1e-9)
	assert.InDelta(t, 5, effect.AmbientDeltaC, 1e-9)
}

func TestScenario_HeatWavePeakIsFlat(t *testing.T) {
	s := demo.Scenario{ID: "heat_wave", Duration: 600, Speed: 1}
	effect, active := s.EffectAt(200)
	require.True(t, active)
	assert.Equal(t, 800.0, effect.LoadDeltaKW)
	assert.Equal(t, 10.0, effect.AmbientDeltaC)
	assert.Equal(t, 0.7, effect.CoolingCOPScale)
}

func TestScenario_ExpiresAtDuration(t *testing.T) {
	s := demo.Scenario{ID: "heat_wave", Duration: 600, Speed: 1}
	effect, active := s.EffectAt(600)
	assert.False(t, active)
	assert.Equal(t, demo.NeutralEffect(), effect)
}

func TestScenario_PriceSpikeIsStepped(t *testing.T) {
	s := demo.Scenario{ID: "price_spike", Duration: 240, Speed: 1}

	quiet, _ := s.EffectAt(10)
	spike, _ := s.EffectAt(100)
	decay, _ := s.EffectAt(200)

	assert.Equal(t, 1.0, quiet.PriceMultiplier)
	assert.Equal(t, 6.0, spike.PriceMultiplier)
	assert.Equal(t, 3.0, decay.PriceMultiplier)
}

func TestScenario_NarrativesFireOncePerThreshold(t *testing.T) {
	s := demo.Scenario{ID: "heat_wave", Duration: 600, Speed: 1}
	first := s.Narratives(-1, 0)
	second := s.Narratives(0, 1)

	assert.NotEmpty(t, first)
	assert.Empty(t, second)
}

func TestManager_StartUnknownScenarioErrors(t *testing.T) {
	m := demo.NewManager()
	err := m.Start("not_a_scenario", 1, 1, time.Now())
	assert.Error(t, err)
}

func TestManager_TickAdvancesAndExpires(t *testing.T) {
	m := demo.NewManager()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.Start("price_spike", 1, 1, now))

	mid := m.Tick(now.Add(100 * time.Second))
	assert.Equal(t, 6.0, mid.PriceMultiplier)

	end := m.Tick(now.Add(300 * time.Second))
	assert.Equal(t, demo.NeutralEffect(), end)
	assert.Equal(t, "", m.Active())
}

func TestManager_ResetClearsLog(t *testing.T) {
	m := demo.NewManager()
	now := time.Now()
	require.NoError(t, m.Start("heat_wave", 1, 1, now))
	m.Tick(now)
	m.Reset()
	assert.Equal(t, "", m.Active())
	assert.Empty(t, m.LogTail(10))
}
