package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/config"
)

const validYAML = `
thermal:
  k_transfer: 5.0
  t_max: 55.0
  t_min: 10.0
  t_ambient: 25.0
  t_setpoint: 45.0
  t_deadband: 1.0
  cooling_ramp_max_kw: 50.0
  cooling_cop: 3.0
  cooling_max_kw: 2000
  kp_temp_kw_per_c: 200.0
  c_mass_kj_per_c: 5000.0
  max_export_kw: 1000
  max_import_kw: 1000
aging:
  ea_j_per_mol: 20000
  r_gas_j_per_mol_k: 8.314
  k_aging: 0.00000001
  max_cap_loss_frac_per_decision: 0.01
  max_temp_for_aging_c: 60
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad_ValidConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30.0, c.Planner.HorizonS)
	assert.Equal(t, 1.0, c.Planner.DtS)
	assert.Equal(t, 50.0, c.Planner.RampRateKWPerS)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "info", c.Server.LogLevel)
}

func TestLoad_InvalidThermalConfigFailsValidation(t *testing.T) {
	path := writeTempConfig(t, `
thermal:
  t_max: 10
  t_min: 50
aging:
  ea_j_per_mol: 20000
  r_gas_j_per_mol_k: 8.314
  k_aging: 0.00000001
  max_cap_loss_frac_per_decision: 0.01
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestApplyEnvOverrides_LogLevelWinsOverFile(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	c, err := config.Load(path)
	require.NoError(t, err)

	t.Setenv("LOG_LEVEL", "debug")
	config.ApplyEnvOverrides(c)
	assert.Equal(t, "debug", c.Server.LogLevel)
}

func TestMergeThermal_OverlaysNonZeroFields(t *testing.T) {
	base := config.ThermalConfig{TMax: 55, TMin: 10, MaxExportKW: 1000}
	override := config.ThermalConfig{TMax: 60}

	merged := config.MergeThermal(base, override)
	assert.Equal(t, 60.0, merged.TMax)
	assert.Equal(t, 10.0, merged.TMin)
	assert.Equal(t, 1000.0, merged.MaxExportKW)
}
