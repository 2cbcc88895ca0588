// Package config loads the YAML-driven configuration for the thermal
// twin, battery-aging model, planner defaults, and server settings.
//
// Grounded on the teacher's internal/config/config.go: a Config
// struct with Load/LoadUnchecked/Validate, an optional external file
// with override-merge semantics (MergeBattery, generalized here to
// MergeThermal/MergeAging), loaded via gopkg.in/yaml.v3.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gridshift-gate/internal/model"
)

// Config is the on-disk configuration shape.
type Config struct {
	Thermal ThermalConfig `yaml:"thermal"`
	Aging   AgingConfig   `yaml:"aging"`
	Planner PlannerConfig `yaml:"planner"`
	Server  ServerConfig  `yaml:"server"`
}

type ThermalConfig struct {
	KTransfer             float64 `yaml:"k_transfer"`
	TMax                  float64 `yaml:"t_max"`
	TMin                  float64 `yaml:"t_min"`
	TAmbient              float64 `yaml:"t_ambient"`
	TSetpoint             float64 `yaml:"t_setpoint"`
	TDeadband             float64 `yaml:"t_deadband"`
	CoolingRampMaxKW      float64 `yaml:"cooling_ramp_max_kw"`
	CoolingCOP            float64 `yaml:"cooling_cop"`
	CoolingMinKW          float64 `yaml:"cooling_min_kw"`
	CoolingMaxKW          float64 `yaml:"cooling_max_kw"`
	KpTempKWPerC          float64 `yaml:"kp_temp_kw_per_c"`
	CMassKJPerC           float64 `yaml:"c_mass_kj_per_c"`
	UseDynamicCoolantMass bool    `yaml:"use_dynamic_coolant_mass"`
	CoolantVolumeM3       float64 `yaml:"coolant_volume_m3"`
	GlycolFraction        float64 `yaml:"glycol_fraction"`
	MaxExportKW           float64 `yaml:"max_export_kw"`
	MaxImportKW           float64 `yaml:"max_import_kw"`
	InitialTC             float64 `yaml:"initial_t_c"`
	InitialPCoolKW        float64 `yaml:"initial_p_cool_kw"`
}

type AgingConfig struct {
	EaJPerMol                 float64 `yaml:"ea_j_per_mol"`
	RGasJPerMolK              float64 `yaml:"r_gas_j_per_mol_k"`
	KAging                    float64 `yaml:"k_aging"`
	MaxCapLossFracPerDecision float64 `yaml:"max_cap_loss_frac_per_decision"`
	MaxTempForAgingC          float64 `yaml:"max_temp_for_aging_c"`
}

type PlannerConfig struct {
	HorizonS       float64 `yaml:"horizon_s"`
	DtS            float64 `yaml:"dt_s"`
	RampRateKWPerS float64 `yaml:"ramp_rate_kw_per_s"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	DemoMode           bool   `yaml:"demo_mode"`
	LogLevel           string `yaml:"log_level"`
	GNNEnabled         bool   `yaml:"gnn_enabled"`
	CarbonEnabled      bool   `yaml:"carbon_enabled"`
	TopologyFallback   bool   `yaml:"topology_fallback"`
	ExplainerEnabled   bool   `yaml:"explainer_enabled"`
	DemoDeterministic  bool   `yaml:"demo_deterministic"`
	DemoSeed           int64  `yaml:"demo_seed"`
	DatabaseURL        string `yaml:"database_url"`
	AllowedOrigins     string `yaml:"allowed_origins"`
	LogDir             string `yaml:"log_dir"`
}

// Load reads, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads the YAML file without validating it, useful for
// debugging/printing a partial config.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Planner.HorizonS == 0 {
		c.Planner.HorizonS = 30
	}
	if c.Planner.DtS == 0 {
		c.Planner.DtS = 1
	}
	if c.Planner.RampRateKWPerS == 0 {
		c.Planner.RampRateKWPerS = 50
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Thermal.InitialTC == 0 {
		c.Thermal.InitialTC = c.Thermal.TSetpoint
	}
}

// Validate constructs the runtime model types the same way the
// teacher's Config.Validate constructs a model.Battery — surfacing
// config errors at load time, not first use.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	thermalCfg := c.Thermal.ToModel()
	if err := thermalCfg.Validate(); err != nil {
		return fmt.Errorf("thermal config invalid: %w", err)
	}
	agingCfg := c.Aging.ToModel()
	if err := agingCfg.Validate(); err != nil {
		return fmt.Errorf("aging config invalid: %w", err)
	}
	if c.Planner.HorizonS < 10 || c.Planner.HorizonS > 300 {
		return errors.New("planner.horizon_s must be within [10, 300]")
	}
	if c.Planner.DtS < 1 || c.Planner.DtS > 10 {
		return errors.New("planner.dt_s must be within [1, 10]")
	}
	if c.Planner.RampRateKWPerS < 1 || c.Planner.RampRateKWPerS > 1000 {
		return errors.New("planner.ramp_rate_kw_per_s must be within [1, 1000]")
	}
	return nil
}

// ToModel converts the YAML shape into the runtime model type used by
// internal/thermal.
func (t ThermalConfig) ToModel() model.ThermalConfig {
	return model.ThermalConfig{
		KTransfer:             t.KTransfer,
		TMax:                  t.TMax,
		TMin:                  t.TMin,
		TAmbient:              t.TAmbient,
		TSetpoint:             t.TSetpoint,
		TDeadband:             t.TDeadband,
		CoolingRampMaxKW:      t.CoolingRampMaxKW,
		CoolingCOP:            t.CoolingCOP,
		CoolingMinKW:          t.CoolingMinKW,
		CoolingMaxKW:          t.CoolingMaxKW,
		KpTempKWPerC:          t.KpTempKWPerC,
		CMassKJPerC:           t.CMassKJPerC,
		UseDynamicCoolantMass: t.UseDynamicCoolantMass,
		CoolantVolumeM3:       t.CoolantVolumeM3,
		GlycolFraction:        t.GlycolFraction,
		MaxExportKW:           t.MaxExportKW,
		MaxImportKW:           t.MaxImportKW,
	}
}

func (a AgingConfig) ToModel() model.BatteryAgingConfig {
	return model.BatteryAgingConfig{
		EaJPerMol:                 a.EaJPerMol,
		RGasJPerMolK:              a.RGasJPerMolK,
		KAging:                    a.KAging,
		MaxCapLossFracPerDecision: a.MaxCapLossFracPerDecision,
		MaxTempForAgingC:          a.MaxTempForAgingC,
	}
}

// MergeThermal overlays the non-zero KTransfer, TMax, TMin, TAmbient,
// TSetpoint, CoolingRampMaxKW, CoolingCOP, MaxExportKW and MaxImportKW
// fields from override onto base, matching the teacher's MergeBattery
// semantics. All other fields (deadband, cooling bounds, gain, thermal
// mass, coolant parameters, initial state) keep base's values.
func MergeThermal(base, override ThermalConfig) ThermalConfig {
	out := base
	if override.KTransfer != 0 {
		out.KTransfer = override.KTransfer
	}
	if override.TMax != 0 {
		out.TMax = override.TMax
	}
	if override.TMin != 0 {
		out.TMin = override.TMin
	}
	if override.TAmbient != 0 {
		out.TAmbient = override.TAmbient
	}
	if override.TSetpoint != 0 {
		out.TSetpoint = override.TSetpoint
	}
	if override.CoolingRampMaxKW != 0 {
		out.CoolingRampMaxKW = override.CoolingRampMaxKW
	}
	if override.CoolingCOP != 0 {
		out.CoolingCOP = override.CoolingCOP
	}
	if override.MaxExportKW != 0 {
		out.MaxExportKW = override.MaxExportKW
	}
	if override.MaxImportKW != 0 {
		out.MaxImportKW = override.MaxImportKW
	}
	return out
}

// MergeAging overlays non-zero fields from override onto base.
func MergeAging(base, override AgingConfig) AgingConfig {
	out := base
	if override.EaJPerMol != 0 {
		out.EaJPerMol = override.EaJPerMol
	}
	if override.RGasJPerMolK != 0 {
		out.RGasJPerMolK = override.RGasJPerMolK
	}
	if override.KAging != 0 {
		out.KAging = override.KAging
	}
	if override.MaxCapLossFracPerDecision != 0 {
		out.MaxCapLossFracPerDecision = override.MaxCapLossFracPerDecision
	}
	if override.MaxTempForAgingC != 0 {
		out.MaxTempForAgingC = override.MaxTempForAgingC
	}
	return out
}
