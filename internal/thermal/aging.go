package thermal

import (
	"math"

	"gridshift-gate/internal/model"
)

// AgingIncrement computes the Arrhenius-style capacity-loss increment
// for one step (C2): a pure function of (config, temperature,
// throughput, dt). It is used as a cumulative per-decision budget, not
// as persistent state.
func AgingIncrement(cfg model.BatteryAgingConfig, tempC float64, throughputKW float64, dtS float64) float64 {
	clampedTempC := math.Min(tempC, cfg.MaxTempForAgingC)
	tempK := clampedTempC + 273.15
	factor := math.Exp(-cfg.EaJPerMol / (cfg.RGasJPerMolK * tempK))
	return cfg.KAging * factor * math.Max(0, throughputKW) * dtS
}
