// Package thermal implements the rack thermal twin (C1) and the
// battery-aging capacity-loss increment (C2). Both are pure functions
// of their inputs: no hidden randomness, no time-of-day dependence,
// no mutation except through the explicit Step call.
package thermal

import (
	"math"

	"gridshift-gate/internal/model"
)

// Predict computes the next-tick thermal state without committing it,
// per spec.md §4.1. It never mutates state.
func Predict(cfg model.ThermalConfig, state model.ThermalState, pITKW float64, dtS float64) model.Prediction {
	// 1. Passive heat rejection to ambient.
	qPassive := cfg.KTransfer * (state.TC - cfg.TAmbient)

	// 2. Base heat to remove.
	q := math.Max(0, pITKW-qPassive)

	// 3. Setpoint regulator.
	err := state.TC - cfg.TSetpoint
	var targetHeat float64
	switch {
	case err <= -cfg.TDeadband:
		targetHeat = 0.10 * q
	case math.Abs(err) <= cfg.TDeadband:
		targetHeat = 0.30 * q
	default:
		targetHeat = q + cfg.KpTempKWPerC*err
	}

	// 4. Electrical target, clamped to actuator bounds.
	targetCool := targetHeat / cfg.CoolingCOP
	targetCool = clamp(targetCool, cfg.CoolingMinKW, cfg.CoolingMaxKW)

	// 5. Ramp-limit actuator.
	maxStep := cfg.CoolingRampMaxKW * dtS
	deltaCool := clamp(targetCool-state.PCoolKW, -maxStep, maxStep)
	nextPCool := clamp(state.PCoolKW+deltaCool, cfg.CoolingMinKW, cfg.CoolingMaxKW)

	// 6. Active heat removed.
	qActive := nextPCool * cfg.CoolingCOP

	// 7. Integrate.
	cMass := effectiveCMass(cfg, state.TC)
	deltaT := ((pITKW - qPassive - qActive) * dtS) / cMass
	nextTC := math.Max(cfg.TMin, state.TC+deltaT)

	return model.Prediction{
		NextTC:        nextTC,
		NextPCoolKW:   nextPCool,
		ThermalOK:     nextTC < cfg.TMax,
		HeadroomKW:    thermalHeadroomKW(cfg, nextTC, qActive),
		QPassiveKW:    qPassive,
		QActiveKW:     qActive,
		CoolingTarget: targetCool,
		COPUsed:       cfg.CoolingCOP,
		CMassUsed:     cMass,
	}
}

// Step applies Predict and commits the result to state.
func Step(cfg model.ThermalConfig, state *model.ThermalState, pITKW float64, dtS float64) model.Prediction {
	pred := Predict(cfg, *state, pITKW, dtS)
	state.TC = pred.NextTC
	state.PCoolKW = pred.NextPCoolKW
	return pred
}

// thermalHeadroomKW is a one-step heuristic: how much additional IT
// load (kW) the rack could absorb before the NEXT integration would
// breach TMax, holding cooling at its current electrical draw. This is
// advisory only; the planner's real margin check re-simulates forward.
func thermalHeadroomKW(cfg model.ThermalConfig, nextTC float64, qActiveKW float64) float64 {
	margin := cfg.TMax - nextTC
	if margin <= 0 {
		return 0
	}
	// Invert the integration step approximately: extra kW of IT load
	// sustainable for 1s without breaching TMax, using the *current*
	// cooling level as a static removal rate (conservative since a
	// real additional load would also trigger more cooling response).
	cMass := cfg.CMassKJPerC
	if cMass <= 0 {
		cMass = 1e-3
	}
	return margin * cMass
}

func effectiveCMass(cfg model.ThermalConfig, tC float64) float64 {
	if !cfg.UseDynamicCoolantMass {
		return math.Max(cfg.CMassKJPerC, 1e-3)
	}
	// Simple density/specific-heat polynomial in coolant temperature:
	// water-glycol mixtures lose a little density and specific heat as
	// temperature and glycol fraction rise. This is a coarse fit, not a
	// property-table lookup, adequate for a short-horizon twin.
	density := 1000.0 - 1.2*tC - 150.0*cfg.GlycolFraction  // kg/m^3
	specificHeat := 4.18 - 0.30*cfg.GlycolFraction          // kJ/(kg*°C)
	cMass := density * cfg.CoolantVolumeM3 * specificHeat / 1000.0
	return math.Max(cMass, 1e-3)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
