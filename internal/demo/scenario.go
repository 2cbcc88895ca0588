// Package demo implements the demo scenario overlays (C8): named,
// deterministic perturbations to the tick loop's inputs, gated behind
// DEMO_MODE. Overlays never bypass safety gates; they only perturb
// what the thermal twin and ramp planner see as their inputs.
//
// Grounded on the teacher's internal/strategy.Schedule
// (internal/strategy/schedule.go): a small, named, time-indexed
// strategy selected by config, generalized here from "pick a dispatch
// schedule" to "pick an input-perturbation timeline."
package demo

// Effect is the perturbation bundle a scenario contributes at a given
// sim-time offset.
type Effect struct {
	LoadDeltaKW     float64
	AmbientDeltaC   float64
	CoolingCOPScale float64
	PriceMultiplier float64
	FreqBiasHz      float64
}

// NeutralEffect is the identity perturbation: no scenario active.
func NeutralEffect() Effect {
	return Effect{CoolingCOPScale: 1.0, PriceMultiplier: 1.0}
}

// NarrativeEvent is a one-shot message a scenario emits when sim-time
// crosses a documented threshold.
type NarrativeEvent struct {
	Message string
}

// Scenario is a named, seeded, speed-scaled overlay timeline.
type Scenario struct {
	ID       string
	Duration float64 // seconds, sim-time
	Speed    float64
	Seed     int64
}

// EffectAt computes the effect bundle for sim-time t (seconds since
// the scenario started, already multiplied by Speed by the caller) and
// whether the scenario has expired.
func (s Scenario) EffectAt(t float64) (Effect, bool) {
	if t >= s.Duration {
		return NeutralEffect(), false
	}
	switch s.ID {
	case "heat_wave":
		return heatWaveEffect(t), true
	case "price_spike":
		return priceSpikeEffect(t), true
	default:
		return NeutralEffect(), true
	}
}

// Narratives returns one-shot events whose threshold lies within
// (prevT, t] — called once per tick with the previous and current
// sim-time so each narrative fires exactly once.
func (s Scenario) Narratives(prevT, t float64) []NarrativeEvent {
	var out []NarrativeEvent
	crosses := func(threshold float64) bool { return prevT < threshold && t >= threshold }

	switch s.ID {
	case "heat_wave":
		if crosses(0) {
			out = append(out, NarrativeEvent{Message: "heat wave beginning: ambient temperature rising"})
		}
		if crosses(120) {
			out = append(out, NarrativeEvent{Message: "heat wave at peak: cooling capacity derated"})
		}
		if crosses(360) {
			out = append(out, NarrativeEvent{Message: "heat wave decaying"})
		}
		if crosses(600) {
			out = append(out, NarrativeEvent{Message: "heat wave cleared"})
		}
	case "price_spike":
		if crosses(0) {
			out = append(out, NarrativeEvent{Message: "grid prices quiet"})
		}
		if crosses(60) {
			out = append(out, NarrativeEvent{Message: "grid price spike beginning"})
		}
		if crosses(180) {
			out = append(out, NarrativeEvent{Message: "grid price spike decaying"})
		}
		if crosses(240) {
			out = append(out, NarrativeEvent{Message: "grid price spike cleared"})
		}
	}
	return out
}

func heatWaveEffect(t float64) Effect {
	switch {
	case t < 120: // ramp-in
		frac := t / 120
		return Effect{
			LoadDeltaKW:     800 * frac,
			AmbientDeltaC:   10 * frac,
			CoolingCOPScale: 1 - 0.3*frac,
			PriceMultiplier: 1,
			FreqBiasHz:      -0.03 * frac,
		}
	case t < 360: // peak
		return Effect{LoadDeltaKW: 800, AmbientDeltaC: 10, CoolingCOPScale: 0.7, PriceMultiplier: 1, FreqBiasHz: -0.03}
	default: // decay, 360..600
		frac := 1 - (t-360)/(600-360)
		return Effect{
			LoadDeltaKW:     800 * frac,
			AmbientDeltaC:   10 * frac,
			CoolingCOPScale: 1 - 0.3*frac,
			PriceMultiplier: 1,
			FreqBiasHz:      -0.03 * frac,
		}
	}
}

// priceSpikeEffect is deliberately a step function, not an
// interpolated ramp: the timeline names three flat phases (quiet,
// spike, decay), each with its own multiplier/load/frequency bias.
func priceSpikeEffect(t float64) Effect {
	switch {
	case t < 60: // quiet
		return Effect{PriceMultiplier: 1, CoolingCOPScale: 1}
	case t < 180: // spike
		return Effect{LoadDeltaKW: 500, PriceMultiplier: 6, CoolingCOPScale: 1, FreqBiasHz: -0.015}
	default: // decay, 180..240
		return Effect{LoadDeltaKW: 200, PriceMultiplier: 3, CoolingCOPScale: 1}
	}
}
