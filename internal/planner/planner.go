// Package planner implements the ramp planner / safety gate (C3): a
// short-horizon look-ahead that searches for the largest ΔP magnitude
// satisfying grid-headroom, thermal, ramp-rate, and battery-aging
// constraints, emitting a structured trace of every rule evaluation.
//
// The planner never mutates the live thermal state; every simulation
// runs on a local copy. The shape of this search (clip → simulate
// candidates → binary search → classify failure → finalize) is
// grounded on the teacher's backtest.Engine.Run loop (accumulate a
// ledger/trace while stepping a local copy of the physical model) and
// its strategy/oracle.go DP search, generalized from "pick the best
// dispatch plan" to "pick the largest safe magnitude."
package planner

import (
	"math"
	"time"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/thermal"
)

// Input bundles everything one Plan call needs.
type Input struct {
	PSiteKW         float64
	GridHeadroomKW  float64
	ThermalCfg      model.ThermalConfig
	ThermalState    model.ThermalState
	AgingCfg        model.BatteryAgingConfig
	DeltaPRequestKW float64
	HorizonS        float64
	DtS             float64
	RampRateKWPerS  float64
	DecisionID      string
	Now             time.Time

	// EmitCandidateTrace controls whether discarded binary-search
	// probes are appended to the returned trace with phase="candidate".
	// Spec.md §4.3 explicitly allows omitting these; default false to
	// keep the ring/API payload small.
	EmitCandidateTrace bool
}

// Result is the planner's output: approved magnitude (sign-restored),
// the structured plan, and the full ordered trace (final-phase events,
// plus candidate-phase events if requested).
type Result struct {
	ApprovedDeltaPKW float64
	Plan             model.RampPlan
	Trace            []model.TraceEvent
}

const marginFloorC = 0.5

// Plan runs the full C3 pipeline for one decision.
func Plan(in Input) Result {
	var trace []model.TraceEvent
	emit := func(phase model.Phase, component model.Component, rule model.RuleID, status model.Status, sev model.Severity, msg string, opts ...model.TraceEventOption) {
		trace = append(trace, model.NewTraceEvent(in.Now, in.DecisionID, phase, component, rule, status, sev, msg, opts...))
	}

	sign := 1.0
	if in.DeltaPRequestKW < 0 {
		sign = -1.0
	}
	signLimit := in.ThermalCfg.MaxExportKW
	if sign < 0 {
		signLimit = in.ThermalCfg.MaxImportKW
	}

	req := math.Max(0, math.Abs(in.DeltaPRequestKW))
	req = math.Min(req, signLimit)
	headroom := math.Max(0, in.GridHeadroomKW)
	headroomCap := math.Min(req, headroom)

	emit(model.PhaseFinal, model.ComponentGrid, model.RuleGridHeadroomClamp, model.StatusInfo, model.SeverityLow,
		"clamped requested magnitude to available grid headroom",
		model.WithValue(headroomCap), model.WithThreshold(headroom), model.WithUnits("kW"),
		model.WithProposedDeltaP(in.DeltaPRequestKW))

	if headroomCap < req {
		emit(model.PhaseFinal, model.ComponentGrid, model.RuleGridHeadroomReduced, model.StatusBlocked, model.SeverityMedium,
			"available headroom is smaller than the requested magnitude",
			model.WithValue(headroomCap), model.WithThreshold(req), model.WithUnits("kW"))
	}

	if headroomCap <= 1e-6 {
		emit(model.PhaseFinal, model.ComponentGrid, model.RuleGridHeadroomZero, model.StatusBlocked, model.SeverityHigh,
			"no grid headroom available for this request",
			model.WithValue(headroom), model.WithThreshold(0), model.WithUnits("kW"))

		plan := model.RampPlan{
			RequestedDeltaPKW: in.DeltaPRequestKW,
			ApprovedDeltaPKW:  0,
			Blocked:           true,
			Reason:            model.RuleGridHeadroomZero,
			PrimaryConstraint: model.ComponentGrid,
		}
		emitFinalSelection(&trace, in, true)
		return Result{ApprovedDeltaPKW: 0, Plan: plan, Trace: trace}
	}

	sim := func(desired float64, phase model.Phase) simOutcome {
		return simulate(in, desired, sign, phase)
	}

	// Binary search for the largest safe magnitude in [0, headroomCap].
	low, high := 0.0, headroomCap
	best := 0.0
	bestOutcome := sim(0, model.PhaseFinal) // 0 is always "safe" (idle)
	for i := 0; i < 20; i++ {
		mid := (low + high) / 2
		outcome := sim(mid, model.PhaseCandidate)
		if in.EmitCandidateTrace {
			trace = append(trace, outcome.trace...)
		}
		if outcome.ok {
			best = mid
			bestOutcome = outcome
			low = mid
		} else {
			high = mid
		}
	}

	blocked := best <= 1e-6
	var reason model.RuleID
	var primary model.Component
	var constraintValue, constraintThreshold *float64

	if blocked {
		switch {
		case headroomCap <= 1e-6:
			reason = model.RuleGridHeadroomZero
			primary = model.ComponentGrid
		default:
			probe := sim(headroomCap, model.PhaseFinal)
			if probe.agingExceeded {
				reason = model.RuleBatteryWearBlocked
				primary = model.ComponentPolicy
			} else {
				reason = model.RuleThermalBlocked
				primary = model.ComponentThermal
				v := probe.projectedTC
				th := in.ThermalCfg.TMax
				constraintValue = &v
				constraintThreshold = &th
				emit(model.PhaseFinal, model.ComponentThermal, model.RuleThermalBlocked, model.StatusBlocked, model.SeverityHigh,
					"no safe magnitude found within the horizon; blocked on thermal constraints",
					model.WithValue(v), model.WithThreshold(th), model.WithUnits("°C"), model.WithRackTemp(v))
			}
			bestOutcome = probe
		}
	}

	// Re-run the winning magnitude once more with final-phase tracing
	// so the returned trace always reflects the committed plan,
	// regardless of whether EmitCandidateTrace discarded earlier probes.
	finalOutcome := sim(best, model.PhaseFinal)
	trace = append(trace, finalOutcome.trace...)
	if blocked {
		trace = append(trace, bestOutcome.trace...)
	}

	approved := sign * best
	status := model.StatusAllowed
	if blocked {
		status = model.StatusBlocked
	}
	emit(model.PhaseFinal, primary, model.RuleApprovedDeltaSelected, status, model.SeverityLow,
		"selected the largest magnitude that satisfied every constraint across the horizon",
		model.WithValue(approved), model.WithProposedDeltaP(in.DeltaPRequestKW), model.WithApprovedDeltaP(approved))

	steps := finalOutcome.steps
	if blocked {
		steps = bestOutcome.steps
	}

	plan := model.RampPlan{
		RequestedDeltaPKW:   in.DeltaPRequestKW,
		ApprovedDeltaPKW:    approved,
		Blocked:             blocked,
		Reason:              reason,
		PrimaryConstraint:   primary,
		ConstraintValue:     constraintValue,
		ConstraintThreshold: constraintThreshold,
		Steps:               steps,
	}
	return Result{ApprovedDeltaPKW: approved, Plan: plan, Trace: trace}
}

func emitFinalSelection(trace *[]model.TraceEvent, in Input, blocked bool) {
	status := model.StatusAllowed
	if blocked {
		status = model.StatusBlocked
	}
	*trace = append(*trace, model.NewTraceEvent(in.Now, in.DecisionID, model.PhaseFinal, model.ComponentGrid,
		model.RuleApprovedDeltaSelected, status, model.SeverityLow,
		"selected the largest magnitude that satisfied every constraint across the horizon",
		model.WithValue(0), model.WithProposedDeltaP(in.DeltaPRequestKW), model.WithApprovedDeltaP(0)))
}

type simOutcome struct {
	ok            bool
	agingExceeded bool
	projectedTC   float64
	steps         []model.RampPlanStep
	trace         []model.TraceEvent
	capLossAccum  float64
}

// simulate runs the forward look-ahead for one candidate magnitude
// (spec.md §4.3 step 2). desired is a non-negative magnitude; sign is
// reattached when computing the load applied to the thermal twin.
func simulate(in Input, desired float64, sign float64, phase model.Phase) simOutcome {
	state := in.ThermalState // local copy; never mutates the live twin
	currentDelta := 0.0
	capLossAccum := 0.0

	n := int(math.Ceil(in.HorizonS / in.DtS))
	if n < 1 {
		n = 1
	}

	steps := make([]model.RampPlanStep, 0, n)
	var trace []model.TraceEvent
	emit := func(component model.Component, rule model.RuleID, status model.Status, sev model.Severity, msg string, opts ...model.TraceEventOption) {
		trace = append(trace, model.NewTraceEvent(in.Now, in.DecisionID, phase, component, rule, status, sev, msg, opts...))
	}

	for i := 0; i < n; i++ {
		tOffset := float64(i+1) * in.DtS

		maxStep := in.RampRateKWPerS * in.DtS
		deltaStep := clamp(desired-currentDelta, -maxStep, maxStep)
		nextDelta := currentDelta + deltaStep
		rateLimited := math.Abs(deltaStep) < math.Abs(desired-currentDelta)-1e-9
		if rateLimited {
			emit(model.ComponentRamp, model.RuleRampRateLimit, model.StatusInfo, model.SeverityLow,
				"ramp rate limited the step toward the desired magnitude",
				model.WithValue(deltaStep), model.WithThreshold(maxStep), model.WithUnits("kW"))
		}

		signedDelta := sign * nextDelta
		pred := thermal.Predict(in.ThermalCfg, state, in.PSiteKW+signedDelta, in.DtS)

		throughput := math.Abs(nextDelta) + math.Abs(pred.NextPCoolKW-state.PCoolKW)
		capLossStep := thermal2AgingIncrement(in.AgingCfg, pred.NextTC, throughput, in.DtS)
		capLossAccum += capLossStep
		emit(model.ComponentPolicy, model.RuleBatteryAgingStep, model.StatusInfo, model.SeverityLow,
			"accumulated battery-aging capacity loss for this step",
			model.WithValue(capLossAccum), model.WithThreshold(in.AgingCfg.MaxCapLossFracPerDecision))

		margin := in.ThermalCfg.TMax - pred.NextTC

		step := model.RampPlanStep{
			TOffsetS:          tOffset,
			ProposedDeltaPKW:  signedDelta,
			RackTempC:         pred.NextTC,
			CoolingKW:         pred.NextPCoolKW,
			ThermalOK:         pred.ThermalOK,
			ThermalHeadroomKW: pred.HeadroomKW,
			CapLossFracStep:   capLossStep,
		}

		if margin < marginFloorC {
			step.Reason = string(model.RuleThermalMarginTooThin)
			step.ThermalOK = false
			steps = append(steps, step)
			emit(model.ComponentThermal, model.RuleThermalMarginTooThin, model.StatusBlocked, model.SeverityMedium,
				"projected thermal margin fell below the safety floor",
				model.WithValue(margin), model.WithThreshold(marginFloorC), model.WithUnits("°C"),
				model.WithRackTemp(pred.NextTC))
			return simOutcome{ok: false, projectedTC: pred.NextTC, steps: steps, trace: trace, capLossAccum: capLossAccum}
		}

		if !pred.ThermalOK {
			step.Reason = string(model.RuleThermalOverTemp)
			steps = append(steps, step)
			emit(model.ComponentThermal, model.RuleThermalOverTemp, model.StatusBlocked, model.SeverityHigh,
				"projected rack temperature breaches the safety ceiling",
				model.WithValue(pred.NextTC), model.WithThreshold(in.ThermalCfg.TMax), model.WithUnits("°C"),
				model.WithRackTemp(pred.NextTC))
			return simOutcome{ok: false, projectedTC: pred.NextTC, steps: steps, trace: trace, capLossAccum: capLossAccum}
		}

		if capLossAccum > in.AgingCfg.MaxCapLossFracPerDecision {
			step.Reason = string(model.RuleBatteryWearBlocked)
			steps = append(steps, step)
			emit(model.ComponentPolicy, model.RuleBatteryWearBlocked, model.StatusBlocked, model.SeverityMedium,
				"cumulative battery-aging budget exceeded for this decision",
				model.WithValue(capLossAccum), model.WithThreshold(in.AgingCfg.MaxCapLossFracPerDecision))
			return simOutcome{ok: false, agingExceeded: true, projectedTC: pred.NextTC, steps: steps, trace: trace, capLossAccum: capLossAccum}
		}

		step.Reason = string(model.RuleThermalPredictStep)
		steps = append(steps, step)
		emit(model.ComponentThermal, model.RuleThermalPredictStep, model.StatusAllowed, model.SeverityLow,
			"thermal prediction within bounds", model.WithRackTemp(pred.NextTC))

		state.TC = pred.NextTC
		state.PCoolKW = pred.NextPCoolKW
		currentDelta = nextDelta
	}

	lastTC := state.TC
	return simOutcome{ok: true, projectedTC: lastTC, steps: steps, trace: trace, capLossAccum: capLossAccum}
}

// thermal2AgingIncrement exists only to avoid importing thermal twice
// under two names in this file; it forwards to thermal.AgingIncrement.
func thermal2AgingIncrement(cfg model.BatteryAgingConfig, tempC, throughputKW, dtS float64) float64 {
	return thermal.AgingIncrement(cfg, tempC, throughputKW, dtS)
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
