// Package orchestrator implements the decision orchestrator (C4): it
// validates a request, resolves effective grid headroom, invokes the
// ramp planner on a snapshot of the live thermal state, commits step 0
// on approval, persists the decision, and publishes the trace.
//
// Grounded on the teacher's backtest.Engine.Run (internal/backtest/
// engine.go): validate inputs up front, run the core algorithm,
// accumulate a ledger/trace row, return a result — generalized here
// from "replay a whole interval series" to "decide once, mutating live
// state only on commit."
package orchestrator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/planner"
	"gridshift-gate/internal/trace"
)

// Request is the caller-supplied input to a decision, pre-clamp.
type Request struct {
	DeltaPRequestKW   float64
	PSiteKW           float64
	GridHeadroomOverride *float64
	HorizonS          float64
	DtS               float64
	RampRateKWPerS    float64
}

// Limits bounds the validate/clamp step (spec §4.4 step 1).
type Limits struct {
	MaxExportKW       float64
	MaxImportKW       float64
	PSiteMinKW        float64
	PSiteMaxKW        float64
	HorizonMinS       float64
	HorizonMaxS       float64
	DtMinS            float64
	DtMaxS            float64
	RampRateMinKWPerS float64
	RampRateMaxKWPerS float64
}

// DefaultLimits mirrors the literal bounds in spec.md §4.4 step 1.
func DefaultLimits(maxExportKW, maxImportKW float64) Limits {
	return Limits{
		MaxExportKW:       maxExportKW,
		MaxImportKW:       maxImportKW,
		PSiteMinKW:        0,
		PSiteMaxKW:        100000,
		HorizonMinS:       10,
		HorizonMaxS:       300,
		DtMinS:            1,
		DtMaxS:            10,
		RampRateMinKWPerS: 1,
		RampRateMaxKWPerS: 1000,
	}
}

// Orchestrator holds the live thermal/aging state and its
// collaborators. Decide holds a mutex for its whole run, so callers on
// different goroutines (such as concurrent HTTP handlers) are
// serialized and never interleave a step-0 commit.
type Orchestrator struct {
	ThermalCfg model.ThermalConfig
	AgingCfg   model.BatteryAgingConfig
	State      model.ThermalState

	Predictor   contracts.HeadroomPredictor
	Persistence contracts.PersistenceSink
	Ring        *trace.Ring

	Log *logrus.Logger

	mu sync.Mutex
}

// Decide runs the full C4 pipeline for one request.
func (o *Orchestrator) Decide(req Request, limits Limits) model.DecideOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validateFinite(req); err != nil {
		return model.DecideOutcome{Kind: model.OutcomeInputError, InputErrorMessage: err.Error()}
	}

	req = clampRequest(req, limits)

	now := time.Now().UTC()
	decisionID := uuid.NewString()

	var decisionTrace []model.TraceEvent
	emit := func(component model.Component, rule model.RuleID, status model.Status, sev model.Severity, msg string, opts ...model.TraceEventOption) {
		decisionTrace = append(decisionTrace, model.NewTraceEvent(now, decisionID, model.PhaseFinal, component, rule, status, sev, msg, opts...))
	}

	headroomKW, source := o.resolveHeadroom(req, emit)

	planResult := planner.Plan(planner.Input{
		PSiteKW:         req.PSiteKW,
		GridHeadroomKW:  headroomKW,
		ThermalCfg:      o.ThermalCfg,
		ThermalState:    o.State,
		AgingCfg:        o.AgingCfg,
		DeltaPRequestKW: req.DeltaPRequestKW,
		HorizonS:        req.HorizonS,
		DtS:             req.DtS,
		RampRateKWPerS:  req.RampRateKWPerS,
		DecisionID:      decisionID,
		Now:             now,
	})
	decisionTrace = append(decisionTrace, planResult.Trace...)

	var predictionDebug *model.Prediction
	if !planResult.Plan.Blocked && len(planResult.Plan.Steps) > 0 {
		step0 := planResult.Plan.Steps[0]
		o.State.TC = step0.RackTempC
		o.State.PCoolKW = step0.CoolingKW
		if source != model.HeadroomFallback {
			predictionDebug = &model.Prediction{
				NextTC:      step0.RackTempC,
				NextPCoolKW: step0.CoolingKW,
				ThermalOK:   step0.ThermalOK,
				HeadroomKW:  step0.ThermalHeadroomKW,
			}
		}
	}

	confidence := confidenceFor(planResult.Plan)

	record := model.DecisionRecord{
		DecisionID:          decisionID,
		TS:                  now,
		RequestedDeltaPKW:   req.DeltaPRequestKW,
		SiteLoadKW:          req.PSiteKW,
		GridHeadroomKW:      headroomKW,
		HeadroomSource:      source,
		ApprovedDeltaPKW:    planResult.ApprovedDeltaPKW,
		Blocked:             planResult.Plan.Blocked,
		ReasonCode:          planResult.Plan.Reason,
		Confidence:          confidence,
		PrimaryConstraint:   planResult.Plan.PrimaryConstraint,
		ConstraintValue:     planResult.Plan.ConstraintValue,
		ConstraintThreshold: planResult.Plan.ConstraintThreshold,
	}

	if o.Persistence != nil {
		if err := o.Persistence.Append(record, decisionTrace); err != nil && o.Log != nil {
			o.Log.WithError(err).WithField("decision_id", decisionID).Warn("[orch] persistence append failed, continuing")
		}
	}

	if o.Ring != nil {
		o.Ring.PushAll(decisionTrace)
	}

	kind := model.OutcomeApproved
	if planResult.Plan.Blocked {
		kind = model.OutcomeBlocked
	}

	planCopy := planResult.Plan
	return model.DecideOutcome{
		Kind:            kind,
		Record:          &record,
		Plan:            &planCopy,
		Trace:           decisionTrace,
		PredictionDebug: predictionDebug,
	}
}

// resolveHeadroom implements spec §4.4 steps 2-3: manual override vs
// predictor vs fallback, with an optional predictor clamp.
func (o *Orchestrator) resolveHeadroom(req Request, emit func(model.Component, model.RuleID, model.Status, model.Severity, string, ...model.TraceEventOption)) (float64, model.HeadroomSource) {
	if req.GridHeadroomOverride != nil {
		override := *req.GridHeadroomOverride

		if o.Predictor != nil && o.Predictor.Ready() {
			predicted, err := o.Predictor.Predict(contracts.GraphState{
				SiteLoadKW: req.PSiteKW,
				RackTempC:  o.State.TC,
				CoolingKW:  o.State.PCoolKW,
			})
			if err == nil && predicted < override {
				emit(model.ComponentGNN, model.RuleGNNHeadroomCap, model.StatusInfo, model.SeverityLow,
					"predictor headroom is smaller than the supplied override, using predictor value",
					model.WithValue(predicted), model.WithThreshold(override), model.WithUnits("kW"))
				emit(model.ComponentGNN, model.RuleHeadroomSourceSelected, model.StatusInfo, model.SeverityLow,
					"resolved grid headroom", model.WithValue(predicted), model.WithUnits("kW"))
				return predicted, model.HeadroomGNN
			}
		}

		emit(model.ComponentGrid, model.RuleHeadroomSourceSelected, model.StatusInfo, model.SeverityLow,
			"resolved grid headroom", model.WithValue(override), model.WithUnits("kW"))
		return override, model.HeadroomManual
	}

	if o.Predictor != nil && o.Predictor.Ready() {
		predicted, err := o.Predictor.Predict(contracts.GraphState{
			SiteLoadKW: req.PSiteKW,
			RackTempC:  o.State.TC,
			CoolingKW:  o.State.PCoolKW,
		})
		if err == nil {
			emit(model.ComponentGNN, model.RuleHeadroomSourceSelected, model.StatusInfo, model.SeverityLow,
				"resolved grid headroom", model.WithValue(predicted), model.WithUnits("kW"))
			return predicted, model.HeadroomGNN
		}
		if o.Log != nil {
			o.Log.WithError(err).Warn("[orch] predictor failed, falling back")
		}
	}

	const fallbackKW = 1500.0
	emit(model.ComponentGrid, model.RuleHeadroomSourceSelected, model.StatusInfo, model.SeverityLow,
		"resolved grid headroom", model.WithValue(fallbackKW), model.WithUnits("kW"))
	return fallbackKW, model.HeadroomFallback
}

// confidenceFor implements spec §4.4 step 7.
func confidenceFor(plan model.RampPlan) float64 {
	confidence := 0.85
	if plan.Blocked {
		confidence = 0.4
	} else if math.Abs(plan.ApprovedDeltaPKW) < math.Abs(plan.RequestedDeltaPKW)-1e-9 {
		confidence = 0.65
	}
	if plan.ConstraintValue != nil && plan.ConstraintThreshold != nil {
		margin := *plan.ConstraintThreshold - *plan.ConstraintValue
		switch {
		case margin < 0:
			confidence = math.Min(confidence, 0.35)
		case margin < 0.5:
			confidence = math.Min(confidence, 0.55)
		case margin < 1.0:
			confidence = math.Min(confidence, 0.7)
		}
	}
	return confidence
}

func validateFinite(req Request) error {
	vals := map[string]float64{
		"deltaP_request_kw": req.DeltaPRequestKW,
		"P_site_kw":         req.PSiteKW,
		"horizon_s":         req.HorizonS,
		"dt_s":              req.DtS,
		"ramp_rate_kw_per_s": req.RampRateKWPerS,
	}
	if req.GridHeadroomOverride != nil {
		vals["grid_headroom_kw"] = *req.GridHeadroomOverride
	}
	for name, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	return nil
}

func clampRequest(req Request, limits Limits) Request {
	signLimit := limits.MaxExportKW
	if req.DeltaPRequestKW < 0 {
		signLimit = limits.MaxImportKW
	}
	req.DeltaPRequestKW = clampAbs(req.DeltaPRequestKW, signLimit)
	req.PSiteKW = clamp(req.PSiteKW, limits.PSiteMinKW, limits.PSiteMaxKW)
	req.HorizonS = clamp(req.HorizonS, limits.HorizonMinS, limits.HorizonMaxS)
	req.DtS = clamp(req.DtS, limits.DtMinS, limits.DtMaxS)
	req.RampRateKWPerS = clamp(req.RampRateKWPerS, limits.RampRateMinKWPerS, limits.RampRateMaxKWPerS)
	return req
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
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
