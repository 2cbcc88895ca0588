package model

import "time"

// DecisionRecord is the persistence shape for one decision: inputs,
// outcome, and primary-constraint evidence. It has a one-to-many
// relationship with TraceEvent rows keyed by DecisionID.
type DecisionRecord struct {
	DecisionID string    `json:"decision_id"`
	TS         time.Time `json:"ts"`

	RequestedDeltaPKW float64 `json:"requested_deltaP_kw"`
	SiteLoadKW        float64 `json:"site_load_kw"`
	GridHeadroomKW    float64 `json:"grid_headroom_kw"`
	HeadroomSource    HeadroomSource `json:"headroom_source"`

	ApprovedDeltaPKW float64 `json:"approved_deltaP_kw"`
	Blocked          bool    `json:"blocked"`
	ReasonCode       RuleID  `json:"reason_code"`
	Confidence       float64 `json:"confidence"`

	PrimaryConstraint   Component `json:"primary_constraint,omitempty"`
	ConstraintValue     *float64  `json:"constraint_value,omitempty"`
	ConstraintThreshold *float64  `json:"constraint_threshold,omitempty"`
}

// OutcomeKind classifies a DecideOutcome. Only InputError ever crosses
// the HTTP boundary as a 4xx; Approved and Blocked are both normal,
// 200-class domain outcomes (spec.md §7, §9).
type OutcomeKind string

const (
	OutcomeApproved   OutcomeKind = "approved"
	OutcomeBlocked    OutcomeKind = "blocked"
	OutcomeInputError OutcomeKind = "input_error"
)

// DecideOutcome is the orchestrator's result type: Ok(plan) |
// BlockedDomain(plan, reason) | InputError(kind), modeled as a closed
// struct rather than an exception per spec.md Design Notes §9.
type DecideOutcome struct {
	Kind OutcomeKind

	Record *DecisionRecord
	Plan   *RampPlan
	Trace  []TraceEvent

	// PredictionDebug carries the committed step 0's predicted rack
	// temperature, cooling power, thermal_ok flag and heuristic headroom,
	// when the decision was approved. Its QPassiveKW/QActiveKW/
	// CoolingTarget/COPUsed/CMassUsed terms are left zero. Absent when
	// the headroom came from the FALLBACK source.
	PredictionDebug *Prediction

	// InputErrorMessage is set only when Kind == OutcomeInputError.
	InputErrorMessage string
}
