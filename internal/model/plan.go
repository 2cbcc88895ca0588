package model

// RampPlanStep is one step of the ramp planner's look-ahead, at offset
// TOffsetS seconds from decision time.
type RampPlanStep struct {
	TOffsetS         float64 `json:"t_offset_s"`
	ProposedDeltaPKW float64 `json:"proposed_deltaP_kw"`
	RackTempC        float64 `json:"rack_temp_c"`
	CoolingKW        float64 `json:"cooling_kw"`
	ThermalOK        bool    `json:"thermal_ok"`
	ThermalHeadroomKW float64 `json:"thermal_headroom_kw"`
	Reason           string  `json:"reason"`

	// CapLossFracStep is additive debug evidence (SPEC_FULL §4 item 3): the
	// per-step battery-aging capacity-loss increment, so a
	// BATTERY_WEAR_BLOCKED trace event is explainable from the plan
	// alone. Not referenced by any invariant.
	CapLossFracStep float64 `json:"cap_loss_frac_step"`
}

// RampPlan is the ramp planner's output for one decision: the approved
// magnitude (sign-restored), whether the request was blocked outright,
// and the ordered per-step trace that justifies the outcome.
type RampPlan struct {
	RequestedDeltaPKW float64         `json:"requested_deltaP_kw"`
	ApprovedDeltaPKW  float64         `json:"approved_deltaP_kw"`
	Blocked           bool            `json:"blocked"`
	Reason            RuleID          `json:"reason"`
	PrimaryConstraint Component       `json:"primary_constraint,omitempty"`
	ConstraintValue   *float64        `json:"constraint_value,omitempty"`
	ConstraintThreshold *float64      `json:"constraint_threshold,omitempty"`
	Steps             []RampPlanStep  `json:"steps"`
}
