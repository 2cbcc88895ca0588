package model

import "time"

// TraceEvent is one rule evaluation emitted by the ramp planner (or the
// decision orchestrator, for headroom-resolution events), with the
// evidence needed to audit the decision after the fact.
//
// Numeric evidence fields are pointers so that "not applicable" and
// "zero" are distinguishable on the wire.
type TraceEvent struct {
	TS         time.Time  `json:"ts"`
	DecisionID string     `json:"decision_id"`
	Phase      Phase      `json:"phase"`
	Component  Component  `json:"component"`
	RuleID     RuleID     `json:"rule_id"`
	Status     Status     `json:"status"`
	Severity   Severity   `json:"severity"`
	Message    string     `json:"message"`

	Value     *float64 `json:"value,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Units     string   `json:"units,omitempty"`

	ProposedDeltaPKW *float64 `json:"proposed_deltaP_kw,omitempty"`
	ApprovedDeltaPKW *float64 `json:"approved_deltaP_kw,omitempty"`
	RackTempC        *float64 `json:"rack_temp_c,omitempty"`
}

// NewTraceEvent is the single constructor for trace events; callers
// should never build a TraceEvent literal directly so that every event
// on the wire has gone through the same defaulting (TS, DecisionID).
func NewTraceEvent(
	ts time.Time,
	decisionID string,
	phase Phase,
	component Component,
	rule RuleID,
	status Status,
	severity Severity,
	message string,
	opts ...TraceEventOption,
) TraceEvent {
	ev := TraceEvent{
		TS:         ts,
		DecisionID: decisionID,
		Phase:      phase,
		Component:  component,
		RuleID:     rule,
		Status:     status,
		Severity:   severity,
		Message:    message,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}

// TraceEventOption sets one optional evidence field on a TraceEvent.
type TraceEventOption func(*TraceEvent)

func WithValue(v float64) TraceEventOption {
	return func(e *TraceEvent) { e.Value = &v }
}

func WithThreshold(v float64) TraceEventOption {
	return func(e *TraceEvent) { e.Threshold = &v }
}

func WithUnits(u string) TraceEventOption {
	return func(e *TraceEvent) { e.Units = u }
}

func WithProposedDeltaP(v float64) TraceEventOption {
	return func(e *TraceEvent) { e.ProposedDeltaPKW = &v }
}

func WithApprovedDeltaP(v float64) TraceEventOption {
	return func(e *TraceEvent) { e.ApprovedDeltaPKW = &v }
}

func WithRackTemp(v float64) TraceEventOption {
	return func(e *TraceEvent) { e.RackTempC = &v }
}
