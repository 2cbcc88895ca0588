package trace

import (
	"math"
	"time"

	"gridshift-gate/internal/model"
)

// KPISummary is the computed roll-up over a trailing window.
type KPISummary struct {
	WindowS                      int            `json:"window_s"`
	TotalRecent                  int            `json:"total_recent"`
	BlockedDecisionsUnique       int            `json:"blocked_decisions_unique"`
	UnsafeActionsPreventedTotal  int            `json:"unsafe_actions_prevented_total"`
	BlockedRatePct               float64        `json:"blocked_rate_pct"`
	ByComponent                  map[string]int `json:"by_component"`
	ByRule                       map[string]int `json:"by_rule"`
	KWhShifted                   float64        `json:"kwh_shifted"`
	MoneySaved                   float64        `json:"money_saved"`
	CO2Avoided                   float64        `json:"co2_avoided"`
	SLAPenalty                   float64        `json:"sla_penalty"`
	JobsOnTimePct                float64        `json:"jobs_on_time_pct"`
}

// decisionSelection is the per-decision APPROVED_DELTA_SELECTED event
// used to drive the roll-up; one decision may appear multiple times in
// the ring only if replayed, so the last final-phase selection wins.
type decisionSelection struct {
	status           model.Status
	approvedDeltaKW  float64
	proposedDeltaKW  float64
}

// Summarize computes the KPI roll-up over events within
// [now-windowS, now], per spec.md §4.6. windowS is expected to already
// be clamped to [60, 3600] by the caller (the HTTP layer owns request
// validation).
func Summarize(events []model.TraceEvent, now time.Time, windowS int) KPISummary {
	start := now.Add(-time.Duration(windowS) * time.Second)

	selections := make(map[string]decisionSelection)
	blockedByComponent := make(map[string]int)
	blockedByRule := make(map[string]int)

	for _, ev := range events {
		if ev.Phase != model.PhaseFinal {
			continue
		}
		if ev.TS.Before(start) || ev.TS.After(now) {
			continue
		}

		if ev.Status == model.StatusBlocked {
			blockedByComponent[string(ev.Component)]++
			blockedByRule[string(ev.RuleID)]++
		}

		if ev.RuleID == model.RuleApprovedDeltaSelected {
			sel := decisionSelection{status: ev.Status}
			if ev.ApprovedDeltaPKW != nil {
				sel.approvedDeltaKW = *ev.ApprovedDeltaPKW
			}
			if ev.ProposedDeltaPKW != nil {
				sel.proposedDeltaKW = *ev.ProposedDeltaPKW
			}
			selections[ev.DecisionID] = sel
		}
	}

	totalRecent := len(selections)
	blockedUnique := 0
	unsafePrevented := 0
	var kWhShifted float64

	for _, sel := range selections {
		if sel.status == model.StatusBlocked {
			blockedUnique++
		}
		clipped := math.Abs(sel.approvedDeltaKW)+1e-9 < math.Abs(sel.proposedDeltaKW)
		if sel.status == model.StatusBlocked || clipped {
			unsafePrevented++
		}
		kWhShifted += sel.approvedDeltaKW * (30.0 / 3600.0)
	}

	blockedRate := 0.0
	if totalRecent > 0 {
		blockedRate = 100.0 * float64(blockedUnique) / float64(totalRecent)
	}

	return KPISummary{
		WindowS:                     windowS,
		TotalRecent:                 totalRecent,
		BlockedDecisionsUnique:      blockedUnique,
		UnsafeActionsPreventedTotal: unsafePrevented,
		BlockedRatePct:              blockedRate,
		ByComponent:                 blockedByComponent,
		ByRule:                      blockedByRule,
		KWhShifted:                  kWhShifted,
		MoneySaved:                  0.15 * kWhShifted,
		CO2Avoided:                  0.4 * kWhShifted,
		SLAPenalty:                  500.0 * float64(blockedUnique),
		JobsOnTimePct:               100.0 - blockedRate,
	}
}
