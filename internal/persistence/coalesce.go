package persistence

import (
	"time"

	"gridshift-gate/internal/model"
)

// CoalescedDecision groups consecutive BLOCKED rows sharing the same
// (reason_code, primary_constraint, requested_kw) within window_s into
// one row carrying the repeat count, per spec §6 GET /decision/recent.
// Rows that aren't BLOCKED, or that don't match the running group, each
// start a new group of their own (count=1).
type CoalescedDecision struct {
	model.DecisionRecord
	Count int `json:"count"`
}

// Coalesce groups rows, which must already be ordered newest-first (as
// Sink.Recent returns them). The comparison window is measured from
// each row to the first (newest) row of the running group.
func Coalesce(rows []model.DecisionRecord, windowS int) []CoalescedDecision {
	out := make([]CoalescedDecision, 0, len(rows))
	window := time.Duration(windowS) * time.Second

	for _, row := range rows {
		if len(out) > 0 {
			last := &out[len(out)-1]
			sameGroup := row.Blocked && last.Blocked &&
				row.ReasonCode == last.ReasonCode &&
				row.PrimaryConstraint == last.PrimaryConstraint &&
				row.RequestedDeltaPKW == last.RequestedDeltaPKW &&
				withinWindow(last.TS, row.TS, window)
			if sameGroup {
				last.Count++
				continue
			}
		}
		out = append(out, CoalescedDecision{DecisionRecord: row, Count: 1})
	}
	return out
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
