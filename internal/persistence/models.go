// Package persistence implements the append-only decision/trace sink
// (C9 PersistenceSink) on gorm + sqlite.
//
// Grounded on casperlundberg-colony-process-offloader-algorithm's
// internal/database package: a DB wrapper over gorm.Open +
// AutoMigrate, and a Repository with narrow Create/Get/List methods —
// the same shape, generalized here from simulation/scaling-decision
// rows to decision/trace rows.
package persistence

import "time"

// DecisionRow is the gorm model for the decisions table (spec §6
// persistence schema).
type DecisionRow struct {
	DecisionID string    `gorm:"primaryKey" json:"decision_id"`
	TS         time.Time `gorm:"index" json:"ts"`

	RequestedKW    float64 `json:"requested_kw"`
	SiteLoadKW     float64 `json:"site_load_kw"`
	GridHeadroomKW float64 `json:"grid_headroom_kw"`
	ApprovedKW     float64 `json:"approved_kw"`
	Blocked        bool    `json:"blocked"`
	ReasonCode     string  `json:"reason_code"`
	Confidence     float64 `json:"confidence"`

	PrimaryConstraint   string   `json:"primary_constraint"`
	ConstraintValue     *float64 `json:"constraint_value"`
	ConstraintThreshold *float64 `json:"constraint_threshold"`

	CreatedAt time.Time `json:"created_at"`
}

// TraceRow is the gorm model for the trace table (spec §6 persistence
// schema), one row per final-phase event.
type TraceRow struct {
	ID         uint      `gorm:"primaryKey"`
	DecisionID string    `gorm:"index" json:"decision_id"`
	TS         time.Time `gorm:"index" json:"ts"`
	Component  string    `json:"component"`
	RuleID     string    `json:"rule_id"`
	Status     string    `json:"status"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	Value      *float64  `json:"value"`
	Threshold  *float64  `json:"threshold"`

	CreatedAt time.Time `json:"created_at"`
}
