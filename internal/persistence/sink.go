package persistence

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gridshift-gate/internal/model"
)

// Sink wraps a gorm connection and implements
// contracts.PersistenceSink.
type Sink struct {
	db *gorm.DB
}

// Open connects to a sqlite database at path (use ":memory:" or
// "file::memory:?cache=shared" for tests) and migrates the schema.
func Open(path string) (*Sink, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}

	if err := db.AutoMigrate(&DecisionRow{}, &TraceRow{}); err != nil {
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}

	return &Sink{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append persists a decision and its final-phase trace events in one
// transaction. At-least-once semantics: the caller (the orchestrator)
// treats any error here as non-fatal to the decision already made.
func (s *Sink) Append(decision model.DecisionRecord, events []model.TraceEvent) error {
	row := DecisionRow{
		DecisionID:          decision.DecisionID,
		TS:                  decision.TS,
		RequestedKW:         decision.RequestedDeltaPKW,
		SiteLoadKW:          decision.SiteLoadKW,
		GridHeadroomKW:      decision.GridHeadroomKW,
		ApprovedKW:          decision.ApprovedDeltaPKW,
		Blocked:             decision.Blocked,
		ReasonCode:          string(decision.ReasonCode),
		Confidence:          decision.Confidence,
		PrimaryConstraint:   string(decision.PrimaryConstraint),
		ConstraintValue:     decision.ConstraintValue,
		ConstraintThreshold: decision.ConstraintThreshold,
		CreatedAt:           time.Now().UTC(),
	}

	traceRows := make([]TraceRow, 0, len(events))
	for _, ev := range events {
		if ev.Phase != model.PhaseFinal {
			continue
		}
		traceRows = append(traceRows, TraceRow{
			DecisionID: ev.DecisionID,
			TS:         ev.TS,
			Component:  string(ev.Component),
			RuleID:     string(ev.RuleID),
			Status:     string(ev.Status),
			Severity:   string(ev.Severity),
			Message:    ev.Message,
			Value:      ev.Value,
			Threshold:  ev.Threshold,
			CreatedAt:  time.Now().UTC(),
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("persistence: append decision: %w", err)
		}
		if len(traceRows) > 0 {
			if err := tx.Create(&traceRows).Error; err != nil {
				return fmt.Errorf("persistence: append trace: %w", err)
			}
		}
		return nil
	})
}

// Recent returns the most recently persisted decisions, newest first.
func (s *Sink) Recent(limit int) ([]model.DecisionRecord, error) {
	var rows []DecisionRow
	q := s.db.Order("ts DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("persistence: recent: %w", err)
	}

	out := make([]model.DecisionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.DecisionRecord{
			DecisionID:          row.DecisionID,
			TS:                  row.TS,
			RequestedDeltaPKW:   row.RequestedKW,
			SiteLoadKW:          row.SiteLoadKW,
			GridHeadroomKW:      row.GridHeadroomKW,
			ApprovedDeltaPKW:    row.ApprovedKW,
			Blocked:             row.Blocked,
			ReasonCode:          model.RuleID(row.ReasonCode),
			Confidence:          row.Confidence,
			PrimaryConstraint:   model.Component(row.PrimaryConstraint),
			ConstraintValue:     row.ConstraintValue,
			ConstraintThreshold: row.ConstraintThreshold,
		})
	}
	return out, nil
}

// TraceFor returns every persisted trace event for one decision,
// oldest-first.
func (s *Sink) TraceFor(decisionID string) ([]model.TraceEvent, error) {
	var rows []TraceRow
	if err := s.db.Where("decision_id = ?", decisionID).Order("ts ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("persistence: trace for %s: %w", decisionID, err)
	}

	out := make([]model.TraceEvent, 0, len(rows))
	for _, row := range rows {
		ev := model.NewTraceEvent(row.TS, row.DecisionID, model.PhaseFinal, model.Component(row.Component),
			model.RuleID(row.RuleID), model.Status(row.Status), model.Severity(row.Severity), row.Message)
		ev.Value = row.Value
		ev.Threshold = row.Threshold
		out = append(out, ev)
	}
	return out, nil
}
