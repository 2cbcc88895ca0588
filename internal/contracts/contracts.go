// Package contracts defines the narrow external-collaborator
// interfaces (C9): the orchestrator and tick loop depend only on
// these, never on a concrete ML/market-data/persistence implementation.
// Grounded on the teacher's strategy.Oracle interface
// (internal/strategy/oracle.go), which plays the same role for its
// market-data collaborator — a small interface the engine depends on,
// with a default/degraded implementation shipped alongside it.
package contracts

import (
	"time"

	"gridshift-gate/internal/model"
)

// HeadroomPredictor reports a learned estimate of safely exportable/
// importable grid headroom. Ready/Predict must never block the
// caller for longer than the caller's configured budget; a slow or
// failing predictor degrades the orchestrator to its fallback value,
// it never blocks a decision.
type HeadroomPredictor interface {
	Ready() bool
	Predict(state GraphState) (kw float64, err error)
}

// GraphState is the synthesized descriptor handed to a predictor: a
// coarse summary of site state, not a full power-flow solve (no AC
// power-flow solving is in scope).
type GraphState struct {
	TS          time.Time
	SiteLoadKW  float64
	RackTempC   float64
	CoolingKW   float64
	GridFreqHz  float64
}

// CarbonSource supplies carbon intensity and price signals. Both
// methods are total functions with clamped outputs — never an error,
// since a missing/disabled source falls back to a deterministic
// sinusoid (see internal/telemetry).
type CarbonSource interface {
	IntensityGPerKWh(ts time.Time) float64
	PriceUSDPerKWh(ts time.Time) float64
}

// PersistenceSink appends a decision and its final-phase trace events.
// At-least-once semantics: a failure is logged by the caller and must
// never fail the decision path (spec §4.4 step 8).
type PersistenceSink interface {
	Append(decision model.DecisionRecord, events []model.TraceEvent) error
	Recent(limit int) ([]model.DecisionRecord, error)
	TraceFor(decisionID string) ([]model.TraceEvent, error)
}

// TopologyProvider exposes a static grid graph with a stable layout.
// Live per-element metrics are optional: a provider with no power-flow
// evaluator returns nodes/edges with nil live fields.
type TopologyProvider interface {
	Topology() model.Topology
}
