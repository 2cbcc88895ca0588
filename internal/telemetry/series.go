// Package telemetry implements the lookback telemetry series generator
// (C7): given the currently cached thermal twin state, forward-simulate
// N points over a window, with a seeded random source so deterministic
// (replay) mode reproduces byte-for-byte.
//
// Grounded on the teacher's internal/data/gridstatus.go pattern of
// producing a bounded, seeded synthetic series when a live source is
// unavailable, generalized from "mock market data" to "forward-simulate
// a physics twin."
package telemetry

import (
	"math"
	"math/rand"
	"time"

	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/demo"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/thermal"
)

const seriesLength = 60

// dipStart/dipEnd mark the deterministic stress-window indices (25..35
// inclusive) during which frequency dips and stress score rises.
const dipStart = 25
const dipEnd = 35

// Mode selects deterministic seeding vs live (wall-clock-derived)
// seeding.
type Mode string

const (
	ModeLive    Mode = "live"
	ModeReplay  Mode = "replay"
)

// Request bundles the inputs to GenerateSeries.
type Request struct {
	WindowS   int
	EndTS     time.Time
	Mode      Mode
	DemoSeed  int64

	ThermalCfg   model.ThermalConfig
	ThermalState model.ThermalState

	Predictor contracts.HeadroomPredictor
	Carbon    contracts.CarbonSource
	Demo      *demo.Manager
}

// GenerateSeries produces up to seriesLength points spanning
// [EndTS-WindowS, EndTS].
func GenerateSeries(req Request) []model.TelemetryPoint {
	seed := seedFor(req)
	rnd := rand.New(rand.NewSource(seed))

	stepS := math.Max(1, float64(req.WindowS)/float64(seriesLength))
	state := req.ThermalState

	points := make([]model.TelemetryPoint, 0, seriesLength)
	startTS := req.EndTS.Add(-time.Duration(req.WindowS) * time.Second)

	for i := 0; i < seriesLength; i++ {
		ts := startTS.Add(time.Duration(float64(i)*stepS) * time.Second)

		jitter := (rnd.Float64()*2 - 1) * 20
		itLoad := 1000 + jitter

		pred := thermal.Step(req.ThermalCfg, &state, itLoad, stepS)

		dip := i >= dipStart && i <= dipEnd
		freq := 60.0 + (rnd.Float64()*2-1)*0.02
		stress := 0.2
		if dip {
			freq -= 0.15
			stress = 0.85
		}

		carbon := 300.0
		if req.Carbon != nil {
			carbon = req.Carbon.IntensityGPerKWh(ts)
		} else {
			carbon = deterministicCarbon(ts)
		}

		safeShift := safeShiftFallback(state.TC, req.ThermalCfg.TMax, dip)
		if req.Predictor != nil && req.Predictor.Ready() {
			if kw, err := req.Predictor.Predict(contracts.GraphState{TS: ts, RackTempC: state.TC, CoolingKW: state.PCoolKW}); err == nil {
				safeShift = kw
			}
		}

		points = append(points, model.TelemetryPoint{
			TS:              ts,
			GridFrequencyHz: freq,
			RocofHzPerS:     0,
			StressScore:     stress,
			ITLoadKW:        itLoad,
			TotalLoadKW:     itLoad + pred.NextPCoolKW,
			SafeShiftKW:     safeShift,
			CarbonGPerKWh:   carbon,
			RackTempC:       pred.NextTC,
			CoolingKW:       pred.NextPCoolKW,
		})
	}
	return points
}

func seedFor(req Request) int64 {
	if req.Mode == ModeReplay {
		seed := req.DemoSeed + int64(req.WindowS)
		return seed + req.EndTS.Unix()
	}
	if req.Mode == ModeLive {
		return time.Now().Unix() / 60
	}
	// Deterministic non-replay mode: seed + window, no wall-clock term.
	return req.DemoSeed + int64(req.WindowS)
}

func safeShiftFallback(tc, tMax float64, dip bool) float64 {
	if dip {
		return 900
	}
	if tMax-tc < 3.0 {
		return 800
	}
	return 1200
}

// deterministicCarbon mirrors contracts.DeterministicCarbonSource but
// is duplicated here (same formula) to avoid a dependency from
// internal/telemetry back onto internal/contracts' concrete fallback
// type — only the interface is imported.
func deterministicCarbon(ts time.Time) float64 {
	hourFrac := float64(ts.Hour())/24.0 + float64(ts.Minute())/1440.0
	base := 350.0 + 120.0*math.Sin(2*math.Pi*hourFrac-math.Pi/2)
	if base < 50 {
		return 50
	}
	if base > 900 {
		return 900
	}
	return base
}

// Downsample strides a series down to at most maxPoints, always
// keeping the first and last sample.
func Downsample(points []model.TelemetryPoint, maxPoints int) []model.TelemetryPoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points
	}
	if maxPoints == 1 {
		return points[:1]
	}
	out := make([]model.TelemetryPoint, 0, maxPoints)
	stride := float64(len(points)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		idx := int(math.Round(float64(i) * stride))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		out = append(out, points[idx])
	}
	return out
}
