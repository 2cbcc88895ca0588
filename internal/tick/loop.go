// Package tick implements the physics tick loop (C5): a single
// cooperatively scheduled background task that steps the thermal twin
// once per wall-clock second (period configurable), applies demo
// overlays, and caches a fresh telemetry snapshot.
//
// Grounded on the teacher's cmd/demo/main.go, which drives the same
// battery model on a ticking loop outside the HTTP server for local
// inspection — generalized here from "print a dispatch every tick" to
// "step the twin, cache a snapshot, tolerate per-iteration failure."
package tick

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/demo"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/thermal"
)

// Loop owns the live thermal state and the latest-telemetry cache. It
// is only ever mutated from its own goroutine; readers call Latest()
// for a point-in-time copy.
type Loop struct {
	Period time.Duration

	ThermalCfg model.ThermalConfig
	AgingCfg   model.BatteryAgingConfig

	Predictor contracts.HeadroomPredictor
	Carbon    contracts.CarbonSource
	Demo      *demo.Manager

	BaseITLoadKW float64
	LoadJitterKW float64

	Log *logrus.Logger

	mu      sync.RWMutex
	state   model.ThermalState
	latest  *model.TelemetryPoint
	rnd     *rand.Rand
}

// NewLoop constructs a loop with a seeded jitter source, matching the
// deterministic-replay requirement that nothing in the system reaches
// for wall-clock randomness outside this one explicitly-seeded stream.
func NewLoop(initial model.ThermalState, seed int64) *Loop {
	return &Loop{
		Period:       time.Second,
		BaseITLoadKW: 1000,
		LoadJitterKW: 20,
		state:        initial,
		rnd:          rand.New(rand.NewSource(seed)),
	}
}

// State returns a point-in-time copy of the live thermal state.
func (l *Loop) State() model.ThermalState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Latest returns the cached telemetry snapshot, or nil if the loop has
// not completed a tick yet.
func (l *Loop) Latest() *model.TelemetryPoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.latest == nil {
		return nil
	}
	cp := *l.latest
	return &cp
}

// Run drives the loop until ctx is cancelled. Per-iteration failures
// are caught and logged; the loop never exits early because of one.
// Cancellation is checked at the sleep boundary, so it takes effect
// immediately rather than waiting out a partial tick.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.safeTick(now)
		}
	}
}

func (l *Loop) safeTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil && l.Log != nil {
			l.Log.WithField("panic", r).Error("[tick] recovered from panic, continuing")
		}
	}()
	l.tick(now)
}

func (l *Loop) tick(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	jitter := (l.rnd.Float64()*2 - 1) * l.LoadJitterKW
	itLoad := l.BaseITLoadKW + jitter

	cfg := l.ThermalCfg
	var effect demo.Effect
	if l.Demo != nil {
		effect = l.Demo.Tick(now)
		itLoad += effect.LoadDeltaKW
		cfg.TAmbient += effect.AmbientDeltaC
		cfg.CoolingCOP *= scaleOrOne(effect.CoolingCOPScale)
	}

	pred := thermal.Step(cfg, &l.state, itLoad, 1.0)

	freq := 60.0 + effect.FreqBiasHz
	carbon := 300.0
	if l.Carbon != nil {
		carbon = l.Carbon.IntensityGPerKWh(now)
	}

	safeShift := l.safeShift(now)

	point := model.TelemetryPoint{
		TS:              now,
		GridFrequencyHz: freq,
		RocofHzPerS:     0,
		StressScore:     stressScore(pred),
		ITLoadKW:        itLoad,
		TotalLoadKW:     itLoad + pred.NextPCoolKW,
		SafeShiftKW:     safeShift,
		CarbonGPerKWh:   carbon,
		RackTempC:       pred.NextTC,
		CoolingKW:       pred.NextPCoolKW,
	}
	l.latest = &point
}

// safeShift offloads any predictor call to a goroutine with a hard
// budget so a slow/hanging predictor can never stall the scheduler;
// spec §4.5 step 4 and §9's HeadroomPredictor contract both require
// this.
func (l *Loop) safeShift(now time.Time) float64 {
	if l.Predictor == nil || !l.Predictor.Ready() {
		return fallbackSafeShift(l.state.TC, l.ThermalCfg.TMax)
	}

	type result struct {
		kw  float64
		err error
	}
	ch := make(chan result, 1)
	go func() {
		kw, err := l.Predictor.Predict(contracts.GraphState{
			TS:         now,
			SiteLoadKW: l.BaseITLoadKW,
			RackTempC:  l.state.TC,
			CoolingKW:  l.state.PCoolKW,
		})
		ch <- result{kw: kw, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return fallbackSafeShift(l.state.TC, l.ThermalCfg.TMax)
		}
		return r.kw
	case <-time.After(200 * time.Millisecond):
		return fallbackSafeShift(l.state.TC, l.ThermalCfg.TMax)
	}
}

func fallbackSafeShift(tc, tMax float64) float64 {
	if tMax-tc < 3.0 {
		return 800
	}
	return 1200
}

func stressScore(pred model.Prediction) float64 {
	if !pred.ThermalOK {
		return 1.0
	}
	return 0.2
}

func scaleOrOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
