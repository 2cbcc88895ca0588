package contracts

import (
	"math"
	"time"
)

// FallbackHeadroomPredictor is the degraded headroom source used when
// no real predictor is enabled (GNN_ENABLED=false) or when a real one
// fails/times out. Ready always reports false so callers always treat
// its numeric value as the fallback path, per spec §4.4 step 2.
type FallbackHeadroomPredictor struct {
	FixedKW float64
}

// NewFallbackHeadroomPredictor returns the spec-mandated 1500 kW safe
// default.
func NewFallbackHeadroomPredictor() FallbackHeadroomPredictor {
	return FallbackHeadroomPredictor{FixedKW: 1500}
}

func (f FallbackHeadroomPredictor) Ready() bool { return false }

func (f FallbackHeadroomPredictor) Predict(state GraphState) (float64, error) {
	return f.FixedKW, nil
}

// DeterministicCarbonSource is the always-available carbon/price
// fallback: a pure function of timestamp so replay mode stays
// reproducible end-to-end (no wall-clock randomness anywhere in this
// type).
type DeterministicCarbonSource struct{}

func (DeterministicCarbonSource) IntensityGPerKWh(ts time.Time) float64 {
	hourFrac := float64(ts.Hour())/24.0 + float64(ts.Minute())/1440.0
	base := 350.0 + 120.0*math.Sin(2*math.Pi*hourFrac-math.Pi/2)
	return clamp(base, 50, 900)
}

func (DeterministicCarbonSource) PriceUSDPerKWh(ts time.Time) float64 {
	hourFrac := float64(ts.Hour())/24.0 + float64(ts.Minute())/1440.0
	base := 0.12 + 0.08*math.Sin(2*math.Pi*hourFrac-math.Pi/2)
	return clamp(base, 0.02, 0.60)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
