package model

import "time"

// TelemetryPoint is one sample of the site's electrical/thermal state,
// used both for the live "latest telemetry" cache (C5) and for the
// lookback series generator (C7).
type TelemetryPoint struct {
	TS TimeOrZero `json:"ts"`

	GridFrequencyHz float64 `json:"grid_frequency_hz"`
	RocofHzPerS     float64 `json:"rocof_hz_per_s"`
	StressScore     float64 `json:"stress_score"`

	ITLoadKW    float64 `json:"it_load_kw"`
	TotalLoadKW float64 `json:"total_load_kw"`
	SafeShiftKW float64 `json:"safe_shift_kw"`

	CarbonGPerKWh float64 `json:"carbon_g_per_kwh"`

	RackTempC float64 `json:"rack_temp_c"`
	CoolingKW float64 `json:"cooling_kw"`

	// Optional thermal debug fields, populated only when the caller
	// asked for debug evidence (mirrors Prediction's debug terms).
	QPassiveKW *float64 `json:"q_passive_kw,omitempty"`
	QActiveKW  *float64 `json:"q_active_kw,omitempty"`
}

// TimeOrZero is time.Time with a JSON encoding matching the spec's
// "ISO-8601" wire format via time.Time's default RFC3339 marshaling;
// the alias exists purely to keep the intent documented at the call
// site.
type TimeOrZero = time.Time
