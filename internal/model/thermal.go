package model

import "errors"

// ThermalConfig holds the immutable physical parameters of the rack +
// cooling-actuator lumped-capacitance model. Units are documented per
// field; all are SI-adjacent (kW, °C, kJ/°C, kW/s) to keep the physics
// in internal/thermal free of unit-conversion bugs.
type ThermalConfig struct {
	// KTransfer is the passive heat-loss coefficient to ambient, kW/°C.
	KTransfer float64
	// TMax is the hard safety ceiling, °C.
	TMax float64
	// TMin is the post-integration floor, °C.
	TMin float64
	// TAmbient is the reference ambient temperature, °C.
	TAmbient float64
	// TSetpoint is the cooling controller's target temperature, °C.
	TSetpoint float64
	// TDeadband is the controller hysteresis band, °C.
	TDeadband float64

	// CoolingRampMaxKW is the actuator rate limit, kW/s, symmetric.
	CoolingRampMaxKW float64
	// CoolingCOP is heat-removed per electrical kW, dimensionless, >= 1.
	CoolingCOP float64
	// CoolingMinKW / CoolingMaxKW bound the cooling actuator, kW.
	CoolingMinKW float64
	CoolingMaxKW float64

	// KpTempKWPerC is the proportional over-temp gain, kW/°C.
	KpTempKWPerC float64

	// CMassKJPerC is the fallback thermal mass, kJ/°C, used unless
	// UseDynamicCoolantMass is set.
	CMassKJPerC float64

	// Dynamic coolant-mass parameters (used only when
	// UseDynamicCoolantMass is true).
	UseDynamicCoolantMass bool
	CoolantVolumeM3       float64
	GlycolFraction        float64

	// MaxExportKW / MaxImportKW are the signed engineering limits on
	// requested power shift, kW.
	MaxExportKW float64
	MaxImportKW float64
}

// Validate checks the physical parameters for internal consistency.
func (c ThermalConfig) Validate() error {
	switch {
	case c.TMax <= c.TMin:
		return errors.New("thermal config: TMax must be > TMin")
	case c.TSetpoint < c.TMin || c.TSetpoint > c.TMax:
		return errors.New("thermal config: TSetpoint must be within [TMin, TMax]")
	case c.TDeadband < 0:
		return errors.New("thermal config: TDeadband must be >= 0")
	case c.CoolingRampMaxKW <= 0:
		return errors.New("thermal config: CoolingRampMaxKW must be > 0")
	case c.CoolingCOP < 1:
		return errors.New("thermal config: CoolingCOP must be >= 1")
	case c.CoolingMinKW > c.CoolingMaxKW:
		return errors.New("thermal config: CoolingMinKW must be <= CoolingMaxKW")
	case c.CMassKJPerC <= 0 && !c.UseDynamicCoolantMass:
		return errors.New("thermal config: CMassKJPerC must be > 0 when dynamic coolant mass is disabled")
	case c.MaxExportKW <= 0:
		return errors.New("thermal config: MaxExportKW must be > 0")
	case c.MaxImportKW <= 0:
		return errors.New("thermal config: MaxImportKW must be > 0 (magnitude)")
	}
	return nil
}

// ThermalState is the mutable twin state: rack temperature and the
// cooling actuator's current electrical draw.
type ThermalState struct {
	TC        float64 // rack temperature, °C
	PCoolKW   float64 // cooling actuator electrical draw, kW
}

// Prediction is the pure, non-committing output of one thermal-twin
// step: what the next state WOULD be, plus debug terms.
type Prediction struct {
	NextTC      float64
	NextPCoolKW float64
	ThermalOK   bool // NextTC < TMax

	// HeadroomKW is a heuristic estimate of remaining thermal margin
	// expressed as an additional IT-load kW the rack could absorb
	// before breaching TMax on this single step (not a multi-step
	// guarantee).
	HeadroomKW float64

	// Debug terms.
	QPassiveKW    float64
	QActiveKW     float64
	CoolingTarget float64
	COPUsed       float64
	CMassUsed     float64
}

// BatteryAgingConfig parameterizes the Arrhenius-style capacity-loss
// increment (C2). Despite the name, this models battery/UPS wear from
// the power-shift event's throughput, not a dispatchable battery.
type BatteryAgingConfig struct {
	EaJPerMol           float64 // activation energy, J/mol
	RGasJPerMolK         float64 // gas constant, J/(mol*K)
	KAging               float64 // scale factor
	MaxCapLossFracPerDecision float64
	MaxTempForAgingC     float64 // aging saturates above this temperature
}

// Validate checks the aging parameters for internal consistency.
func (c BatteryAgingConfig) Validate() error {
	switch {
	case c.EaJPerMol <= 0:
		return errors.New("aging config: EaJPerMol must be > 0")
	case c.RGasJPerMolK <= 0:
		return errors.New("aging config: RGasJPerMolK must be > 0")
	case c.KAging < 0:
		return errors.New("aging config: KAging must be >= 0")
	case c.MaxCapLossFracPerDecision <= 0:
		return errors.New("aging config: MaxCapLossFracPerDecision must be > 0")
	}
	return nil
}
