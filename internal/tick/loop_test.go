package tick_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridshift-gate/internal/model"
	"gridshift-gate/internal/tick"
)

func baseThermalCfg() model.ThermalConfig {
	return model.ThermalConfig{
		KTransfer:        5.0,
		TMax:             55.0,
		TMin:             10.0,
		TAmbient:         25.0,
		TSetpoint:        45.0,
		TDeadband:        1.0,
		CoolingRampMaxKW: 50.0,
		CoolingCOP:       3.0,
		CoolingMinKW:     0,
		CoolingMaxKW:     2000,
		KpTempKWPerC:     200.0,
		CMassKJPerC:      5000.0,
		MaxExportKW:      1000,
		MaxImportKW:      1000,
	}
}

func TestLoop_LatestIsNilBeforeFirstTick(t *testing.T) {
	l := tick.NewLoop(model.ThermalState{TC: 40, PCoolKW: 300}, 1)
	l.ThermalCfg = baseThermalCfg()
	assert.Nil(t, l.Latest())
}

func TestLoop_RunProducesSnapshotsAndRespectsCancellation(t *testing.T) {
	l := tick.NewLoop(model.ThermalState{TC: 40, PCoolKW: 300}, 1)
	l.ThermalCfg = baseThermalCfg()
	l.Period = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("loop did not exit after context cancellation")
	}

	require.NotNil(t, l.Latest())
	assert.Greater(t, l.Latest().RackTempC, 0.0)
}

func TestLoop_StateTracksThermalTwinAcrossTicks(t *testing.T) {
	l := tick.NewLoop(model.ThermalState{TC: 40, PCoolKW: 300}, 1)
	l.ThermalCfg = baseThermalCfg()
	l.Period = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	l.Run(ctx)

	assert.NotEqual(t, 40.0, l.State().TC)
}
