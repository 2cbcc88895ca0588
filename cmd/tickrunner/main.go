// Command tickrunner drives the physics tick loop (C5) to a terminal
// log sink outside the HTTP server, for local inspection of the
// thermal twin independent of the API.
//
// Grounded on the teacher's cmd/demo/main.go: a second binary
// exercising the same engine the API serves, printing a running
// dispatch table instead of starting a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridshift-gate/internal/config"
	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/demo"
	"gridshift-gate/internal/logging"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/tick"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	n := flag.Int("n", 20, "Number of ticks to print before exiting (0 = run until interrupted)")
	scenario := flag.String("scenario", "", "Optional demo scenario to start (heat_wave|price_spike)")
	flag.Parse()

	log := logging.New("info")

	cfg := &config.Config{}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load config")
		}
		cfg = loaded
	} else {
		cfg.Thermal = config.ThermalConfig{
			KTransfer: 2.5, TMax: 45, TMin: 10, TAmbient: 28, TSetpoint: 24, TDeadband: 1.5,
			CoolingRampMaxKW: 300, CoolingCOP: 3.0, CoolingMinKW: 0, CoolingMaxKW: 2000,
			KpTempKWPerC: 150, CMassKJPerC: 50000, MaxExportKW: 3000, MaxImportKW: 3000,
		}
	}

	thermalCfg := cfg.Thermal.ToModel()
	initial := model.ThermalState{TC: cfg.Thermal.InitialTC, PCoolKW: cfg.Thermal.InitialPCoolKW}

	demoMgr := demo.NewManager()
	if *scenario != "" {
		if err := demoMgr.Start(*scenario, 1, 7, time.Now().UTC()); err != nil {
			log.WithError(err).Fatal("failed to start demo scenario")
		}
	}

	loop := tick.NewLoop(initial, 7)
	loop.Period = 1 * time.Second
	loop.ThermalCfg = thermalCfg
	loop.Predictor = contracts.NewFallbackHeadroomPredictor()
	loop.Carbon = contracts.DeterministicCarbonSource{}
	loop.Demo = demoMgr
	loop.BaseITLoadKW = 4000
	loop.LoadJitterKW = 50
	loop.Log = log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-sig:
			return
		case <-ticker.C:
			point := loop.Latest()
			if point == nil {
				continue
			}
			fmt.Printf("%s  rack_temp=%6.2fC  cooling=%7.1fkW  it_load=%7.1fkW  safe_shift=%7.1fkW  stress=%.2f\n",
				point.TS.Format("15:04:05"), point.RackTempC, point.CoolingKW, point.ITLoadKW, point.SafeShiftKW, point.StressScore)
			printed++
			if *n > 0 && printed >= *n {
				return
			}
		}
	}
}
