// Command api is the HTTP server entry point: loads config, wires the
// tick loop, persistence sink, trace ring, metrics, and decision
// orchestrator, then serves the routes in internal/httpapi.
//
// Grounded on the teacher's cmd/api/main.go (gin.Default, env-driven
// port, graceful fallback when optional directories are absent) --
// generalized from "serve battery backtest endpoints" to "serve the
// live power-shift control plane".
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
	"gridshift-gate/internal/httpapi"
	"gridshift-gate/internal/logging"
	"gridshift-gate/internal/metrics"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/orchestrator"
	"gridshift-gate/internal/persistence"
	"gridshift-gate/internal/tick"
	"gridshift-gate/internal/topology"
	"gridshift-gate/internal/trace"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional; defaults are used otherwise)")
	flag.Parse()

	cfg := &config.Config{}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		applyDefaultConfig(cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	config.ApplyEnvOverrides(cfg)

	log := logging.New(cfg.Server.LogLevel)
	accessLog := logging.NewAccessLogger(cfg.Server.LogLevel)

	thermalCfg := cfg.Thermal.ToModel()
	agingCfg := cfg.Aging.ToModel()

	var predictor contracts.HeadroomPredictor = contracts.NewFallbackHeadroomPredictor()
	var carbon contracts.CarbonSource = contracts.DeterministicCarbonSource{}

	ring := trace.NewRing()

	dbPath := cfg.Server.DatabaseURL
	if dbPath == "" {
		dbPath = "gridshift.db"
	}
	sink, err := persistence.Open(dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open persistence sink")
	}
	defer sink.Close()

	initialState := model.ThermalState{TC: cfg.Thermal.InitialTC, PCoolKW: cfg.Thermal.InitialPCoolKW}

	demoMgr := demo.NewManager()

	tickLoop := tick.NewLoop(initialState, cfg.Server.DemoSeed)
	tickLoop.Period = 1 * time.Second
	tickLoop.ThermalCfg = thermalCfg
	tickLoop.AgingCfg = agingCfg
	tickLoop.Predictor = predictor
	tickLoop.Carbon = carbon
	tickLoop.Demo = demoMgr
	tickLoop.BaseITLoadKW = 4000
	tickLoop.LoadJitterKW = 50
	tickLoop.Log = log

	orch := &orchestrator.Orchestrator{
		ThermalCfg:  thermalCfg,
		AgingCfg:    agingCfg,
		State:       initialState,
		Predictor:   predictor,
		Persistence: sink,
		Ring:        ring,
		Log:         log,
	}
	limits := orchestrator.DefaultLimits(thermalCfg.MaxExportKW, thermalCfg.MaxImportKW)

	topoProvider := topology.NewStaticProvider(
		1,
		map[int]string{1: "substation", 2: "feeder-a", 3: "feeder-b", 4: "rack-row-1", 5: "rack-row-2"},
		[][2]int{{1, 2}, {1, 3}, {2, 4}, {3, 5}},
	)

	metricsRegistry := metrics.New()

	app := &httpapi.App{
		Orchestrator: orch,
		Limits:       limits,
		Ring:         ring,
		Persistence:  sink,
		Tick:         tickLoop,
		Demo:         demoMgr,
		Topology:     topoProvider,
		Predictor:    predictor,
		Carbon:       carbon,
		Metrics:      metricsRegistry,
		Log:          log,
		AccessLog:    accessLog,
		ServerCfg:    cfg.Server,
	}
	router := httpapi.NewRouter(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tickLoop.Run(ctx)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.WithField("addr", addr).Info("starting gridshift-gate api server")

	srvErr := make(chan error, 1)
	go func() { srvErr <- router.Run(addr) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		log.WithError(err).Fatal("server stopped")
	case <-sig:
		log.Info("shutting down")
		cancel()
	}
}

func applyDefaultConfig(cfg *config.Config) {
	cfg.Thermal = config.ThermalConfig{
		KTransfer:        2.5,
		TMax:             45,
		TMin:             10,
		TAmbient:         28,
		TSetpoint:        24,
		TDeadband:        1.5,
		CoolingRampMaxKW: 300,
		CoolingCOP:       3.0,
		CoolingMinKW:     0,
		CoolingMaxKW:     2000,
		KpTempKWPerC:     150,
		CMassKJPerC:      50000,
		MaxExportKW:      3000,
		MaxImportKW:      3000,
	}
	cfg.Aging = config.AgingConfig{
		EaJPerMol:                 20000,
		RGasJPerMolK:              8.314,
		KAging:                    1e-6,
		MaxCapLossFracPerDecision: 0.0005,
		MaxTempForAgingC:          55,
	}
	cfg.Planner = config.PlannerConfig{HorizonS: 30, DtS: 1, RampRateKWPerS: 50}
	cfg.Server = config.ServerConfig{Port: 8080, LogLevel: "info", DemoSeed: 42}
}
