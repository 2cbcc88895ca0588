// Command gatectl is a Cobra-based offline decision runner: it loads a
// YAML config, constructs a synthetic thermal state, issues one
// decide() call against the orchestrator, and prints the resulting
// RampPlan/trace as JSON or a human table. It also exposes the
// persisted-decision coalescing logic for offline audit.
//
// Grounded on inference-sim-inference-sim/cmd/root.go's rootCmd/runCmd
// split (one binary, one verb-named subcommand, flags bound in init)
// and the teacher's cmd/cli/main.go "backtest"/"rank" subcommand shape.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gridshift-gate/internal/config"
	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/logging"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/orchestrator"
	"gridshift-gate/internal/persistence"
	"gridshift-gate/internal/trace"
)

var (
	cfgPath        string
	deltaPRequest  float64
	pSiteKW        float64
	horizonS       float64
	dtS            float64
	rampRateKWPerS float64
	asJSON         bool
	dbPath         string
	recentLimit    int
	coalesceWindow int
)

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "Offline decision runner and audit CLI for the power-shift gate",
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Issue one offline decide() call and print the plan/trace",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New("info")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load config")
		}

		thermalCfg := cfg.Thermal.ToModel()
		agingCfg := cfg.Aging.ToModel()
		state := model.ThermalState{TC: cfg.Thermal.InitialTC, PCoolKW: cfg.Thermal.InitialPCoolKW}

		orch := &orchestrator.Orchestrator{
			ThermalCfg:  thermalCfg,
			AgingCfg:    agingCfg,
			State:       state,
			Predictor:   contracts.NewFallbackHeadroomPredictor(),
			Persistence: noopSink{},
			Ring:        trace.NewRing(),
			Log:         log,
		}
		limits := orchestrator.DefaultLimits(thermalCfg.MaxExportKW, thermalCfg.MaxImportKW)

		req := orchestrator.Request{
			DeltaPRequestKW: deltaPRequest,
			PSiteKW:         pSiteKW,
			HorizonS:        horizonS,
			DtS:             dtS,
			RampRateKWPerS:  rampRateKWPerS,
		}

		outcome := orch.Decide(req, limits)
		printOutcome(outcome)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print coalesced recently-persisted decisions",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New("info")
		sink, err := persistence.Open(dbPath)
		if err != nil {
			log.WithError(err).Fatal("failed to open persistence sink")
		}
		defer sink.Close()

		rows, err := sink.Recent(recentLimit)
		if err != nil {
			log.WithError(err).Fatal("failed to read recent decisions")
		}

		coalesced := persistence.Coalesce(rows, coalesceWindow)
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(coalesced)
			return
		}
		for _, row := range coalesced {
			fmt.Printf("%s  req=%8.1fkW  approved=%8.1fkW  blocked=%-5v  reason=%-28s  x%d\n",
				row.TS.Format("2006-01-02 15:04:05"), row.RequestedDeltaPKW, row.ApprovedDeltaPKW, row.Blocked, row.ReasonCode, row.Count)
		}
	},
}

func printOutcome(outcome model.DecideOutcome) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(outcome)
		return
	}

	if outcome.Kind == model.OutcomeInputError {
		fmt.Printf("input error: %s\n", outcome.InputErrorMessage)
		return
	}

	fmt.Printf("decision_id=%s blocked=%v approved=%.1fkW confidence=%.2f\n",
		outcome.Record.DecisionID, outcome.Plan.Blocked, outcome.Plan.ApprovedDeltaPKW, outcome.Record.Confidence)
	for _, step := range outcome.Plan.Steps {
		fmt.Printf("  t=%5.1fs  delta=%8.1fkW  rack_temp=%6.2fC  ok=%v  %s\n",
			step.TOffsetS, step.ProposedDeltaPKW, step.RackTempC, step.ThermalOK, step.Reason)
	}
}

// noopSink discards decisions when running gatectl without a database,
// so an offline decide() call never needs a wired persistence layer.
type noopSink struct{}

func (noopSink) Append(model.DecisionRecord, []model.TraceEvent) error { return nil }
func (noopSink) Recent(int) ([]model.DecisionRecord, error)            { return nil, nil }
func (noopSink) TraceFor(string) ([]model.TraceEvent, error)           { return nil, nil }

func init() {
	decideCmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config (required)")
	decideCmd.Flags().Float64Var(&deltaPRequest, "delta-p", 500, "Requested power shift, kW (signed: positive=export)")
	decideCmd.Flags().Float64Var(&pSiteKW, "p-site", 4000, "Current site IT load, kW")
	decideCmd.Flags().Float64Var(&horizonS, "horizon", 30, "Look-ahead horizon, seconds")
	decideCmd.Flags().Float64Var(&dtS, "dt", 1, "Simulation step size, seconds")
	decideCmd.Flags().Float64Var(&rampRateKWPerS, "ramp-rate", 50, "Ramp rate limit, kW/s")
	decideCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a human table")
	_ = decideCmd.MarkFlagRequired("config")

	recentCmd.Flags().StringVar(&dbPath, "db", "gridshift.db", "Path to the sqlite persistence database")
	recentCmd.Flags().IntVar(&recentLimit, "limit", 50, "Number of rows to fetch before coalescing")
	recentCmd.Flags().IntVar(&coalesceWindow, "window-s", 30, "Coalescing window, seconds")
	recentCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a human table")

	rootCmd.AddCommand(decideCmd, recentCmd)
}

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
