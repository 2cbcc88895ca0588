package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/httpapi/middleware"
	"gridshift-gate/internal/model"
)

// handleGridTopology returns the static BFS-laid-out grid graph.
func (a *App) handleGridTopology(c *gin.Context) {
	if a.Topology == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"code": "NOT_READY", "message": "no topology provider wired"}})
		return
	}
	c.JSON(http.StatusOK, a.Topology.Topology())
}

// handleGridPredict estimates a single node's safe-shift headroom by
// invoking the predictor with the site-wide GraphState built from the
// tick loop's thermal state and latest telemetry; node_id is only
// checked against the topology. Falls back to a rack-temperature
// schedule (1200 kW, or 800 kW above 30 °C), with Confidence 0 and
// ReasonCode "FALLBACK", when the predictor is not ready or errors.
func (a *App) handleGridPredict(c *gin.Context) {
	raw := c.Query("node_id")
	nodeID, err := strconv.Atoi(raw)
	if err != nil {
		middleware.InputError(c, "node_id must be an integer")
		return
	}
	if a.Topology != nil && !nodeExists(a.Topology.Topology(), nodeID) {
		middleware.InputError(c, fmtNodeNotFound(nodeID))
		return
	}

	state := a.Tick.State()
	latest := a.Tick.Latest()
	gs := contracts.GraphState{TS: time.Now().UTC(), RackTempC: state.TC, CoolingKW: state.PCoolKW}
	if latest != nil {
		gs.SiteLoadKW = latest.TotalLoadKW
		gs.GridFreqHz = latest.GridFrequencyHz
	}

	pred := model.NodePrediction{NodeID: nodeID}
	if a.Predictor != nil && a.Predictor.Ready() {
		kw, perr := a.Predictor.Predict(gs)
		if perr == nil {
			pred.SafeShiftKW = kw
			pred.Confidence = 0.75
			pred.ReasonCode = "GNN"
			c.JSON(http.StatusOK, pred)
			return
		}
		a.Log.WithError(perr).Warn("grid predictor errored, falling back")
	}

	pred.SafeShiftKW = fallbackSafeShiftKW(state.TC)
	pred.Confidence = 0
	pred.ReasonCode = "FALLBACK"
	c.JSON(http.StatusOK, pred)
}

func fallbackSafeShiftKW(tc float64) float64 {
	if tc > 30 {
		return 800
	}
	return 1200
}

func nodeExists(topo model.Topology, id int) bool {
	for _, n := range topo.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
