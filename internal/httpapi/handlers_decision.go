package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gridshift-gate/internal/httpapi/middleware"
	"gridshift-gate/internal/model"
	"gridshift-gate/internal/orchestrator"
	"gridshift-gate/internal/persistence"
)

type decideRequest struct {
	DeltaPRequestKW      float64  `json:"deltaP_request_kw" form:"deltaP_request_kw" binding:"required"`
	PSiteKW              float64  `json:"p_site_kw" form:"P_site_kw"`
	GridHeadroomOverride *float64 `json:"grid_headroom_override_kw" form:"grid_headroom_kw"`
	HorizonS             float64  `json:"horizon_s" form:"horizon_s"`
	DtS                  float64  `json:"dt_s" form:"dt_s"`
	RampRateKWPerS       float64  `json:"ramp_rate_kw_per_s" form:"ramp_rate_kw_per_s"`
}

// handleDecisionLatest runs one decision, read from the query string,
// against the orchestrator's thermal state and returns it; there is no
// separate "latest decision" cache distinct from running one (spec §6).
// The orchestrator's ThermalState is its own copy, separate from the
// tick loop's twin: tick-loop steps do not reach it, and a step-0
// commit does not reach the tick loop.
func (a *App) handleDecisionLatest(c *gin.Context) {
	var body decideRequest
	if err := c.ShouldBindQuery(&body); err != nil {
		middleware.InputError(c, err.Error())
		return
	}

	req := orchestrator.Request{
		DeltaPRequestKW:      body.DeltaPRequestKW,
		PSiteKW:              body.PSiteKW,
		GridHeadroomOverride: body.GridHeadroomOverride,
		HorizonS:             body.HorizonS,
		DtS:                  body.DtS,
		RampRateKWPerS:       body.RampRateKWPerS,
	}
	if req.HorizonS == 0 {
		req.HorizonS = 30
	}
	if req.DtS == 0 {
		req.DtS = 1
	}
	if req.RampRateKWPerS == 0 {
		req.RampRateKWPerS = 50
	}

	outcome := a.Orchestrator.Decide(req, a.Limits)

	if a.Metrics != nil {
		a.Metrics.DecisionsTotal.WithLabelValues(string(outcome.Kind)).Inc()
		if outcome.Plan != nil && outcome.Plan.Blocked {
			a.Metrics.BlockedByRule.WithLabelValues(string(outcome.Plan.Reason), string(outcome.Plan.PrimaryConstraint)).Inc()
		}
		if a.Ring != nil {
			a.Metrics.RingOccupancy.Set(float64(a.Ring.Occupancy()))
		}
	}

	if outcome.Kind == model.OutcomeInputError {
		middleware.InputError(c, outcome.InputErrorMessage)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// handleDecisionRecent returns persisted decisions, optionally coalesced.
func (a *App) handleDecisionRecent(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	coalesce := c.Query("coalesce") == "true" || c.Query("coalesce") == "1"
	windowS := queryInt(c, "window_s", 30)

	rows, err := a.Persistence.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"code": "INTERNAL_ERROR", "message": err.Error()}})
		return
	}

	if !coalesce {
		c.JSON(http.StatusOK, gin.H{"decisions": rows})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": persistence.Coalesce(rows, windowS)})
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
