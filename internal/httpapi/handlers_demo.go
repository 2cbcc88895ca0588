package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gridshift-gate/internal/httpapi/middleware"
)

type demoScenarioRequest struct {
	Speed float64 `json:"speed"`
	Seed  int64   `json:"seed"`
}

// handleDemoScenario starts a named overlay scenario (heat_wave or
// price_spike). Gated on DEMO_MODE by the router's demo group.
func (a *App) handleDemoScenario(c *gin.Context) {
	name := c.Param("name")

	var body demoScenarioRequest
	_ = c.ShouldBindJSON(&body)
	if body.Speed == 0 {
		body.Speed = 1
	}
	if body.Seed == 0 {
		body.Seed = a.ServerCfg.DemoSeed
	}

	if err := a.Demo.Start(name, body.Speed, body.Seed, time.Now().UTC()); err != nil {
		middleware.InputError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": a.Demo.Active()})
}

// handleDemoReset clears the active scenario and its narrative log.
func (a *App) handleDemoReset(c *gin.Context) {
	a.Demo.Reset()
	c.JSON(http.StatusOK, gin.H{"active": ""})
}

// handleDemoLogsTail returns the most recent narrative log lines.
func (a *App) handleDemoLogsTail(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	c.JSON(http.StatusOK, gin.H{"lines": a.Demo.LogTail(limit)})
}
