package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gridshift-gate/internal/httpapi/middleware"
	"gridshift-gate/internal/telemetry"
	"gridshift-gate/internal/trace"
)

func (a *App) buildSeriesRequest(c *gin.Context) telemetry.Request {
	windowS := queryInt(c, "window_s", 300)
	mode := telemetry.Mode(c.DefaultQuery("mode", "live"))

	endTS := time.Now().UTC()
	if raw := c.Query("end_ts"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			endTS = parsed
		}
	}

	return telemetry.Request{
		WindowS:      windowS,
		EndTS:        endTS,
		Mode:         mode,
		DemoSeed:     a.ServerCfg.DemoSeed,
		ThermalCfg:   a.Tick.ThermalCfg,
		ThermalState: a.Tick.State(),
		Predictor:    a.Predictor,
		Carbon:       a.Carbon,
		Demo:         a.Demo,
	}
}

// handleTelemetryTimeseries returns the C7 lookback series, downsampled
// to at most 240 points.
func (a *App) handleTelemetryTimeseries(c *gin.Context) {
	series := telemetry.GenerateSeries(a.buildSeriesRequest(c))
	c.JSON(http.StatusOK, gin.H{"points": telemetry.Downsample(series, 240)})
}

// handleTelemetryLatest returns the tick loop's point-in-time cache.
func (a *App) handleTelemetryLatest(c *gin.Context) {
	point := a.Tick.Latest()
	if point == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"code": "NOT_READY", "message": "no telemetry sample yet"}})
		return
	}
	c.JSON(http.StatusOK, point)
}

// handleTelemetryStream serves a Server-Sent Events feed of the latest
// telemetry cache, one event per second.
func (a *App) handleTelemetryStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	c.Stream(func(w gin.ResponseWriter) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			point := a.Tick.Latest()
			if point == nil {
				return true
			}
			c.SSEvent("telemetry", point)
			return true
		}
	})
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleTelemetryWS upgrades to a websocket and pushes the latest
// telemetry cache once per second until the client disconnects.
func (a *App) handleTelemetryWS(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.WithError(err).Warn("telemetry websocket upgrade failed")
		middleware.InputError(c, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		point := a.Tick.Latest()
		if point == nil {
			continue
		}
		if err := conn.WriteJSON(point); err != nil {
			return
		}
	}
}

// handleTraceLatest returns the most recent trace ring events.
func (a *App) handleTraceLatest(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	c.JSON(http.StatusOK, gin.H{"events": a.Ring.Tail(limit)})
}

// handleKPISummary computes the windowed KPI roll-up over the ring.
func (a *App) handleKPISummary(c *gin.Context) {
	windowS := queryInt(c, "window_s", 3600)
	if windowS < 60 {
		windowS = 60
	}
	if windowS > 3600 {
		windowS = 3600
	}
	summary := trace.Summarize(a.Ring.Snapshot(), time.Now().UTC(), windowS)
	c.JSON(http.StatusOK, summary)
}

func fmtNodeNotFound(nodeID int) string {
	return fmt.Sprintf("unknown node_id %d", nodeID)
}
