// Package httpapi wires the Gin HTTP surface named in spec §6.
// Grounded on the teacher's cmd/api/main.go router setup (gin.Default,
// middleware chain, grouped routes) and internal/api/handlers'
// constructor-holds-dependencies shape.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gridshift-gate/internal/config"
	"gridshift-gate/internal/contracts"
	"gridshift-gate/internal/demo"
	"gridshift-gate/internal/httpapi/middleware"
	"gridshift-gate/internal/metrics"
	"gridshift-gate/internal/orchestrator"
	"gridshift-gate/internal/tick"
	"gridshift-gate/internal/trace"
)

// App bundles every collaborator the HTTP handlers need.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Limits       orchestrator.Limits

	Ring        *trace.Ring
	Persistence contracts.PersistenceSink
	Tick        *tick.Loop
	Demo        *demo.Manager
	Topology    contracts.TopologyProvider
	Predictor   contracts.HeadroomPredictor
	Carbon      contracts.CarbonSource

	Metrics   *metrics.Metrics
	Log       *logrus.Logger
	AccessLog *logrus.Logger

	ServerCfg config.ServerConfig

	explainMu       sync.Mutex
	lastExplainCall time.Time
}

// NewRouter builds the full Gin engine.
func NewRouter(app *App) *gin.Engine {
	if app.ServerCfg.LogLevel != "" && gin.Mode() != gin.ReleaseMode && app.ServerCfg.DemoMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(app.ServerCfg.AllowedOrigins))
	router.Use(middleware.RequestLogger(app.AccessLog))
	if app.Metrics != nil {
		router.Use(app.metricsMiddleware())
	}

	router.GET("/health", app.handleHealth)
	router.GET("/decision/latest", app.handleDecisionLatest)
	router.GET("/decision/recent", app.handleDecisionRecent)
	router.GET("/telemetry/timeseries", app.handleTelemetryTimeseries)
	router.GET("/telemetry/latest", app.handleTelemetryLatest)
	router.GET("/telemetry/stream", app.handleTelemetryStream)
	router.GET("/ws/telemetry", app.handleTelemetryWS)
	router.GET("/trace/latest", app.handleTraceLatest)
	router.GET("/kpi/summary", app.handleKPISummary)
	router.GET("/grid/topology", app.handleGridTopology)
	router.GET("/grid/predict", app.handleGridPredict)
	router.POST("/explain/decision", app.handleExplainDecision)

	demoGroup := router.Group("/demo")
	demoGroup.Use(app.requireDemoMode)
	{
		demoGroup.POST("/scenario/:name", app.handleDemoScenario)
		demoGroup.POST("/reset", app.handleDemoReset)
		demoGroup.GET("/logs/tail", app.handleDemoLogsTail)
	}

	if app.Metrics != nil {
		router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	}

	return router
}

func (a *App) requireDemoMode(c *gin.Context) {
	if !a.ServerCfg.DemoMode {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "demo mode disabled"}})
		c.Abort()
		return
	}
	c.Next()
}

func (a *App) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		statusClass := statusClassOf(c.Writer.Status())
		a.Metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusClass).Inc()
	}
}

func statusClassOf(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func (a *App) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ts": time.Now().UTC()})
}
