// Package httpapi is the HTTP Surface (spec §4.H): a thin request/response
// layer over the Agent Orchestrator, Network Test Engine, Cluster
// Coordinator, and Knowledge Store. It owns no domain state of its own —
// every handler delegates to a collaborator and maps its error into an
// HTTP response.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/activity"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/agent"
	"github.com/forge-sre/forge/pkg/cluster"
	"github.com/forge-sre/forge/pkg/config"
	"github.com/forge-sre/forge/pkg/networktest"
	"github.com/forge-sre/forge/pkg/obsmetrics"
	"github.com/forge-sre/forge/pkg/store"
	"github.com/forge-sre/forge/pkg/version"
)

// networkTestHistorySize bounds how many past network-test reports the
// server keeps in memory for GET /api/network-test/results.
const networkTestHistorySize = 20

// Server is the HTTP API server: constructed once at startup with every
// collaborator wired in, mirroring the rest of Forge's no-package-globals
// discipline.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	store        *store.Store
	activityLog  *activity.Log
	actionLog    *actionlog.Log
	orchestrator *agent.Orchestrator
	netEngine    *networktest.Engine
	coordinator  *cluster.Coordinator

	graph       adapters.GraphAdapter
	metrics     adapters.MetricsAdapter
	remediation adapters.RemediationAdapter
	validation  adapters.ValidationAdapter

	demo *config.DemoConfig
	obs  *obsmetrics.Metrics

	netResultsMu sync.Mutex
	netResults   []networktest.Report

	log *slog.Logger
}

// NewServer builds a Server and registers every route. obs may be nil (no
// metrics recorded, and /metrics is not registered) — used by tests that
// don't care about instrumentation.
func NewServer(
	st *store.Store,
	activityLog *activity.Log,
	actionLog *actionlog.Log,
	orchestrator *agent.Orchestrator,
	netEngine *networktest.Engine,
	coordinator *cluster.Coordinator,
	graph adapters.GraphAdapter,
	metrics adapters.MetricsAdapter,
	remediation adapters.RemediationAdapter,
	validation adapters.ValidationAdapter,
	demo *config.DemoConfig,
	obs *obsmetrics.Metrics,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		store:        st,
		activityLog:  activityLog,
		actionLog:    actionLog,
		orchestrator: orchestrator,
		netEngine:    netEngine,
		coordinator:  coordinator,
		graph:        graph,
		metrics:      metrics,
		remediation:  remediation,
		validation:   validation,
		demo:         demo,
		obs:          obs,
		log:          slog.Default().With("component", "httpapi"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers every endpoint from spec §6.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(middleware.CORS())
	if s.obs != nil {
		s.echo.Use(s.metricsMiddleware)
	}

	s.echo.GET("/health", s.healthHandler)
	if s.obs != nil {
		handler := s.obs.Handler()
		s.echo.GET("/metrics", func(c *echo.Context) error {
			handler.ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}

	a := s.echo.Group("/api/agent")
	a.POST("/analyze", s.analyzeHandler)
	a.POST("/chat", s.chatHandler)
	a.GET("/activity", s.activityHandler)
	a.GET("/health", s.agentHealthHandler)

	g := s.echo.Group("/api/graph")
	g.GET("/", s.graphHandler)
	g.GET("/service/:name", s.graphServiceHandler)

	in := s.echo.Group("/api/insights")
	in.GET("/", s.listInsightsHandler)
	in.GET("/patterns", s.listPatternsHandler)
	in.GET("/recommendations", s.recommendationsHandler)
	in.POST("/generate", s.generateInsightsHandler)
	in.PATCH("/:id", s.patchInsightHandler)
	in.GET("/:service", s.serviceMemoryHandler)

	cl := s.echo.Group("/api/cluster")
	cl.GET("/status", s.clusterStatusHandler)
	cl.POST("/tick", s.clusterTickHandler)
	cl.POST("/enqueue", s.clusterEnqueueHandler)
	cl.POST("/simulate-load", s.clusterSimulateLoadHandler)
	cl.POST("/validate", s.clusterValidateHandler)
	cl.GET("/validations", s.clusterValidationsHandler)
	cl.POST("/complete/:id", s.clusterCompleteHandler)
	cl.GET("/events", s.clusterEventsHandler)
	cl.GET("/report", s.clusterReportHandler)
	cl.POST("/scale", s.clusterScaleHandler)

	nt := s.echo.Group("/api/network-test")
	nt.GET("/strategies", s.networkTestStrategiesHandler)
	nt.POST("/run", s.networkTestRunHandler)
	nt.GET("/results", s.networkTestResultsHandler)

	h := s.echo.Group("/api/hooks")
	h.POST("/deploy", s.hookDeployHandler)
	h.POST("/datadog-sync", s.hookDatadogSyncHandler)
	h.POST("/scale", s.hookScaleHandler)
}

// Start begins serving on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	s.log.Info("http surface listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version.Full()})
}
