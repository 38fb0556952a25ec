package httpapi

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/ferrors"
)

type analyzeRequest struct {
	Service string `json:"service"`
	Trigger string `json:"trigger"`
}

// analyzeHandler handles POST /api/agent/analyze.
func (s *Server) analyzeHandler(c *echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Service == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service is required")
	}
	if req.Trigger == "" {
		req.Trigger = "manual"
	}

	start := time.Now()
	report, err := s.orchestrator.AnalyzeService(c.Request().Context(), req.Service, req.Trigger)
	if s.obs != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.obs.RecordAnalysis(req.Trigger, status, time.Since(start))
	}
	if err != nil {
		return ferrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, report)
}

type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// chatHandler handles POST /api/agent/chat, streaming `{type, content}`
// frames as SSE (spec §6).
func (s *Server) chatHandler(c *echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	frames, err := s.orchestrator.Chat(c.Request().Context(), req.Message, req.Context)
	if err != nil {
		return ferrors.ToHTTP(err)
	}

	stream, err := newSSEWriter(c)
	if err != nil {
		return err
	}
	for frame := range frames {
		if writeErr := stream.writeJSON(frame); writeErr != nil {
			s.log.Warn("chat sse write failed, client likely disconnected", "error", writeErr)
			return nil
		}
	}
	return nil
}

// activityHandler handles GET /api/agent/activity?since_id=&limit=.
func (s *Server) activityHandler(c *echo.Context) error {
	sinceID, _ := strconv.ParseInt(c.QueryParam("since_id"), 10, 64)
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	entries := s.activityLog.Since(sinceID, limit)
	return c.JSON(http.StatusOK, map[string]any{
		"activity": entries,
		"count":    len(entries),
	})
}

type serviceHealthRow struct {
	Service      string  `json:"service"`
	HealthScore  int     `json:"health_score"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	UpdatedAt    string  `json:"updated_at"`
}

// agentHealthHandler handles GET /api/agent/health.
func (s *Server) agentHealthHandler(c *echo.Context) error {
	ctx := c.Request().Context()
	names, err := s.graph.ListServices(ctx)
	if err != nil {
		return ferrors.ToHTTP(err)
	}

	rows := make([]serviceHealthRow, 0, len(names))
	for _, name := range names {
		health, err := s.graph.ServiceHealth(ctx, name)
		if err != nil {
			s.log.Warn("agent health: service lookup failed", "service", name, "error", err)
			continue
		}
		rows = append(rows, serviceHealthRow{
			Service:      name,
			HealthScore:  health.HealthScore,
			AvgLatencyMs: health.AvgLatencyMs,
			P99LatencyMs: health.P99LatencyMs,
			UpdatedAt:    health.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"services":  rows,
		"timestamp": nowRFC3339(),
	})
}
