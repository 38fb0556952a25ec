package httpapi

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/ferrors"
	"github.com/forge-sre/forge/pkg/store"
)

// listInsightsHandler handles GET /api/insights/?status=&severity=&category=.
func (s *Server) listInsightsHandler(c *echo.Context) error {
	status := c.QueryParam("status")
	severity := c.QueryParam("severity")
	category := c.QueryParam("category")

	results := s.store.GetAllInsights(status)
	filtered := make([]store.InsightView, 0, len(results))
	for _, in := range results {
		if severity != "" && in.Severity != severity {
			continue
		}
		if category != "" && in.Category != category {
			continue
		}
		filtered = append(filtered, in)
	}
	return c.JSON(http.StatusOK, map[string]any{"insights": filtered, "count": len(filtered)})
}

// listPatternsHandler handles GET /api/insights/patterns.
func (s *Server) listPatternsHandler(c *echo.Context) error {
	patterns := s.store.GetAllPatterns()
	return c.JSON(http.StatusOK, map[string]any{"patterns": patterns, "count": len(patterns)})
}

// recommendationsHandler handles GET /api/insights/recommendations.
func (s *Server) recommendationsHandler(c *echo.Context) error {
	recs := s.store.GetRecommendations()
	return c.JSON(http.StatusOK, map[string]any{"recommendations": recs, "count": len(recs)})
}

// serviceMemoryHandler handles GET /api/insights/{service}.
func (s *Server) serviceMemoryHandler(c *echo.Context) error {
	service := c.Param("service")
	mem, err := s.store.GetServiceMemory(service)
	if err != nil {
		return ferrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, mem)
}

type generateInsightsRequest struct {
	ServiceName *string `json:"service_name"`
}

// generateInsightsHandler handles POST /api/insights/generate.
func (s *Server) generateInsightsHandler(c *echo.Context) error {
	var req generateInsightsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.orchestrator.GenerateInsights(c.Request().Context(), req.ServiceName)
	if err != nil {
		return ferrors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, result)
}

type patchInsightRequest struct {
	Status string `json:"status"`
}

var validInsightStatuses = map[string]bool{"open": true, "acknowledged": true, "resolved": true}

// patchInsightHandler handles PATCH /api/insights/{id}.
func (s *Server) patchInsightHandler(c *echo.Context) error {
	id := c.Param("id")
	var req patchInsightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !validInsightStatuses[req.Status] {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be one of open, acknowledged, resolved")
	}

	found, err := s.store.UpdateInsightStatus(id, req.Status)
	if err != nil {
		return ferrors.ToHTTP(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "insight not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "status": req.Status})
}
