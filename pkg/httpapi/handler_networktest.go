package httpapi

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/networktest"
)

// networkTestStrategiesHandler handles GET /api/network-test/strategies.
func (s *Server) networkTestStrategiesHandler(c *echo.Context) error {
	strategies := s.netEngine.GenerateStrategies()
	return c.JSON(http.StatusOK, map[string]any{"strategies": strategies, "count": len(strategies)})
}

type networkTestRunRequest struct {
	StrategyIDs []string `json:"strategy_ids"`
}

// networkTestRunHandler handles POST /api/network-test/run. The whole suite
// runs first and the report is then written as one JSON response; results
// are not streamed to the client strategy by strategy.
func (s *Server) networkTestRunHandler(c *echo.Context) error {
	var req networkTestRunRequest
	_ = c.Bind(&req) // empty body means "run everything"

	report, err := s.netEngine.RunTests(c.Request().Context(), req.StrategyIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if s.obs != nil {
		s.obs.RecordNetworkTestRun(report.OverallStatus)
	}

	s.netResultsMu.Lock()
	s.netResults = append(s.netResults, report)
	if len(s.netResults) > networkTestHistorySize {
		s.netResults = s.netResults[len(s.netResults)-networkTestHistorySize:]
	}
	s.netResultsMu.Unlock()

	return c.JSON(http.StatusOK, report)
}

// networkTestResultsHandler handles GET /api/network-test/results.
func (s *Server) networkTestResultsHandler(c *echo.Context) error {
	s.netResultsMu.Lock()
	results := make([]networktest.Report, len(s.netResults))
	copy(results, s.netResults)
	s.netResultsMu.Unlock()

	var latest *networktest.Report
	if len(results) > 0 {
		latest = &results[len(results)-1]
	}
	return c.JSON(http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
		"latest":  latest,
	})
}
