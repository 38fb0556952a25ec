package httpapi

import (
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"
)

// metricsMiddleware records every request's duration and outcome against
// obsmetrics, keyed by the matched route path (not the raw URL) so
// path-parameter values don't explode the label cardinality.
func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		s.obs.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
