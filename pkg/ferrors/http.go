package ferrors

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// ToHTTP maps a Forge error to an Echo HTTP error per the propagation policy:
// Storage is 5xx, Graph/Metrics/Remediation/Validation propagate with detail,
// NotFound is 404. LLM errors should never reach this mapper — the
// orchestrator recovers them internally — but a stray one degrades to 500
// rather than panicking.
func ToHTTP(err error) *echo.HTTPError {
	var fe *Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case KindNotFound:
			return echo.NewHTTPError(http.StatusNotFound, fe.Error())
		case KindStorage:
			return echo.NewHTTPError(http.StatusInternalServerError, fe.Error())
		case KindGraph, KindMetrics, KindRemediation, KindValidation:
			return echo.NewHTTPError(http.StatusBadGateway, fe.Error())
		case KindConfig:
			return echo.NewHTTPError(http.StatusInternalServerError, fe.Error())
		case KindLLM:
			slog.Error("llm error reached HTTP surface, should have been recovered", "error", fe)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	slog.Error("unmapped error reached HTTP surface", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
