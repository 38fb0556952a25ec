package httpapi

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/store"
)

type deployHookRequest struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// hookDeployHandler handles POST /api/hooks/deploy: records the deployment
// on the graph, then kicks off an asynchronous analysis + insight pass for
// the deployed service, mirroring a CI/CD pipeline's post-deploy webhook.
func (s *Server) hookDeployHandler(c *echo.Context) error {
	var req deployHookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Service == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service is required")
	}
	if req.Status == "" {
		req.Status = "success"
	}

	ctx := c.Request().Context()
	if err := s.graph.WriteMetrics(ctx, req.Service, map[string]any{
		"last_deploy_version": req.Version,
		"last_deploy_status":  req.Status,
		"last_deploy_at":      time.Now().UTC(),
	}); err != nil {
		s.log.Warn("hooks: failed to record deployment", "service", req.Service, "error", err)
	}

	go s.analyzeAfterDeploy(req.Service)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "deploy_recorded",
		"service": req.Service,
	})
}

// analyzeAfterDeploy runs in the background so the webhook caller (a
// deploy pipeline) doesn't block on a full analysis + insight cycle.
func (s *Server) analyzeAfterDeploy(service string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.orchestrator.AnalyzeService(ctx, service, "post_deploy"); err != nil {
		s.log.Warn("hooks: post-deploy analysis failed", "service", service, "error", err)
		return
	}
	if _, err := s.orchestrator.GenerateInsights(ctx, &service); err != nil {
		s.log.Warn("hooks: post-deploy insight generation failed", "service", service, "error", err)
	}
}

type datadogSyncRequest struct {
	Services []string `json:"services"`
}

// hookDatadogSyncHandler handles POST /api/hooks/datadog-sync: pulls the
// current live metrics snapshot for each named service (or every known
// service when none are named), writes it back onto the graph as the new
// baseline, and auto-opens a reliability insight for anything unhealthy.
func (s *Server) hookDatadogSyncHandler(c *echo.Context) error {
	var req datadogSyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	services := req.Services
	if len(services) == 0 {
		names, err := s.graph.ListServices(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		services = names
	}

	synced := make([]string, 0, len(services))
	insightsOpened := 0
	for _, svc := range services {
		live, err := s.metrics.LiveMetricsForService(ctx, svc)
		if err != nil {
			s.log.Warn("hooks: datadog sync failed for service", "service", svc, "error", err)
			continue
		}

		fields := map[string]any{
			"p99_latency_ms":    live.P99LatencyMs,
			"avg_latency_ms":    live.AvgLatencyMs,
			"health_score":      live.HealthScore,
			"cpu_usage_percent": live.CPUUsagePercent,
			"mem_usage_percent": live.MemUsagePercent,
		}
		if err := s.graph.WriteMetrics(ctx, svc, fields); err != nil {
			s.log.Warn("hooks: failed to write synced metrics", "service", svc, "error", err)
			continue
		}
		if err := s.store.UpdateBaseline(svc, fields); err != nil {
			s.log.Warn("hooks: failed to update baseline", "service", svc, "error", err)
		}
		synced = append(synced, svc)

		if live.HealthScore < 60 || live.P99LatencyMs > 1000 {
			_, err := s.store.AddInsight(svc, store.Insight{
				Category:       "reliability",
				Severity:       "high",
				Title:          "Datadog sync detected degraded service health",
				Insight:        "Synced metrics show health below threshold for " + svc,
				Evidence:       "health_score and p99_latency_ms pulled from live metrics",
				Recommendation: "Investigate recent deploys and dependency latency",
				Status:         "open",
				Timestamp:      time.Now().UTC(),
			})
			if err != nil {
				s.log.Warn("hooks: failed to auto-create insight", "service", svc, "error", err)
			} else {
				insightsOpened++
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":          "synced",
		"services_synced": synced,
		"insights_opened": insightsOpened,
	})
}

type scaleHookRequest struct {
	Service                  string `json:"service"`
	Cluster                  string `json:"cluster"`
	Direction                string `json:"direction"`
	InstanceCount            int    `json:"instance_count"`
	Reason                   string `json:"reason"`
	RunStabilityTest         bool   `json:"run_stability_test"`
	StabilizationWaitSeconds int    `json:"stabilization_wait_seconds"`
}

// hookScaleHandler handles POST /api/hooks/scale: a full scale-and-validate
// pipeline triggered by an external autoscaler webhook. Scales the service,
// journals the action, and — when requested — runs a two-phase stability
// check, auto-opening a high-severity insight if the network proves
// unstable after the change.
func (s *Server) hookScaleHandler(c *echo.Context) error {
	var req scaleHookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Service == "" || req.Direction == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service and direction are required")
	}
	if req.Cluster == "" {
		req.Cluster = "default"
	}
	if req.Reason == "" {
		req.Reason = "external autoscaler webhook"
	}

	ctx := c.Request().Context()
	result, err := s.remediation.ScaleService(ctx, req.Cluster, req.Service, req.InstanceCount, req.Reason)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	status := "succeeded"
	if !result.Succeeded {
		status = "failed"
	}
	action := s.actionLog.Record(actionlog.Action{
		ActionType: "scale_ecs",
		Service:    req.Service,
		Reason:     req.Reason,
		Status:     status,
		Detail:     result.Detail,
	})
	if s.obs != nil {
		s.obs.RecordRemediationAction("scale_ecs", status)
	}

	resp := map[string]any{
		"status": "scale_executed",
		"action": action,
	}

	if req.RunStabilityTest {
		waitSec := req.StabilizationWaitSeconds
		if waitSec <= 0 {
			waitSec = 10
		}
		before := 1
		after := req.InstanceCount
		stability, err := s.validation.ValidateScaleStability(ctx, req.Service, req.Direction, before, after, waitSec, "")
		if err != nil {
			s.log.Warn("hooks: scale stability check failed", "service", req.Service, "error", err)
		} else {
			if s.obs != nil {
				validationStatus := "passed"
				if !stability.NetworkStable {
					validationStatus = "failed"
				}
				s.obs.RecordValidation(validationStatus)
			}
			resp["validation"] = stability
			if !stability.NetworkStable {
				_, err := s.store.AddInsight(req.Service, store.Insight{
					Category:       "reliability",
					Severity:       "high",
					Title:          "Scale operation left network unstable",
					Insight:        "Post-scale validation failed to confirm stability for " + req.Service,
					Evidence:       "phase_1_pre_scale/phase_2_post_scale latency comparison",
					Recommendation: "Review recent scale event and consider rollback",
					Status:         "open",
					Timestamp:      time.Now().UTC(),
				})
				if err != nil {
					s.log.Warn("hooks: failed to auto-create insight", "service", req.Service, "error", err)
				}
			}
		}
	}

	return c.JSON(http.StatusOK, resp)
}
