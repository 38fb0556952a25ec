package httpapi

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/cluster"
)

// clusterStatusHandler handles GET /api/cluster/status.
func (s *Server) clusterStatusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.coordinator.GetStatus())
}

// clusterTickHandler handles POST /api/cluster/tick: runs one MAPE-K
// iteration, then runs any validation it armed.
func (s *Server) clusterTickHandler(c *echo.Context) error {
	result := s.coordinator.Tick()
	s.recordTickMetrics(result)

	out := map[string]any{
		"timestamp": result.Timestamp,
		"metrics":   result.Metrics,
		"action":    result.Action,
		"replicas":  result.Replicas,
	}
	if validation, err := s.coordinator.RunPendingValidation(c.Request().Context()); err != nil {
		s.log.Warn("post-tick validation failed", "error", err)
	} else if validation != nil {
		s.recordValidation(validation)
		out["validation"] = validation
	}
	return c.JSON(http.StatusOK, out)
}

// recordTickMetrics mirrors one Tick result into obsmetrics: always
// refreshes the replica/queue gauges, and additionally counts a scale
// event when the tick actually scaled.
func (s *Server) recordTickMetrics(result cluster.TickResult) {
	if s.obs == nil {
		return
	}
	status := s.coordinator.GetStatus()
	switch result.Action {
	case "scale_up":
		s.obs.RecordScaleEvent("up", "tick", status.TotalReplicas, status.PendingWorkItems)
	case "scale_down":
		s.obs.RecordScaleEvent("down", "tick", status.TotalReplicas, status.PendingWorkItems)
	default:
		s.obs.SetClusterGauges(status.TotalReplicas, status.PendingWorkItems)
	}
}

func (s *Server) recordValidation(v *cluster.ValidationRecord) {
	if s.obs == nil || v == nil {
		return
	}
	s.obs.RecordValidation(v.Status)
}

type enqueueRequest struct {
	ServiceName string `json:"service_name"`
	TaskType    string `json:"task_type"`
	Priority    int    `json:"priority"`
}

// clusterEnqueueHandler handles POST /api/cluster/enqueue.
func (s *Server) clusterEnqueueHandler(c *echo.Context) error {
	var req enqueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ServiceName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service_name is required")
	}
	if req.TaskType == "" {
		req.TaskType = "analyze"
	}

	item := s.coordinator.Enqueue(req.ServiceName, req.TaskType, req.Priority)
	status := s.coordinator.GetStatus()
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "enqueued",
		"work_id":     item.ID,
		"queue_depth": status.PendingWorkItems,
	})
}

type simulateLoadRequest struct {
	Count int `json:"count"`
}

// clusterSimulateLoadHandler handles POST /api/cluster/simulate-load.
func (s *Server) clusterSimulateLoadHandler(c *echo.Context) error {
	var req simulateLoadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Count <= 0 {
		req.Count = 5
	}

	result := s.coordinator.SimulateLoad(req.Count)
	if result.LastTickResult != nil {
		s.recordTickMetrics(*result.LastTickResult)
	}
	out := map[string]any{
		"status":          "load_simulated",
		"items_enqueued":  result.ItemsEnqueued,
		"scale_actions":   result.ScaleActions,
		"final_replicas":  result.FinalReplicas,
		"mape_k_result":   result.LastTickResult,
	}
	if validation, err := s.coordinator.RunPendingValidation(c.Request().Context()); err != nil {
		s.log.Warn("post-simulate-load validation failed", "error", err)
	} else if validation != nil {
		s.recordValidation(validation)
		out["validation"] = validation
	}
	return c.JSON(http.StatusOK, out)
}

// clusterValidateHandler handles POST /api/cluster/validate.
func (s *Server) clusterValidateHandler(c *echo.Context) error {
	rec, err := s.coordinator.RunManualValidation(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	s.recordValidation(rec)
	return c.JSON(http.StatusOK, rec)
}

// clusterValidationsHandler handles GET /api/cluster/validations.
func (s *Server) clusterValidationsHandler(c *echo.Context) error {
	status := s.coordinator.GetStatus()
	results := status.ValidationResults
	if len(results) > 10 {
		results = results[len(results)-10:]
	}
	return c.JSON(http.StatusOK, map[string]any{"validations": results, "count": len(status.ValidationResults)})
}

// clusterCompleteHandler handles POST /api/cluster/complete/:id.
func (s *Server) clusterCompleteHandler(c *echo.Context) error {
	id := c.Param("id")
	if _, ok := s.coordinator.CompleteWork(id, true); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "work item not found or not in progress")
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "completed", "work_id": id})
}

// clusterEventsHandler handles GET /api/cluster/events.
func (s *Server) clusterEventsHandler(c *echo.Context) error {
	status := s.coordinator.GetStatus()
	return c.JSON(http.StatusOK, map[string]any{"events": status.RecentScaleEvents, "count": len(status.RecentScaleEvents)})
}

// clusterReportHandler handles GET /api/cluster/report: a comprehensive
// scaling report combining cluster status, scale-event history, validation
// outcomes, and the remediation action log.
func (s *Server) clusterReportHandler(c *echo.Context) error {
	status := s.coordinator.GetStatus()

	runningCount := 1
	timeline := make([]map[string]any, 0, len(status.RecentScaleEvents))
	var spawns, kills int
	maxReplicas := 1
	for _, evt := range status.RecentScaleEvents {
		switch evt.Event {
		case "spawn":
			runningCount++
			spawns++
		case "kill":
			if runningCount > 1 {
				runningCount--
			}
			kills++
		}
		if evt.TotalReplicas > maxReplicas {
			maxReplicas = evt.TotalReplicas
		}
		timeline = append(timeline, map[string]any{
			"timestamp":   evt.Timestamp,
			"event":       evt.Event,
			"name":        evt.Name,
			"reason":      evt.Reason,
			"total_after": runningCount,
		})
	}

	passed := 0
	for _, v := range status.ValidationResults {
		if v.Status == "passed" {
			passed++
		}
	}
	recentValidations := status.ValidationResults
	if len(recentValidations) > 10 {
		recentValidations = recentValidations[len(recentValidations)-10:]
	}

	actions := s.actionLog.All()
	if len(actions) > 20 {
		actions = actions[len(actions)-20:]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"report_type":  "comprehensive_scale_report",
		"generated_at": nowRFC3339(),
		"cluster": map[string]any{
			"total_replicas":     status.TotalReplicas,
			"replicas":           status.Replicas,
			"pending_work_items": status.PendingWorkItems,
			"completed_analyses": status.CompletedAnalyses,
		},
		"scaling_summary": map[string]any{
			"total_scale_ups":     spawns,
			"total_scale_downs":   kills,
			"current_instances":   status.TotalReplicas,
			"max_instances_reached": maxReplicas,
		},
		"instance_timeline": timeline,
		"scale_events":      status.RecentScaleEvents,
		"validations": map[string]any{
			"total":   len(status.ValidationResults),
			"passed":  passed,
			"failed":  len(status.ValidationResults) - passed,
			"results": recentValidations,
		},
		"actions": actions,
	})
}

type manualScaleRequest struct {
	Direction string `json:"direction"`
	Reason    string `json:"reason"`
}

// clusterScaleHandler handles POST /api/cluster/scale.
func (s *Server) clusterScaleHandler(c *echo.Context) error {
	var req manualScaleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}

	evt, err := s.coordinator.ManualScale(req.Direction, req.Reason)
	if err != nil {
		switch err {
		case cluster.ErrMaxReplicas, cluster.ErrMinReplicas:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	status := s.coordinator.GetStatus()
	if s.obs != nil {
		s.obs.RecordScaleEvent(req.Direction, "manual", status.TotalReplicas, status.PendingWorkItems)
	}

	out := map[string]any{
		"action":         "scale_" + req.Direction,
		"total_replicas": status.TotalReplicas,
	}
	if req.Direction == "up" {
		out["new_replica"] = evt.Name
	} else {
		out["removed_replica"] = evt.Name
	}
	if validation, err := s.coordinator.RunPendingValidation(c.Request().Context()); err != nil {
		s.log.Warn("post-scale validation failed", "error", err)
	} else if validation != nil {
		s.recordValidation(validation)
		out["validation"] = validation
	}
	return c.JSON(http.StatusOK, out)
}
