package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/store"
)

// buildToolDefs mirrors the original's Strands tool registry (neo4j_tools,
// datadog_tools, aws_tools, testsprite, memory_tools) as the fixed set the
// policy prompt advertises to the LLM.
func buildToolDefs() []adapters.ToolDef {
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	obj := func(props map[string]any, required ...string) map[string]any {
		return map[string]any{"type": "object", "properties": props, "required": required}
	}
	return []adapters.ToolDef{
		{Name: "recall_service_history", Description: "Fetch this service's baseline metrics, patterns, and insights from the Knowledge Store.",
			Parameters: obj(map[string]any{"service": str("service name")}, "service")},
		{Name: "recall_similar_incidents", Description: "List cross-service patterns that may correlate with this service's symptoms.",
			Parameters: obj(map[string]any{})},
		{Name: "get_service_health", Description: "Get this service's current health score and latency from the topology graph.",
			Parameters: obj(map[string]any{"service": str("service name")}, "service")},
		{Name: "get_slowest_dependencies", Description: "List this service's slowest downstream dependencies.",
			Parameters: obj(map[string]any{"service": str("service name")}, "service")},
		{Name: "get_blast_radius", Description: "List upstream services affected if this service fails.",
			Parameters: obj(map[string]any{"service": str("service name")}, "service")},
		{Name: "find_recent_changes", Description: "List deployments to this service in the last N hours.",
			Parameters: obj(map[string]any{"service": str("service name"), "hours": str("lookback window in hours")}, "service")},
		{Name: "get_live_metrics", Description: "Get live CPU/mem/latency/health snapshot for this service.",
			Parameters: obj(map[string]any{"service": str("service name")}, "service")},
		{Name: "scale_service", Description: "Scale an ECS service to a desired replica count. Never use on external-type services.",
			Parameters: obj(map[string]any{
				"cluster": str("ECS cluster name"), "service": str("service name"),
				"desired": str("desired replica count"), "reason": str("why this action was taken"),
			}, "cluster", "service", "desired", "reason")},
		{Name: "rollback_deployment", Description: "Force a fresh deployment of the service's current stable task definition.",
			Parameters: obj(map[string]any{
				"app": str("service name"), "group": str("deployment group / cluster"), "reason": str("why"),
			}, "app", "group", "reason")},
		{Name: "update_parameter", Description: "Update an SSM parameter for runtime configuration (preferred least-invasive remediation).",
			Parameters: obj(map[string]any{
				"name": str("parameter name"), "value": str("parameter value"),
				"description": str("why"), "service": str("service name"),
			}, "name", "value", "description", "service")},
		{Name: "validate_service_recovery", Description: "Run a post-remediation validation probe against the service.",
			Parameters: obj(map[string]any{"service": str("service name"), "baseline_p99_ms": str("pre-incident p99 baseline")}, "service")},
		{Name: "store_insight", Description: "Persist a categorized finding to the Knowledge Store.",
			Parameters: obj(map[string]any{
				"service": str("service name"), "category": str("performance|reliability|cost|optimization"),
				"severity": str("low|medium|high|critical"), "title": str("short title"),
				"insight": str("finding body"), "evidence": str("supporting evidence"),
				"recommendation": str("recommended fix"),
			}, "service", "category", "severity", "title", "insight")},
		{Name: "store_pattern", Description: "Persist a recurring cross-call pattern to the Knowledge Store (merged by type+similarity).",
			Parameters: obj(map[string]any{
				"service": str("service name"), "type": str("pattern type"),
				"description": str("pattern description"), "confidence": str("0.0-1.0"),
				"recommendation": str("recommended fix"),
			}, "service", "type", "description", "confidence")},
	}
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func argFloat(args map[string]any, key string, def float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// dispatchTool executes one tool call against the adapters/store and
// returns a JSON-serializable result fed back into the next prompt turn.
// RemediationAdapter calls are journalled to the Action Log; every call is
// recorded to the Activity Log (spec §4.B/§4.C).
func (o *Orchestrator) dispatchTool(ctx context.Context, tc *adapters.ToolCall) (map[string]any, error) {
	o.activityLog.Add("tool_call", "primary", tc.Name, "", tc.Arguments)

	switch tc.Name {
	case "recall_service_history":
		svc := argString(tc.Arguments, "service")
		mem, err := o.store.GetServiceMemory(svc)
		if err != nil {
			return nil, err
		}
		return map[string]any{"baseline": mem.BaselineMetrics, "patterns": mem.Patterns, "insights": mem.Insights}, nil

	case "recall_similar_incidents":
		return map[string]any{"patterns": o.store.GetAllPatterns()}, nil

	case "get_service_health":
		svc := argString(tc.Arguments, "service")
		h, err := o.graph.ServiceHealth(ctx, svc)
		if err != nil {
			return nil, err
		}
		return map[string]any{"health": h}, nil

	case "get_slowest_dependencies":
		svc := argString(tc.Arguments, "service")
		deps, err := o.graph.SlowestDependencies(ctx, svc)
		if err != nil {
			return nil, err
		}
		return map[string]any{"dependencies": deps}, nil

	case "get_blast_radius":
		svc := argString(tc.Arguments, "service")
		radius, err := o.graph.BlastRadius(ctx, svc, 5)
		if err != nil {
			return nil, err
		}
		return map[string]any{"affected_upstream": radius}, nil

	case "find_recent_changes":
		svc := argString(tc.Arguments, "service")
		hours := argInt(tc.Arguments, "hours", 6)
		changes, err := o.graph.RecentChanges(ctx, svc, hours)
		if err != nil {
			return nil, err
		}
		return map[string]any{"deployments": changes}, nil

	case "get_live_metrics":
		svc := argString(tc.Arguments, "service")
		lm, err := o.metrics.LiveMetricsForService(ctx, svc)
		if err != nil {
			return nil, err
		}
		return map[string]any{"live_metrics": lm}, nil

	case "scale_service":
		res, err := o.remediation.ScaleService(ctx, argString(tc.Arguments, "cluster"), argString(tc.Arguments, "service"), argInt(tc.Arguments, "desired", 2), argString(tc.Arguments, "reason"))
		o.journalAction(res)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": res}, nil

	case "rollback_deployment":
		res, err := o.remediation.RollbackDeployment(ctx, argString(tc.Arguments, "app"), argString(tc.Arguments, "group"), argString(tc.Arguments, "reason"))
		o.journalAction(res)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": res}, nil

	case "update_parameter":
		res, err := o.remediation.UpdateParameter(ctx, argString(tc.Arguments, "name"), argString(tc.Arguments, "value"), argString(tc.Arguments, "description"), argString(tc.Arguments, "service"))
		o.journalAction(res)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": res}, nil

	case "validate_service_recovery":
		svc := argString(tc.Arguments, "service")
		baseline := argFloat(tc.Arguments, "baseline_p99_ms", 200)
		res, err := o.validation.ValidateRecovery(ctx, svc, baseline, "default")
		if err != nil {
			return nil, err
		}
		return map[string]any{"validation": res}, nil

	case "store_insight":
		svc := argString(tc.Arguments, "service")
		id, err := o.store.AddInsight(svc, store.Insight{
			Category:       argString(tc.Arguments, "category"),
			Severity:       argString(tc.Arguments, "severity"),
			Title:          argString(tc.Arguments, "title"),
			Insight:        argString(tc.Arguments, "insight"),
			Evidence:       argString(tc.Arguments, "evidence"),
			Recommendation: argString(tc.Arguments, "recommendation"),
		})
		if err != nil {
			return nil, err
		}
		o.activityLog.Add("insight_stored", "primary", svc+": "+argString(tc.Arguments, "title"), "", nil)
		return map[string]any{"insight_id": id}, nil

	case "store_pattern":
		svc := argString(tc.Arguments, "service")
		id, err := o.store.AddPattern(svc, store.Pattern{
			Type:           argString(tc.Arguments, "type"),
			Description:    argString(tc.Arguments, "description"),
			Confidence:     argFloat(tc.Arguments, "confidence", 0.5),
			Recommendation: argString(tc.Arguments, "recommendation"),
		})
		if err != nil {
			return nil, err
		}
		o.activityLog.Add("pattern_stored", "primary", svc+": "+argString(tc.Arguments, "type"), "", nil)
		return map[string]any{"pattern_id": id}, nil

	default:
		return nil, fmt.Errorf("unknown tool %q", tc.Name)
	}
}

func (o *Orchestrator) journalAction(res adapters.ActionResult) {
	status := "succeeded"
	if !res.Succeeded {
		status = "failed"
	}
	o.actionLog.Record(actionlog.Action{
		ActionType: res.ActionType,
		Service:    res.Service,
		Reason:     res.Reason,
		Status:     status,
		Detail:     res.Detail,
	})
}
