package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forge-sre/forge/pkg/activity"
	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/config"
	"github.com/forge-sre/forge/pkg/store"
)

const maxToolIterations = 8

// defaultServiceCatalog is the fallback service list GenerateInsights uses
// when the graph backend cannot enumerate services (mirrors agent.py's
// hard-coded Shopist demo catalog).
var defaultServiceCatalog = []string{
	"api-gateway", "auth-service", "order-service", "payment-service",
	"inventory-service", "notification-svc", "checkout-service",
}

var systemPromptPolicy = `You are Forge, an autonomous reliability agent for a microservice platform with persistent memory.

Rules you MUST follow:
- Always consult memory (recall_service_history, recall_similar_incidents) before acting.
- Always consult the topology graph and live metrics before concluding a root cause.
- When latency cascades through a dependency chain, the deepest slow dependency is the root cause.
- Prefer the LEAST invasive remediation: parameter update < scale < rollback.
- NEVER call scale_service on a service of type "external" — use update_parameter (e.g. a circuit-breaker timeout) instead.
- After remediation, call validate_service_recovery.
- Every analysis MUST store at least one insight or pattern before finishing.
- When you need a tool, respond with ONLY a JSON object {"tool": "<name>", "args": {...}}.
- When you are done, respond with ONLY a JSON object matching the report schema you were given — no other text.`

// Orchestrator is the Agent Orchestrator (spec §4.E): process-wide,
// constructed once at startup with its collaborators and passed explicitly
// rather than reached via package globals.
type Orchestrator struct {
	store       *store.Store
	activityLog *activity.Log
	actionLog   *actionlog.Log

	graph       adapters.GraphAdapter
	metrics     adapters.MetricsAdapter
	remediation adapters.RemediationAdapter
	validation  adapters.ValidationAdapter
	llm         adapters.LLMAdapter
	backgroundLLM adapters.LLMAdapter // may be nil: background deepening then disabled

	demo   *config.DemoConfig
	tuning *config.TuningConfig

	log *slog.Logger
}

// New builds an Orchestrator from its collaborators.
func New(
	st *store.Store,
	activityLog *activity.Log,
	actionLog *actionlog.Log,
	graph adapters.GraphAdapter,
	metrics adapters.MetricsAdapter,
	remediation adapters.RemediationAdapter,
	validation adapters.ValidationAdapter,
	llm adapters.LLMAdapter,
	backgroundLLM adapters.LLMAdapter,
	demo *config.DemoConfig,
	tuning *config.TuningConfig,
) *Orchestrator {
	return &Orchestrator{
		store: st, activityLog: activityLog, actionLog: actionLog,
		graph: graph, metrics: metrics, remediation: remediation, validation: validation,
		llm: llm, backgroundLLM: backgroundLLM,
		demo: demo, tuning: tuning,
		log: slog.With("component", "agent"),
	}
}

// AnalyzeService runs the full workflow for one service (spec §4.E) and
// returns a Report. It never returns an error to the caller for LLM
// failures — those engage the deterministic fallback instead (spec §7).
func (o *Orchestrator) AnalyzeService(ctx context.Context, service, trigger string) (Report, error) {
	runID := uuid.New().String()[:8]
	now := time.Now().UTC()

	report, ok := o.runToolLoop(ctx, service, runID)
	if !ok {
		if o.demo == nil || o.demo.FallbackEnabled {
			o.log.Warn("orchestrator falling back to deterministic report", "service", service)
			report = deterministicFallback(service, now)
			report.RunID = runID
		} else {
			return Report{}, fmt.Errorf("analysis failed for %s and fallback is disabled", service)
		}
	}

	actionTypes := make([]string, 0, len(report.ActionsTaken))
	for _, a := range report.ActionsTaken {
		actionTypes = append(actionTypes, a.ActionType)
	}
	if _, err := o.store.RecordAnalysis(store.AnalysisSession{
		Trigger:          trigger,
		ServicesAnalyzed: []string{service},
		FindingsSummary:  report.ChatSummary,
		ActionsTaken:     actionTypes,
	}); err != nil {
		o.log.Error("failed to record analysis session", "error", err)
	}

	if err := o.store.UpdateBaseline(service, map[string]any{
		"health_score":   report.HealthScore,
		"p99_latency_ms": report.Validation.LatencyP99Ms,
	}); err != nil {
		o.log.Error("failed to update baseline", "error", err)
	}

	o.activityLog.Add("analysis", "primary", fmt.Sprintf("analyzed %s: %s (%d)", service, report.Status, report.HealthScore), report.ChatSummary, nil)

	if o.demo == nil || o.demo.BackgroundDeepening {
		o.spawnBackgroundDeepening(service, report)
	}

	return report, nil
}

// runToolLoop drives the LLM-driven tool-calling workflow described in
// spec §4.E. It returns ok=false when the LLM is unavailable or its final
// answer is not parseable JSON, signalling the caller to use the
// deterministic fallback (spec §7's LLM-kind recovery policy).
func (o *Orchestrator) runToolLoop(ctx context.Context, service, runID string) (Report, bool) {
	if o.llm == nil {
		return Report{}, false
	}

	tools := buildToolDefs()
	schema := reportSchemaPrompt(runID, service)
	transcript := strings.Builder{}
	transcript.WriteString(fmt.Sprintf("Analyze the health and latency of service: %s\n\n%s", service, schema))

	for i := 0; i < maxToolIterations; i++ {
		text, err := o.llm.Invoke(ctx, systemPromptPolicy, transcript.String(), tools)
		if err != nil {
			o.log.Warn("llm invoke failed", "error", err, "iteration", i)
			return Report{}, false
		}
		text = stripThinking(text)

		raw, ok := extractJSON(text)
		if !ok {
			o.log.Warn("llm returned unparseable output", "iteration", i)
			return Report{}, false
		}

		var call struct {
			Tool string         `json:"tool"`
			Args map[string]any `json:"args"`
		}
		if err := json.Unmarshal([]byte(raw), &call); err == nil && call.Tool != "" {
			result, terr := o.dispatchTool(ctx, &adapters.ToolCall{Name: call.Tool, Arguments: call.Args})
			if terr != nil {
				transcript.WriteString(fmt.Sprintf("\n\nTool %s failed: %v", call.Tool, terr))
			} else {
				payload, _ := json.Marshal(result)
				transcript.WriteString(fmt.Sprintf("\n\nTool %s returned: %s", call.Tool, string(payload)))
			}
			continue
		}

		var report Report
		if err := json.Unmarshal([]byte(raw), &report); err != nil {
			o.log.Warn("llm final answer did not match report schema", "error", err)
			return Report{}, false
		}
		if report.RunID == "" {
			report.RunID = runID
		}
		if report.Timestamp.IsZero() {
			report.Timestamp = time.Now().UTC()
		}
		return report, true
	}

	o.log.Warn("llm tool loop exceeded max iterations", "service", service)
	return Report{}, false
}

func reportSchemaPrompt(runID, service string) string {
	return fmt.Sprintf(`Return a final JSON object with this exact structure once you are done:
{
  "run_id": %q,
  "timestamp": "<ISO timestamp>",
  "service": %q,
  "health_score": <0-100>,
  "status": "healthy|degraded|critical",
  "anomalies": [{"type": "...", "metric": "...", "current_value": 0, "description": "..."}],
  "root_cause": "...",
  "root_cause_service": "...",
  "affected_upstream": ["..."],
  "recommended_action": "...",
  "actions_taken": [{"action_type": "...", "service": "...", "result": "..."}],
  "validation": {"recovered": true, "latency_p99_ms": 0, "pass_rate": 0},
  "chat_summary": "2-3 sentence plain English summary"
}`, runID, service)
}

// spawnBackgroundDeepening fires a bounded, best-effort secondary analysis
// that deepens the report with additional insights/patterns (spec §4.E).
// Failures are logged only; this never affects the foreground report.
func (o *Orchestrator) spawnBackgroundDeepening(service string, report Report) {
	if o.backgroundLLM == nil {
		return
	}
	timeout := 60 * time.Second
	if o.tuning != nil && o.tuning.LLMBackgroundTimeoutSeconds > 0 {
		timeout = o.tuning.LLMBackgroundTimeout()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reportJSON, _ := json.Marshal(report)
		prompt := fmt.Sprintf(`Analyze this service health report and identify deeper patterns, predictive insights, and optimization opportunities that the primary analysis may have missed.

Service: %s
Report: %s

Return a JSON object:
{
  "deep_insights": [{"category": "performance|reliability|cost|optimization", "severity": "low|medium|high|critical", "title": "...", "insight": "...", "recommendation": "..."}],
  "patterns": [{"type": "...", "description": "...", "confidence": 0.0, "recommendation": "..."}]
}`, service, string(reportJSON))

		text, err := o.backgroundLLM.Invoke(ctx, "You are a background analysis sub-agent. Output ONLY valid JSON.", prompt, nil)
		if err != nil {
			o.log.Warn("background deepening failed", "service", service, "error", err)
			return
		}
		raw, ok := extractJSON(stripThinking(text))
		if !ok {
			o.log.Warn("background deepening returned unparseable output", "service", service)
			return
		}

		var deep struct {
			DeepInsights []struct {
				Category       string `json:"category"`
				Severity       string `json:"severity"`
				Title          string `json:"title"`
				Insight        string `json:"insight"`
				Recommendation string `json:"recommendation"`
			} `json:"deep_insights"`
			Patterns []struct {
				Type           string  `json:"type"`
				Description    string  `json:"description"`
				Confidence     float64 `json:"confidence"`
				Recommendation string  `json:"recommendation"`
			} `json:"patterns"`
		}
		if err := json.Unmarshal([]byte(raw), &deep); err != nil {
			o.log.Warn("background deepening output did not match schema", "error", err)
			return
		}

		for _, ins := range deep.DeepInsights {
			if _, err := o.store.AddInsight(service, store.Insight{
				Category: ins.Category, Severity: ins.Severity,
				Title: "[background] " + ins.Title, Insight: ins.Insight,
				Recommendation: ins.Recommendation,
			}); err != nil {
				o.log.Warn("failed to store background insight", "error", err)
			}
		}
		for _, p := range deep.Patterns {
			if _, err := o.store.AddPattern(service, store.Pattern{
				Type: p.Type, Description: p.Description, Confidence: p.Confidence, Recommendation: p.Recommendation,
			}); err != nil {
				o.log.Warn("failed to store background pattern", "error", err)
			}
		}
		o.activityLog.Add("analysis", "background", "background deepening completed for "+service, "", nil)
	}()
}

// GenerateInsights runs a biased sweep over one or all services, populating
// the Knowledge Store with 2-4 insights and 1-2 patterns per service from
// the demo library, plus one cross-service global pattern (spec §4.E,
// SPEC_FULL.md §5).
func (o *Orchestrator) GenerateInsights(ctx context.Context, service *string) (GenerateInsightsResult, error) {
	services := o.serviceCatalog(ctx, service)

	type perService = struct {
		service  string
		health   int
		insights int
		patterns int
		metrics  simulatedServiceMetrics
	}
	results := make([]perService, 0, len(services))

	for _, svc := range services {
		rng := rand.New(rand.NewPCG(fallbackSeed(svc, time.Now()), 1))
		m := simulateMetrics(rng)

		mem, err := o.store.GetServiceMemory(svc)
		if err != nil {
			return GenerateInsightsResult{}, err
		}
		baselineP99, _ := mem.BaselineMetrics["p99_latency_ms"].(float64)
		if baselineP99 == 0 {
			baselineP99 = 200
		}

		if err := o.store.UpdateBaseline(svc, map[string]any{
			"p99_latency_ms": m.p99, "avg_latency_ms": m.avg, "health_score": m.healthScore,
			"cpu_usage_percent": m.cpu, "rpm": m.rpm, "error_rate_percent": m.errorRate,
		}); err != nil {
			return GenerateInsightsResult{}, err
		}

		categories := []string{"performance", "reliability", "cost", "optimization"}
		rng.Shuffle(len(categories), func(i, j int) { categories[i], categories[j] = categories[j], categories[i] })
		numInsights := 2 + rng.IntN(3)
		if numInsights > len(categories) {
			numInsights = len(categories)
		}

		insightCount := 0
		for _, cat := range categories[:numInsights] {
			templates := insightLibrary[cat]
			t := templates[rng.IntN(len(templates))]
			if _, err := o.store.AddInsight(svc, store.Insight{
				Category: cat, Severity: t.severity, Title: t.title,
				Insight:        renderInsight(t, m, baselineP99),
				Recommendation: t.recommendation,
			}); err != nil {
				return GenerateInsightsResult{}, err
			}
			insightCount++
		}

		patternCount := 0
		picked := pickPatterns(rng, 1+rng.IntN(2))
		for _, pt := range picked {
			occurrences := 5 + rng.IntN(26)
			if _, err := o.store.AddPattern(svc, store.Pattern{
				Type:           pt.patternType,
				Description:    renderPattern(pt, occurrences),
				Confidence:     pt.confidence + uniform(rng, -0.05, 0.05),
				Recommendation: pt.recommendation,
			}); err != nil {
				return GenerateInsightsResult{}, err
			}
			patternCount++
		}

		results = append(results, perService{service: svc, health: m.healthScore, insights: insightCount, patterns: patternCount, metrics: m})
	}

	globalRng := rand.New(rand.NewPCG(fallbackSeed(strings.Join(services, ","), time.Now()), 2))
	global := globalPatternTemplates[globalRng.IntN(len(globalPatternTemplates))]
	involved := sampleN(globalRng, services, minInt(3, len(services)))
	if _, err := o.store.AddGlobalPattern(store.Pattern{
		Type: global.patternType, Description: global.description, Confidence: 0.85,
		Recommendation:   global.recommendation,
		ServicesInvolved: involved,
	}); err != nil {
		return GenerateInsightsResult{}, err
	}

	totalInsights, totalPatterns := 0, 1
	for _, r := range results {
		totalInsights += r.insights
		totalPatterns += r.patterns
	}

	sortByHealthAsc(results)
	top := make([]TopRecommendation, 0, minInt(5, len(results)))
	for _, r := range results[:minInt(5, len(results))] {
		severity, title := "medium", fmt.Sprintf("Optimization opportunity (score: %d)", r.health)
		if r.health < 60 {
			severity, title = "high", fmt.Sprintf("Health score %d — action needed", r.health)
		}
		top = append(top, TopRecommendation{
			Service: r.service, Severity: severity, Title: title,
			Recommendation: fmt.Sprintf("p99=%.0fms, error_rate=%.1f%% — review insights for specific actions", r.metrics.p99, r.metrics.errorRate),
		})
	}

	if _, err := o.store.RecordAnalysis(store.AnalysisSession{
		Trigger:          "generate_insights",
		ServicesAnalyzed: services,
		FindingsSummary:  fmt.Sprintf("Generated %d insights and %d patterns across %d services", totalInsights, totalPatterns, len(services)),
		ActionsTaken:     []string{"generate_insights", "store_patterns", "update_baselines"},
	}); err != nil {
		return GenerateInsightsResult{}, err
	}

	return GenerateInsightsResult{
		ServicesAnalyzed:       services,
		InsightsGeneratedCount: totalInsights,
		PatternsDetectedCount:  totalPatterns,
		TopRecommendations:     top,
	}, nil
}

func (o *Orchestrator) serviceCatalog(ctx context.Context, service *string) []string {
	if service != nil && *service != "" {
		return []string{*service}
	}
	if o.graph != nil {
		if names, err := o.graph.ListServices(ctx); err == nil && len(names) > 0 {
			return names
		}
	}
	return defaultServiceCatalog
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func pickPatterns(rng *rand.Rand, n int) []patternTemplate {
	if n > len(patternLibrary) {
		n = len(patternLibrary)
	}
	pool := make([]patternTemplate, len(patternLibrary))
	copy(pool, patternLibrary)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:n]
}

func sortByHealthAsc(results []struct {
	service  string
	health   int
	insights int
	patterns int
	metrics  simulatedServiceMetrics
}) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].health < results[j-1].health; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
