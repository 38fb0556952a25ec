// Package adapters defines the External Adapters contracts (spec §4.D): a
// small, closed set of interfaces over the service-topology graph, the
// metrics/events backend, the remediation provider, the network-validation
// prober, and the LLM. Each is interface-typed so fakes can be substituted
// in tests — deliberately NOT duck-typed or dynamically discovered (spec §9
// design note), unlike the teacher's MCP-based tool servers.
package adapters

import (
	"context"
	"time"
)

// ServiceHealth is the graph's view of one service's current health.
type ServiceHealth struct {
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Team             string    `json:"team"`
	Criticality      string    `json:"criticality"` // critical|high|medium|low
	HealthScore      int       `json:"health_score"`
	AvgLatencyMs     float64   `json:"avg_latency_ms"`
	P99LatencyMs     float64   `json:"p99_latency_ms"`
	CPUUsagePercent  float64   `json:"cpu_usage_percent"`
	MemUsagePercent  float64   `json:"mem_usage_percent"`
	DataSource       string    `json:"data_source"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DependencyEdge is a directed CALLS(src→tgt) edge.
type DependencyEdge struct {
	Source         string  `json:"source"`
	Target         string  `json:"target"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	P99LatencyMs   float64 `json:"p99_latency_ms"`
	RequestsPerMin float64 `json:"requests_per_min"`
}

// Deployment is an append-only deployment record attached to a service.
type Deployment struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Version    string    `json:"version"`
	Status     string    `json:"status"`
	DeployedAt time.Time `json:"deployed_at"`
	DeployedBy string    `json:"deployed_by"`
}

// GraphAdapter is the service-topology graph contract. Arbitrary Cypher-like
// queries are explicitly NOT part of the contract (spec §4.D) — only these
// fixed methods.
type GraphAdapter interface {
	ServiceHealth(ctx context.Context, name string) (ServiceHealth, error)
	Dependencies(ctx context.Context, name string) ([]DependencyEdge, error)
	BlastRadius(ctx context.Context, name string, maxHops int) ([]string, error)
	RecentChanges(ctx context.Context, name string, hours int) ([]Deployment, error)
	SlowestDependencies(ctx context.Context, name string) ([]DependencyEdge, error)
	WriteMetrics(ctx context.Context, name string, fields map[string]any) error
	ListServices(ctx context.Context) ([]string, error)
}

// Monitor is one firing/alerting monitor from the metrics backend.
type Monitor struct {
	ID       string `json:"id"`
	Service  string `json:"service"`
	Name     string `json:"name"`
	State    string `json:"state"` // alert|warn|ok
	Message  string `json:"message,omitempty"`
}

// Event is a recent observability event (deploy, alert, config change).
type Event struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	Tags      []string  `json:"tags"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ContainerMetricSample is one container-level resource sample.
type ContainerMetricSample struct {
	Service         string  `json:"service"`
	CPUUsagePercent float64 `json:"cpu_usage_percent"`
	MemUsagePercent float64 `json:"mem_usage_percent"`
}

// MetricPoint is one (timestamp, value) sample from a metric query.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricsSummary aggregates the active-monitors view over a time window.
type MetricsSummary struct {
	WindowMinutes  int `json:"window_minutes"`
	FiringCount    int `json:"firing_count"`
	WarningCount   int `json:"warning_count"`
	TotalMonitors  int `json:"total_monitors"`
}

// LiveMetrics is the convenience snapshot used by the Orchestrator (spec §4.D).
type LiveMetrics struct {
	P99LatencyMs      float64 `json:"p99_latency_ms"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	HealthScore       int     `json:"health_score"`
	CPUUsagePercent   float64 `json:"cpu_usage_percent"`
	MemUsagePercent   float64 `json:"mem_usage_percent"`
	AlertingMonitors  int     `json:"alerting_monitors"`
}

// MetricsAdapter is the observability/metrics backend contract.
type MetricsAdapter interface {
	MonitorsSnapshot(ctx context.Context) ([]Monitor, error)
	RecentEvents(ctx context.Context, hoursBack int, filterTags []string, max int) ([]Event, error)
	ContainerMetrics(ctx context.Context, namespace string, windowMin int) ([]ContainerMetricSample, error)
	QueryMetric(ctx context.Context, query string, fromMin, toMin int) ([]MetricPoint, error)
	ActiveMetricsSummary(ctx context.Context, windowMin int) (MetricsSummary, error)
	LiveMetricsForService(ctx context.Context, name string) (LiveMetrics, error)
}

// RemediationAdapter executes bounded remediation actions. Every call
// returns an opaque action record and MUST be journalled into the Action
// Log by the caller (spec §4.D).
type RemediationAdapter interface {
	ScaleService(ctx context.Context, cluster, service string, desired int, reason string) (ActionResult, error)
	RollbackDeployment(ctx context.Context, app, group, reason string) (ActionResult, error)
	UpdateParameter(ctx context.Context, name, value, desc, service string) (ActionResult, error)
}

// ActionResult is the outcome of one remediation call, pre-journalling shape.
type ActionResult struct {
	ActionType string
	Service    string
	Reason     string
	Succeeded  bool
	Detail     map[string]any
}

// PhaseResult is one side of a two-phase stability check.
type PhaseResult struct {
	P99LatencyMs float64 `json:"p99_latency_ms"`
	PassRate     float64 `json:"pass_rate"`
}

// ExternalSuiteResult is the TestSprite-shaped secondary validation detail
// (SPEC_FULL.md §5, mirrors `_demo_testsprite_results` in the original).
type ExternalSuiteResult struct {
	Provider       string  `json:"provider"`
	TestsGenerated int     `json:"tests_generated"`
	TestsPassed    int     `json:"tests_passed"`
	CoveragePct    float64 `json:"coverage_percent"`
	SuiteBreakdown map[string]int `json:"suite_breakdown"`
}

// RecoveryResult is the outcome of ValidateRecovery.
type RecoveryResult struct {
	Recovered    bool                 `json:"recovered"`
	LatencyP99Ms float64              `json:"latency_p99_ms"`
	PassRate     float64              `json:"pass_rate"`
	Suite        *ExternalSuiteResult `json:"external_suite_result,omitempty"`
}

// StabilityResult is the outcome of a two-phase scale-stability check
// (spec §4.D): pre-scale baseline, wait, post-scale re-measure.
type StabilityResult struct {
	Pre            PhaseResult          `json:"phase_1_pre_scale"`
	Post           PhaseResult          `json:"phase_2_post_scale"`
	NetworkStable  bool                 `json:"network_stable"`
	Suite          *ExternalSuiteResult `json:"external_suite_result,omitempty"`
}

// ValidationAdapter runs network/stability probes against the platform's
// own HTTP surface.
type ValidationAdapter interface {
	ValidateRecovery(ctx context.Context, service string, baselineP99 float64, suite string) (RecoveryResult, error)
	ValidateScaleStability(ctx context.Context, service, direction string, before, after, waitSec int, suite string) (StabilityResult, error)
	// NetworkAfterScale is invoked by the Cluster Coordinator's pending-validation
	// hand-off (spec §4.G) after a scale event, outside the MAPE-K tick's lock.
	NetworkAfterScale(ctx context.Context, trigger, replicaName string) (StabilityResult, error)
}

// ToolDef describes one tool the LLM may call, matching the JSON-schema
// shape every major provider SDK expects.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// ToolCall is one invocation the LLM asked the dispatcher to perform.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Chunk is one piece of a streamed LLM response: either a text token or a
// completed tool call.
type Chunk struct {
	Text     string
	ToolCall *ToolCall
	Done     bool
}

// LLMAdapter is the streaming, tool-calling LLM contract (spec §4.D, §9).
// Tool invocations are dispatched by the caller (pkg/agent), not the
// adapter — the adapter only surfaces them.
type LLMAdapter interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDef) (string, error)
	InvokeStream(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDef) (<-chan Chunk, error)
}
