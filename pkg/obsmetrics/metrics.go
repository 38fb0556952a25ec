// Package obsmetrics exposes Forge's own Prometheus metrics — distinct
// from the External Adapters' MetricsAdapter (spec §4.D), which reads a
// third party's observability backend. This package is what a third party
// would scrape about Forge itself: request rates, analysis throughput,
// scaling activity, and validation outcomes.
package obsmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector Forge registers. It is created once at
// startup and passed explicitly to the components that record against it
// — never reached through a package-level global, matching the rest of
// Forge's wiring discipline.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	ToolCallsTotal   *prometheus.CounterVec

	InsightsStoredTotal  *prometheus.CounterVec
	PatternsStoredTotal  prometheus.Counter

	ScaleEventsTotal *prometheus.CounterVec
	ReplicaCount     prometheus.Gauge
	QueueDepth       prometheus.Gauge

	ValidationsTotal    *prometheus.CounterVec
	NetworkTestRunsTotal *prometheus.CounterVec

	RemediationActionsTotal *prometheus.CounterVec
}

// New builds a Metrics instance bound to its own registry (not
// prometheus.DefaultRegisterer — Forge never reaches for global
// collector state, consistent with its no-package-globals rule).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_http_requests_total",
				Help: "Total HTTP requests served by the Forge API.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_analyses_total",
				Help: "Total service analyses run by the Agent Orchestrator.",
			},
			[]string{"trigger", "status"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_analysis_duration_seconds",
				Help:    "Agent analysis duration in seconds.",
				Buckets: []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"trigger"},
		),
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_agent_tool_calls_total",
				Help: "Total tool calls dispatched by the Agent Orchestrator.",
			},
			[]string{"tool", "status"},
		),

		InsightsStoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_insights_stored_total",
				Help: "Total insights persisted to the Knowledge Store.",
			},
			[]string{"category", "severity"},
		),
		PatternsStoredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "forge_patterns_stored_total",
				Help: "Total patterns persisted to the Knowledge Store.",
			},
		),

		ScaleEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_cluster_scale_events_total",
				Help: "Total scale events executed by the Cluster Coordinator.",
			},
			[]string{"direction", "trigger"},
		),
		ReplicaCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forge_cluster_replicas",
				Help: "Current simulated agent replica count.",
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forge_cluster_queue_depth",
				Help: "Current pending work-item count.",
			},
		),

		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_cluster_validations_total",
				Help: "Total post-scale validations run, by outcome.",
			},
			[]string{"status"},
		),
		NetworkTestRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_network_test_runs_total",
				Help: "Total network-test suite runs, by overall status.",
			},
			[]string{"status"},
		),

		RemediationActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_remediation_actions_total",
				Help: "Total remediation actions executed, by type and outcome.",
			},
			[]string{"action_type", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.AnalysesTotal, m.AnalysisDuration, m.ToolCallsTotal,
		m.InsightsStoredTotal, m.PatternsStoredTotal,
		m.ScaleEventsTotal, m.ReplicaCount, m.QueueDepth,
		m.ValidationsTotal, m.NetworkTestRunsTotal,
		m.RemediationActionsTotal,
	)
	return m
}

// Handler exposes the registry for a GET /metrics scrape.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, dur time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(dur.Seconds())
}

// RecordAnalysis records one Agent Orchestrator analysis run.
func (m *Metrics) RecordAnalysis(trigger, status string, dur time.Duration) {
	m.AnalysesTotal.WithLabelValues(trigger, status).Inc()
	m.AnalysisDuration.WithLabelValues(trigger).Observe(dur.Seconds())
}

// RecordToolCall records one dispatched tool invocation.
func (m *Metrics) RecordToolCall(tool, status string) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordInsight records one insight persisted to the Knowledge Store.
func (m *Metrics) RecordInsight(category, severity string) {
	m.InsightsStoredTotal.WithLabelValues(category, severity).Inc()
}

// RecordPattern records one pattern persisted to the Knowledge Store.
func (m *Metrics) RecordPattern() {
	m.PatternsStoredTotal.Inc()
}

// RecordScaleEvent records one Cluster Coordinator scale action and
// refreshes the replica/queue gauges to their post-action values.
func (m *Metrics) RecordScaleEvent(direction, trigger string, replicas, queueDepth int) {
	m.ScaleEventsTotal.WithLabelValues(direction, trigger).Inc()
	m.ReplicaCount.Set(float64(replicas))
	m.QueueDepth.Set(float64(queueDepth))
}

// SetClusterGauges refreshes the replica/queue gauges without recording a
// scale event, for ticks that take no action.
func (m *Metrics) SetClusterGauges(replicas, queueDepth int) {
	m.ReplicaCount.Set(float64(replicas))
	m.QueueDepth.Set(float64(queueDepth))
}

// RecordValidation records one post-scale or manual validation outcome.
func (m *Metrics) RecordValidation(status string) {
	m.ValidationsTotal.WithLabelValues(status).Inc()
}

// RecordNetworkTestRun records one network-test suite run's overall status.
func (m *Metrics) RecordNetworkTestRun(status string) {
	m.NetworkTestRunsTotal.WithLabelValues(status).Inc()
}

// RecordRemediationAction records one remediation action's outcome.
func (m *Metrics) RecordRemediationAction(actionType, status string) {
	m.RemediationActionsTotal.WithLabelValues(actionType, status).Inc()
}
