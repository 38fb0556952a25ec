// Package agent implements the Agent Orchestrator (spec §4.E): the
// LLM-driven tool-calling loop that analyzes one service's health, falls
// back to a deterministic synthetic report when the LLM is unavailable or
// unparseable, and runs a biased sweep to populate the Knowledge Store with
// insights for GenerateInsights.
package agent

import "time"

// Anomaly is one detected deviation from baseline.
type Anomaly struct {
	Type         string      `json:"type"`
	Metric       string      `json:"metric"`
	CurrentValue interface{} `json:"current_value"`
	Description  string      `json:"description"`
}

// ActionTaken is one remediation step the orchestrator executed.
type ActionTaken struct {
	ActionType string `json:"action_type"`
	Service    string `json:"service"`
	Result     string `json:"result"`
}

// Validation is the post-remediation validation summary embedded in Report.
type Validation struct {
	Recovered    bool    `json:"recovered"`
	LatencyP99Ms float64 `json:"latency_p99_ms"`
	PassRate     float64 `json:"pass_rate"`
}

// Report is the full shape AnalyzeService returns (spec §4.E). Callers
// cannot distinguish a deterministic-fallback report from one produced by
// the LLM-driven workflow — both use this exact shape.
type Report struct {
	RunID             string        `json:"run_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Service           string        `json:"service"`
	HealthScore       int           `json:"health_score"`
	Status            string        `json:"status"` // healthy|degraded|critical
	Anomalies         []Anomaly     `json:"anomalies"`
	RootCause         string        `json:"root_cause"`
	RootCauseService  string        `json:"root_cause_service"`
	AffectedUpstream  []string      `json:"affected_upstream"`
	RecommendedAction string        `json:"recommended_action"`
	ActionsTaken      []ActionTaken `json:"actions_taken"`
	Validation        Validation    `json:"validation"`
	ChatSummary       string        `json:"chat_summary"`
}

// TopRecommendation is one row of GenerateInsightsResult.TopRecommendations.
type TopRecommendation struct {
	Service        string `json:"service"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Recommendation string `json:"recommendation"`
}

// GenerateInsightsResult is GenerateInsights's summary return value.
type GenerateInsightsResult struct {
	ServicesAnalyzed        []string            `json:"services_analyzed"`
	InsightsGeneratedCount  int                 `json:"insights_generated_count"`
	PatternsDetectedCount   int                 `json:"patterns_detected_count"`
	TopRecommendations      []TopRecommendation `json:"top_recommendations"`
}

// ChatFrame is one SSE frame emitted by Chat (spec §6).
type ChatFrame struct {
	Type    string `json:"type"` // text|error|done
	Content string `json:"content"`
}
