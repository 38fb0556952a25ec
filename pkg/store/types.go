// Package store implements the Knowledge Store: a concurrent,
// atomically-persisted document of services, baselines, patterns, insights,
// and analysis history. All operations serialize through a single mutex;
// persistence is crash-consistent via temp-file-then-rename.
package store

import "time"

// Memory is the top-level persisted document.
type Memory struct {
	Version         string                     `json:"version"`
	LastUpdated     time.Time                  `json:"last_updated"`
	Services        map[string]*ServiceMemory  `json:"services"`
	GlobalPatterns  []Pattern                  `json:"global_patterns"`
	AnalysisHistory []AnalysisSession          `json:"analysis_history"`
}

// ServiceMemory is the per-service slice of the document.
type ServiceMemory struct {
	BaselineMetrics map[string]any `json:"baseline_metrics"`
	Patterns        []Pattern      `json:"patterns"`
	Insights        []Insight      `json:"insights"`
}

// Insight is a persistent, categorized finding (spec §3).
type Insight struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"` // performance|reliability|cost|optimization
	Severity       string    `json:"severity"` // low|medium|high|critical
	Title          string    `json:"title"`
	Insight        string    `json:"insight"`
	Evidence       string    `json:"evidence,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Status         string    `json:"status"` // open|acknowledged|resolved
	Timestamp      time.Time `json:"timestamp"`
}

// InsightView is an Insight with its owning service attached, returned by
// flattening operations (GetAllInsights, GetRecommendations).
type InsightView struct {
	Insight
	Service string `json:"service"`
}

// Pattern is a recurring behavior merged by type+description similarity.
type Pattern struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Description      string    `json:"description"`
	Confidence       float64   `json:"confidence"`
	Recommendation   string    `json:"recommendation,omitempty"`
	FirstDetected    time.Time `json:"first_detected"`
	LastConfirmed    time.Time `json:"last_confirmed"`
	Occurrences      int       `json:"occurrences"`
	ServicesInvolved []string  `json:"services_involved,omitempty"` // global patterns only
}

// PatternView is a Pattern with its owning scope attached, returned by
// GetAllPatterns: either a service name or "global".
type PatternView struct {
	Pattern
	Service string `json:"service,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// AnalysisSession records one orchestrator run (spec §3).
type AnalysisSession struct {
	SessionID        string    `json:"session_id"`
	Trigger          string    `json:"trigger"` // manual|alert|scheduled|generate_insights
	ServicesAnalyzed []string  `json:"services_analyzed"`
	FindingsSummary  string    `json:"findings_summary,omitempty"`
	ActionsTaken     []string  `json:"actions_taken,omitempty"`
	InsightsGenerated []string `json:"insights_generated,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// ServiceMemoryView is the response shape for GetServiceMemory.
type ServiceMemoryView struct {
	Service         string         `json:"service"`
	BaselineMetrics map[string]any `json:"baseline_metrics"`
	Patterns        []Pattern      `json:"patterns"`
	Insights        []Insight      `json:"insights"`
}

const analysisHistoryCap = 100

func defaultMemory() *Memory {
	return &Memory{
		Version:         "1.0",
		LastUpdated:     time.Now().UTC(),
		Services:        make(map[string]*ServiceMemory),
		GlobalPatterns:  []Pattern{},
		AnalysisHistory: []AnalysisSession{},
	}
}

func newServiceMemory() *ServiceMemory {
	return &ServiceMemory{
		BaselineMetrics: make(map[string]any),
		Patterns:        []Pattern{},
		Insights:        []Insight{},
	}
}
