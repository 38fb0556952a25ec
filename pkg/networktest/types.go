// Package networktest implements the Network Test Strategy Engine (spec
// §4.F): it reads the Knowledge Store's insights and patterns, derives a
// set of concrete test strategies, and executes them against the
// platform's own HTTP surface to validate that a remediation actually
// worked.
package networktest

// Strategy is one derived test plan (spec §4.F).
type Strategy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // health_sweep|latency_probe|load_burst|cascade_sim|dependency_chain
	Description string `json:"description"`
	Target      string `json:"target"`       // service name or "all"
	DerivedFrom string `json:"derived_from"` // insight/pattern id, or "baseline"
	Severity    string `json:"severity"`

	Endpoints   []string `json:"endpoints,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"` // load_burst
	Samples     int      `json:"samples,omitempty"`     // latency_probe
}

// EndpointResult is one probed HTTP call.
type EndpointResult struct {
	Endpoint   string  `json:"endpoint"`
	Name       string  `json:"name"`
	StatusCode int     `json:"status_code"`
	LatencyMs  float64 `json:"latency_ms"`
	Passed     bool    `json:"passed"`
	Error      string  `json:"error,omitempty"`
}

// StrategyResult is the outcome of running one Strategy.
type StrategyResult struct {
	StrategyID   string           `json:"strategy_id"`
	StrategyName string           `json:"strategy_name"`
	StrategyType string           `json:"strategy_type"`
	Status       string           `json:"status"` // passed|failed|partial
	Target       string           `json:"target"`
	DurationMs   float64          `json:"duration_ms"`
	TestsRun     int              `json:"tests_run"`
	TestsPassed  int              `json:"tests_passed"`
	TestsFailed  int              `json:"tests_failed"`
	Findings     []EndpointResult `json:"findings,omitempty"`
	P50Ms        *float64         `json:"p50_ms,omitempty"`
	P95Ms        *float64         `json:"p95_ms,omitempty"`
	P99Ms        *float64         `json:"p99_ms,omitempty"`
	ErrorRatePct float64          `json:"error_rate_pct,omitempty"`
}

// Report is the aggregate result of one RunTests call.
type Report struct {
	ReportID         string           `json:"report_id"`
	Timestamp        string           `json:"timestamp"`
	StrategiesRun     int             `json:"strategies_run"`
	StrategiesPassed int              `json:"strategies_passed"`
	StrategiesFailed int              `json:"strategies_failed"`
	OverallStatus    string           `json:"overall_status"`
	DurationMs       float64          `json:"duration_ms"`
	StrategyResults  []StrategyResult `json:"strategy_results"`
	Recommendations  []string         `json:"recommendations"`
}

// coreEndpoints are always included in a health_sweep, mirroring the
// platform's own stable HTTP surface (spec §6).
var coreEndpoints = []struct{ path, name string }{
	{"/health", "Health Check"},
	{"/api/agent/health", "Agent Health"},
	{"/api/cluster/status", "Cluster Status"},
	{"/api/graph/", "Service Graph"},
	{"/api/insights/", "Insights Store"},
	{"/api/cluster/events", "Cluster Events"},
}
