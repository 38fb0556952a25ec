package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeGraphAdapter is an in-memory GraphAdapter for tests and demo mode.
// Seeded topology is stored in plain maps; all operations are read-through
// except WriteMetrics.
type FakeGraphAdapter struct {
	mu        sync.Mutex
	Services  map[string]ServiceHealth
	Edges     []DependencyEdge
	Deploys   map[string][]Deployment
	Err       error // when set, every call returns this error
}

// NewFakeGraphAdapter creates an empty fake graph.
func NewFakeGraphAdapter() *FakeGraphAdapter {
	return &FakeGraphAdapter{
		Services: make(map[string]ServiceHealth),
		Deploys:  make(map[string][]Deployment),
	}
}

func (f *FakeGraphAdapter) ServiceHealth(_ context.Context, name string) (ServiceHealth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return ServiceHealth{}, f.Err
	}
	sh, ok := f.Services[name]
	if !ok {
		return ServiceHealth{}, fmt.Errorf("service %q not found", name)
	}
	return sh, nil
}

func (f *FakeGraphAdapter) Dependencies(_ context.Context, name string) ([]DependencyEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []DependencyEdge
	for _, e := range f.Edges {
		if e.Source == name {
			out = append(out, e)
		}
	}
	return out, nil
}

// BlastRadius performs a bounded BFS over CALLS edges in reverse (who
// transitively depends on name), capping at maxHops and deduping visited
// nodes so cycles terminate (spec §9 design note).
func (f *FakeGraphAdapter) BlastRadius(_ context.Context, name string, maxHops int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	visited := map[string]bool{name: true}
	frontier := []string{name}
	var result []string

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, node := range frontier {
			for _, e := range f.Edges {
				if e.Target == node && !visited[e.Source] {
					visited[e.Source] = true
					result = append(result, e.Source)
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
	}
	return result, nil
}

func (f *FakeGraphAdapter) RecentChanges(_ context.Context, name string, hours int) ([]Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	var out []Deployment
	for _, d := range f.Deploys[name] {
		if d.DeployedAt.After(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *FakeGraphAdapter) SlowestDependencies(_ context.Context, name string) ([]DependencyEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []DependencyEdge
	for _, e := range f.Edges {
		if e.Source == name {
			out = append(out, e)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].P99LatencyMs > out[i].P99LatencyMs {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *FakeGraphAdapter) WriteMetrics(_ context.Context, name string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	sh := f.Services[name]
	sh.Name = name
	if v, ok := fields["health_score"].(int); ok {
		sh.HealthScore = v
	}
	if v, ok := fields["avg_latency_ms"].(float64); ok {
		sh.AvgLatencyMs = v
	}
	if v, ok := fields["p99_latency_ms"].(float64); ok {
		sh.P99LatencyMs = v
	}
	sh.UpdatedAt = time.Now().UTC()
	f.Services[name] = sh
	return nil
}

func (f *FakeGraphAdapter) ListServices(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]string, 0, len(f.Services))
	for name := range f.Services {
		out = append(out, name)
	}
	return out, nil
}

// Seed registers a service with a starting health record.
func (f *FakeGraphAdapter) Seed(sh ServiceHealth) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sh.UpdatedAt = time.Now().UTC()
	f.Services[sh.Name] = sh
}

// SeedEdge registers a CALLS edge.
func (f *FakeGraphAdapter) SeedEdge(e DependencyEdge) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edges = append(f.Edges, e)
}

// FakeMetricsAdapter is an in-memory MetricsAdapter driven by seeded data.
type FakeMetricsAdapter struct {
	mu       sync.Mutex
	Monitors []Monitor
	Events   []Event
	Live     map[string]LiveMetrics
	Err      error
}

// NewFakeMetricsAdapter creates an empty fake metrics backend.
func NewFakeMetricsAdapter() *FakeMetricsAdapter {
	return &FakeMetricsAdapter{Live: make(map[string]LiveMetrics)}
}

func (f *FakeMetricsAdapter) MonitorsSnapshot(_ context.Context) ([]Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Monitors, nil
}

func (f *FakeMetricsAdapter) RecentEvents(_ context.Context, hoursBack int, filterTags []string, max int) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	var out []Event
	for _, e := range f.Events {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if len(filterTags) > 0 && !hasAnyTag(e.Tags, filterTags) {
			continue
		}
		out = append(out, e)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

func hasAnyTag(tags, want []string) bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	for _, w := range want {
		if set[w] {
			return true
		}
	}
	return false
}

func (f *FakeMetricsAdapter) ContainerMetrics(_ context.Context, _ string, _ int) ([]ContainerMetricSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []ContainerMetricSample
	for svc, lm := range f.Live {
		out = append(out, ContainerMetricSample{Service: svc, CPUUsagePercent: lm.CPUUsagePercent, MemUsagePercent: lm.MemUsagePercent})
	}
	return out, nil
}

func (f *FakeMetricsAdapter) QueryMetric(_ context.Context, _ string, fromMin, toMin int) ([]MetricPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	n := toMin - fromMin
	if n <= 0 {
		n = 1
	}
	points := make([]MetricPoint, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		points = append(points, MetricPoint{Timestamp: now.Add(-time.Duration(n-i) * time.Minute), Value: 0})
	}
	return points, nil
}

func (f *FakeMetricsAdapter) ActiveMetricsSummary(_ context.Context, windowMin int) (MetricsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return MetricsSummary{}, f.Err
	}
	summary := MetricsSummary{WindowMinutes: windowMin, TotalMonitors: len(f.Monitors)}
	for _, m := range f.Monitors {
		switch m.State {
		case "alert":
			summary.FiringCount++
		case "warn":
			summary.WarningCount++
		}
	}
	return summary, nil
}

func (f *FakeMetricsAdapter) LiveMetricsForService(_ context.Context, name string) (LiveMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return LiveMetrics{}, f.Err
	}
	lm, ok := f.Live[name]
	if !ok {
		return LiveMetrics{}, fmt.Errorf("no live metrics for %q", name)
	}
	return lm, nil
}

// Seed registers live metrics for a service, deriving health/latency when
// they're not explicitly given.
func (f *FakeMetricsAdapter) Seed(service string, lm LiveMetrics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lm.HealthScore == 0 {
		lm.HealthScore = HealthScore(lm.CPUUsagePercent, lm.MemUsagePercent, lm.AlertingMonitors)
	}
	if lm.P99LatencyMs == 0 {
		lm.P99LatencyMs, lm.AvgLatencyMs = DerivedLatency(lm.HealthScore)
	}
	f.Live[service] = lm
}

// SeedMonitor registers a monitor snapshot entry.
func (f *FakeMetricsAdapter) SeedMonitor(m Monitor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Monitors = append(f.Monitors, m)
}

// FakeRemediationAdapter is an in-memory RemediationAdapter; every call
// succeeds unless Err is set, and returns details reflecting the request.
type FakeRemediationAdapter struct {
	mu    sync.Mutex
	Err   error
	Calls []ActionResult
}

// NewFakeRemediationAdapter creates a fake remediation provider.
func NewFakeRemediationAdapter() *FakeRemediationAdapter {
	return &FakeRemediationAdapter{}
}

func (f *FakeRemediationAdapter) ScaleService(_ context.Context, cluster, service string, desired int, reason string) (ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := ActionResult{
		ActionType: "scale_ecs",
		Service:    service,
		Reason:     reason,
		Succeeded:  f.Err == nil,
		Detail:     map[string]any{"cluster": cluster, "desired_count": desired},
	}
	f.Calls = append(f.Calls, res)
	return res, f.Err
}

func (f *FakeRemediationAdapter) RollbackDeployment(_ context.Context, app, group, reason string) (ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := ActionResult{
		ActionType: "rollback_deployment",
		Service:    app,
		Reason:     reason,
		Succeeded:  f.Err == nil,
		Detail:     map[string]any{"deployment_group": group},
	}
	f.Calls = append(f.Calls, res)
	return res, f.Err
}

func (f *FakeRemediationAdapter) UpdateParameter(_ context.Context, name, value, desc, service string) (ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := ActionResult{
		ActionType: "update_ssm",
		Service:    service,
		Reason:     desc,
		Succeeded:  f.Err == nil,
		Detail:     map[string]any{"parameter_name": name, "value": value},
	}
	f.Calls = append(f.Calls, res)
	return res, f.Err
}

// FakeValidationAdapter is an in-memory ValidationAdapter returning
// caller-configured verdicts.
type FakeValidationAdapter struct {
	mu             sync.Mutex
	RecoveryResult RecoveryResult
	StabilityResult StabilityResult
	Err            error
}

// NewFakeValidationAdapter creates a fake validation prober defaulting to
// "everything recovered/stable" results.
func NewFakeValidationAdapter() *FakeValidationAdapter {
	return &FakeValidationAdapter{
		RecoveryResult:  RecoveryResult{Recovered: true, LatencyP99Ms: 300, PassRate: 1.0},
		StabilityResult: StabilityResult{NetworkStable: true},
	}
}

func (f *FakeValidationAdapter) ValidateRecovery(_ context.Context, _ string, _ float64, _ string) (RecoveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RecoveryResult, f.Err
}

func (f *FakeValidationAdapter) ValidateScaleStability(_ context.Context, _, _ string, _, _, _ int, _ string) (StabilityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StabilityResult, f.Err
}

func (f *FakeValidationAdapter) NetworkAfterScale(_ context.Context, _, _ string) (StabilityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StabilityResult, f.Err
}

// FakeLLMAdapter is an in-memory LLMAdapter returning a caller-configured
// response, or failing if Err is set — used to exercise the deterministic
// fallback path deterministically in tests.
type FakeLLMAdapter struct {
	mu       sync.Mutex
	Response string
	Err      error
	Calls    int
}

// NewFakeLLMAdapter creates a fake LLM whose default Response is empty: calls
// succeed with no JSON in the text, which the orchestrator treats as
// unparseable (exercising the fallback) unless Response or Err is set.
func NewFakeLLMAdapter() *FakeLLMAdapter {
	return &FakeLLMAdapter{}
}

func (f *FakeLLMAdapter) Invoke(_ context.Context, _, _ string, _ []ToolDef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}

func (f *FakeLLMAdapter) InvokeStream(_ context.Context, _, _ string, _ []ToolDef) (<-chan Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	ch := make(chan Chunk, 2)
	ch <- Chunk{Text: f.Response}
	ch <- Chunk{Done: true}
	close(ch)
	return ch, nil
}
