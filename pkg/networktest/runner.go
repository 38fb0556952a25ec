package networktest

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forge-sre/forge/pkg/store"
)

const probeTimeout = 8 * time.Second

// Engine executes strategies against the platform's own HTTP surface,
// grounded on `original_source/backend/agent/network_tester.py`'s httpx
// client (here a bare *http.Client per the teacher's own net/http idiom).
type Engine struct {
	baseURL    string
	httpClient *http.Client
	st         *store.Store

	mu             sync.Mutex
	lastStrategies []Strategy
}

// New builds a network-test Engine that probes baseURL (typically the
// platform's own listen address).
func New(baseURL string, st *store.Store) *Engine {
	return &Engine{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: probeTimeout},
		st:         st,
	}
}

// GenerateStrategies reads the current insights/patterns from the
// Knowledge Store, derives the strategy list (spec §4.F), and caches it so
// a subsequent RunTests(strategy_ids) filtering against the ids this call
// returned finds a match. Strategy ids are randomly generated per call (as
// in the original), so without this cache a strategy_ids filter could never
// match a freshly-regenerated list.
func (e *Engine) GenerateStrategies() []Strategy {
	strategies := GenerateStrategies(e.st.GetAllInsights(""), e.st.GetAllPatterns())
	e.mu.Lock()
	e.lastStrategies = strategies
	e.mu.Unlock()
	return strategies
}

// RunTests executes the given strategies (or all derived strategies when
// ids is empty) and returns an aggregate Report. When ids is non-empty it
// filters against the most recently generated strategy list (the one a
// prior GET /api/network-test/strategies call returned) rather than
// regenerating a fresh list with different random ids.
func (e *Engine) RunTests(ctx context.Context, ids []string) (Report, error) {
	var strategies []Strategy
	if len(ids) > 0 {
		e.mu.Lock()
		cached := e.lastStrategies
		e.mu.Unlock()
		if cached == nil {
			cached = e.GenerateStrategies()
		}
		want := map[string]bool{}
		for _, id := range ids {
			want[id] = true
		}
		for _, s := range cached {
			if want[s.ID] {
				strategies = append(strategies, s)
			}
		}
	} else {
		strategies = e.GenerateStrategies()
	}

	start := time.Now()
	results := make([]StrategyResult, 0, len(strategies))
	for _, strat := range strategies {
		results = append(results, e.runStrategy(ctx, strat))
	}
	duration := float64(time.Since(start).Microseconds()) / 1000.0

	passed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case "passed":
			passed++
		case "failed":
			failed++
		}
	}
	overall := "passed"
	switch {
	case failed == 0:
		overall = "passed"
	case passed == 0:
		overall = "failed"
	default:
		overall = "partial"
	}

	return Report{
		ReportID:         "ntr-" + uuid.New().String()[:8],
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		StrategiesRun:    len(results),
		StrategiesPassed: passed,
		StrategiesFailed: failed,
		OverallStatus:    overall,
		DurationMs:       duration,
		StrategyResults:  results,
		Recommendations:  recommendationsFor(results),
	}, nil
}

func (e *Engine) runStrategy(ctx context.Context, strat Strategy) StrategyResult {
	switch strat.Type {
	case "health_sweep":
		return e.runHealthSweep(ctx, strat)
	case "latency_probe":
		return e.runLatencyProbe(ctx, strat)
	case "load_burst":
		return e.runLoadBurst(ctx, strat)
	case "cascade_sim", "dependency_chain":
		return e.runCascade(ctx, strat)
	default:
		return StrategyResult{
			StrategyID: strat.ID, StrategyName: strat.Name, StrategyType: strat.Type,
			Status: "failed", Target: strat.Target, TestsFailed: 1,
			Findings: []EndpointResult{{Error: "unknown strategy type"}},
		}
	}
}

func (e *Engine) probe(ctx context.Context, path, name string) EndpointResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return EndpointResult{Endpoint: path, Name: name, LatencyMs: ms(time.Since(start)), Error: truncate(err.Error(), 120)}
	}
	resp, err := e.httpClient.Do(req)
	latency := ms(time.Since(start))
	if err != nil {
		return EndpointResult{Endpoint: path, Name: name, LatencyMs: latency, Error: truncate(err.Error(), 120)}
	}
	defer resp.Body.Close()
	passed := resp.StatusCode >= 200 && resp.StatusCode < 400
	return EndpointResult{Endpoint: path, Name: name, StatusCode: resp.StatusCode, LatencyMs: latency, Passed: passed}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// runHealthSweep fans out one probe per core endpoint concurrently
// (original's `asyncio.gather` over the fixed core-endpoint set).
func (e *Engine) runHealthSweep(ctx context.Context, strat Strategy) StrategyResult {
	start := time.Now()
	findings := make([]EndpointResult, len(coreEndpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range coreEndpoints {
		i, ep := i, ep
		g.Go(func() error {
			findings[i] = e.probe(gctx, ep.path, ep.name)
			return nil
		})
	}
	_ = g.Wait()

	passed := 0
	for _, f := range findings {
		if f.Passed {
			passed++
		}
	}
	failed := len(findings) - passed
	status := "passed"
	switch {
	case failed == 0:
		status = "passed"
	case passed == 0:
		status = "failed"
	default:
		status = "partial"
	}

	return StrategyResult{
		StrategyID: strat.ID, StrategyName: strat.Name, StrategyType: strat.Type,
		Status: status, Target: strat.Target, DurationMs: ms(time.Since(start)),
		TestsRun: len(findings), TestsPassed: passed, TestsFailed: failed,
		Findings: findings,
	}
}

// runLatencyProbe fires `samples` sequential requests and computes
// p50/p95/p99 (spec §4.F's classical percentile index).
func (e *Engine) runLatencyProbe(ctx context.Context, strat Strategy) StrategyResult {
	start := time.Now()
	endpoint := "/api/agent/health"
	if len(strat.Endpoints) > 0 {
		endpoint = strat.Endpoints[0]
	}
	samples := strat.Samples
	if samples <= 0 {
		samples = 10
	}

	latencies := make([]float64, 0, samples)
	findings := make([]EndpointResult, 0, samples)
	passed := 0
	for i := 0; i < samples; i++ {
		r := e.probe(ctx, endpoint, namef("sample", i+1))
		latencies = append(latencies, r.LatencyMs)
		if r.Passed {
			passed++
		}
		findings = append(findings, r)
	}

	p50, p95, p99 := percentiles(latencies)
	errRate := round1(float64(samples-passed) / float64(samples) * 100)

	status := "passed"
	switch {
	case p99 > 1000 || errRate > 10:
		status = "failed"
	case p99 > 500 || errRate > 0:
		status = "partial"
	}

	return StrategyResult{
		StrategyID: strat.ID, StrategyName: strat.Name, StrategyType: strat.Type,
		Status: status, Target: strat.Target, DurationMs: ms(time.Since(start)),
		TestsRun: samples, TestsPassed: passed, TestsFailed: samples - passed,
		Findings: findings, P50Ms: &p50, P95Ms: &p95, P99Ms: &p99, ErrorRatePct: errRate,
	}
}

// runLoadBurst fires `concurrency` concurrent requests via errgroup to
// simulate a traffic spike.
func (e *Engine) runLoadBurst(ctx context.Context, strat Strategy) StrategyResult {
	start := time.Now()
	endpoint := "/api/cluster/status"
	if len(strat.Endpoints) > 0 {
		endpoint = strat.Endpoints[0]
	}
	concurrency := strat.Concurrency
	if concurrency <= 0 {
		concurrency = 20
	}

	findings := make([]EndpointResult, concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		i := i
		g.Go(func() error {
			findings[i] = e.probe(gctx, endpoint, namef("req", i+1))
			return nil
		})
	}
	_ = g.Wait()

	passed := 0
	latencies := make([]float64, concurrency)
	for i, f := range findings {
		latencies[i] = f.LatencyMs
		if f.Passed {
			passed++
		}
	}
	failed := concurrency - passed
	errRate := round1(float64(failed) / float64(concurrency) * 100)
	p50, p95, p99 := percentiles(latencies)

	status := "passed"
	switch {
	case errRate > 20:
		status = "failed"
	case errRate > 5 || p95 > 800:
		status = "partial"
	}

	return StrategyResult{
		StrategyID: strat.ID, StrategyName: strat.Name, StrategyType: strat.Type,
		Status: status, Target: strat.Target, DurationMs: ms(time.Since(start)),
		TestsRun: concurrency, TestsPassed: passed, TestsFailed: failed,
		Findings: findings, P50Ms: &p50, P95Ms: &p95, P99Ms: &p99, ErrorRatePct: errRate,
	}
}

// runCascade probes endpoints sequentially, continuing past the first
// failure to surface the full blast radius — shared by cascade_sim and
// dependency_chain (the original's `_run_dependency_chain` is a thin
// alias over `_run_cascade_sim`).
func (e *Engine) runCascade(ctx context.Context, strat Strategy) StrategyResult {
	start := time.Now()
	findings := make([]EndpointResult, 0, len(strat.Endpoints)+1)
	passed := 0
	triggered := false

	for _, ep := range strat.Endpoints {
		r := e.probe(ctx, ep, ep)
		findings = append(findings, r)
		if r.Passed {
			passed++
		} else {
			triggered = true
		}
	}
	cascadeFinding := EndpointResult{Endpoint: "cascade_analysis", Name: "Cascade Trigger", Passed: !triggered}
	if triggered {
		cascadeFinding.Error = "Cascade failure detected — downstream propagation possible"
	}
	findings = append(findings, cascadeFinding)

	failed := len(strat.Endpoints) - passed
	status := "passed"
	switch {
	case !triggered:
		status = "passed"
	case passed == 0:
		status = "failed"
	default:
		status = "partial"
	}

	return StrategyResult{
		StrategyID: strat.ID, StrategyName: strat.Name, StrategyType: strat.Type,
		Status: status, Target: strat.Target, DurationMs: ms(time.Since(start)),
		TestsRun: len(strat.Endpoints), TestsPassed: passed, TestsFailed: failed,
		Findings: findings,
	}
}

// percentiles applies spec §4.F's classical index max(0, floor(n*p/100)-1)
// to the sorted sample.
func percentiles(samples []float64) (p50, p95, p99 float64) {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return percentile(sorted, 50), percentile(sorted, 95), percentile(sorted, 99)
}

func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*pct/100) - 1
	if idx < 0 {
		idx = 0
	}
	return round1(sorted[idx])
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func namef(prefix string, n int) string {
	return prefix + "-" + strconv.Itoa(n)
}

// recommendationsFor synthesizes plain-English recommendations per
// strategy type, matching the original's mapping rules.
func recommendationsFor(results []StrategyResult) []string {
	var recs []string
	for _, r := range results {
		switch {
		case r.Status == "failed" && r.StrategyType == "latency_probe":
			recs = append(recs, "P99 latency on "+r.Target+" is critical — review recent deployments and DB query plans.")
		case r.Status != "passed" && r.StrategyType == "load_burst":
			recs = append(recs, "Load burst on "+r.Target+" shows elevated error rate — consider horizontal scaling or rate limiting.")
		case r.Status != "passed" && r.StrategyType == "cascade_sim":
			recs = append(recs, "Cascade simulation on "+r.Target+" detected propagation risk — add circuit breakers on downstream calls.")
		case r.Status != "passed" && r.StrategyType == "health_sweep":
			var failedEndpoints []string
			for _, f := range r.Findings {
				if !f.Passed {
					failedEndpoints = append(failedEndpoints, f.Endpoint)
				}
			}
			if len(failedEndpoints) > 0 {
				recs = append(recs, "Health sweep failures: "+joinComma(failedEndpoints)+" — check service health and network routing.")
			}
		}
	}
	return recs
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
