package agent

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// insightTemplate is one entry of the demo insight library, keyed by
// category, used by GenerateInsights' fallback/demo sweep (SPEC_FULL.md §5).
type insightTemplate struct {
	title          string
	insight        string // fmt format string; any %d verbs are filled by renderInsight
	severity       string
	recommendation string
}

var insightLibrary = map[string][]insightTemplate{
	"performance": {
		{
			title:          "P99 latency exceeds SLO threshold",
			insight:        "P99 latency has been above the 500ms SLO target for the last 3 consecutive measurement windows. Current p99 is %dms against a baseline of %dms — a %d%% increase. This correlates with a recent deployment and increased traffic from upstream services.",
			severity:       "high",
			recommendation: "Investigate the most recent deployment for performance regressions. Consider adding a database query cache or increasing connection pool size from 10 to 25.",
		},
		{
			title:          "Database query bottleneck detected",
			insight:        "The slowest downstream dependency is contributing %dms to total request latency. Unindexed queries on the users table are causing full table scans during peak traffic. Query plan analysis shows sequential scan on 2.3M rows.",
			severity:       "high",
			recommendation: "Add composite index on (user_id, created_at) to the users table. Expected to reduce query time significantly.",
		},
		{
			title:          "Connection pool saturation approaching",
			insight:        "Database connection pool utilization is at 82%% during peak hours (9-11am UTC). At current growth rate, pool exhaustion is projected within 2 weeks. This will cause request queuing and cascading timeouts.",
			severity:       "medium",
			recommendation: "Increase connection pool max_size from 20 to 40 and enable connection pool monitoring via SSM parameter update.",
		},
	},
	"reliability": {
		{
			title:          "Single point of failure — no circuit breaker",
			insight:        "This service has a direct synchronous dependency on an external service with no circuit breaker configured. If the external dependency degrades, cascading failures will propagate to %d upstream services within seconds.",
			severity:       "critical",
			recommendation: "Implement circuit breaker pattern with 5-second timeout, 50% error threshold, and 30-second recovery window. Use SSM parameter for runtime configurability.",
		},
		{
			title:          "Cascade failure risk — deep dependency chain",
			insight:        "Service sits on a dependency chain %d hops deep. A failure at the deepest dependency would cascade through %d services. No bulkhead isolation exists between the critical and non-critical paths.",
			severity:       "high",
			recommendation: "Implement bulkhead pattern to isolate critical payment path from non-critical analytics path. Add async fallback for non-essential downstream calls.",
		},
		{
			title:          "Missing health check endpoint",
			insight:        "Service lacks a deep health check that validates downstream connectivity. Current /health endpoint only returns 200 OK without checking database or cache reachability.",
			severity:       "medium",
			recommendation: "Implement deep health check that validates DB connection, cache connectivity, and critical downstream service reachability.",
		},
	},
	"cost": {
		{
			title:          "Over-provisioned — CPU utilization consistently low",
			insight:        "Average CPU utilization over the past 7 days is %d%%, with peak never exceeding 28%%. Current instance count is roughly 2x what traffic requires.",
			severity:       "medium",
			recommendation: "Scale down and enable HPA with target CPU 60% to handle traffic spikes.",
		},
		{
			title:          "Idle Redis cache — low hit rate",
			insight:        "Cache hit rate is only 12%% — most requests bypass cache due to short TTL on frequently accessed but rarely changing data.",
			severity:       "low",
			recommendation: "Increase TTL for catalog data and user profiles. Expected cache hit rate improvement reduces database load.",
		},
	},
	"optimization": {
		{
			title:          "Request batching opportunity",
			insight:        "Service makes %d individual downstream calls per minute to the same dependency. Analysis shows a majority could be batched into bulk requests.",
			severity:       "medium",
			recommendation: "Implement request batching with a 50ms collection window.",
		},
		{
			title:          "Async processing candidate",
			insight:        "A large share of request processing time is spent on non-blocking operations (logging, analytics events, notification dispatch).",
			severity:       "low",
			recommendation: "Move analytics and notification dispatch to async queue processing.",
		},
	},
}

// patternTemplate is one entry of the cross-service demo pattern library.
type patternTemplate struct {
	patternType    string
	description    string // may reference %d occurrences
	confidence     float64
	recommendation string
}

var patternLibrary = []patternTemplate{
	{
		patternType:    "periodic_overload",
		description:    "CPU usage spikes above 85%% every weekday between 9:00-10:30am UTC, correlating with business-hours traffic surge. Pattern detected across %d observations over 3 weeks.",
		confidence:     0.92,
		recommendation: "Configure pre-emptive auto-scaling at 8:45am UTC. Add 2 warm instances before the traffic ramp.",
	},
	{
		patternType:    "latency_spike",
		description:    "P99 latency spikes to 3x baseline every 4 hours, lasting 2-3 minutes. Correlates with garbage collection pauses — heap usage reaches 92%% before GC triggers.",
		confidence:     0.87,
		recommendation: "Tune GC settings for sub-millisecond pause times. Increase heap headroom.",
	},
	{
		patternType:    "cascade_risk",
		description:    "When a core upstream dependency's response time exceeds 2000ms, dependent services degrade within 30 seconds. Observed in %d of the last 20 incidents.",
		confidence:     0.95,
		recommendation: "Add a 1500ms timeout with circuit breaker on the dependency. Implement retry with exponential backoff.",
	},
	{
		patternType:    "dependency_bottleneck",
		description:    "A shared datastore is the slowest dependency for multiple services, contributing a large share of total request latency chain-wide. Connection pool contention detected during peak hours.",
		confidence:     0.88,
		recommendation: "Add a read replica for analytics and reporting queries. Implement connection pooling.",
	},
	{
		patternType:    "correlated_degradation",
		description:    "Cache latency spikes correlate with degradation on two other services within 10 seconds. Memory fragmentation exceeds expected bounds during peak load.",
		confidence:     0.83,
		recommendation: "Enable active cache defragmentation and an eviction policy tuned for the working set.",
	},
}

// simulatedServiceMetrics is the deterministic-demo metric snapshot used to
// fill insight templates and derive a health score for GenerateInsights.
type simulatedServiceMetrics struct {
	p99, avg, errorRate float64
	cpu, rpm            int
	healthScore         int
	blastRadius, hops   int
	depLatency          int
}

func simulateMetrics(rng *rand.Rand) simulatedServiceMetrics {
	p99 := float64(150 + rng.IntN(2500-150))
	avg := float64(50 + rng.IntN(int(p99*0.6)-50+1))
	cpu := 8 + rng.IntN(95-8)
	rpm := 100 + rng.IntN(8000-100)
	errRate := round1(uniform(rng, 0, 8))
	health := maxInt(5, 100-int(p99/20)-int(errRate*5))
	return simulatedServiceMetrics{
		p99: p99, avg: avg, errorRate: errRate, cpu: cpu, rpm: rpm,
		healthScore: health,
		blastRadius: 2 + rng.IntN(7),
		hops:        2 + rng.IntN(4),
		depLatency:  80 + rng.IntN(521),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// renderInsight fills an insightTemplate's placeholders using Go's
// positional Sprintf against the template's own field order, matching the
// original's named-placeholder `.format(...)` call with the subset of
// fields each template actually references.
func renderInsight(t insightTemplate, m simulatedServiceMetrics, baselineP99 float64) string {
	pctIncrease := int(((m.p99 - baselineP99) / maxFloat(baselineP99, 1)) * 100)
	if pctIncrease < 15 {
		pctIncrease = 15
	}
	switch t.title {
	case "P99 latency exceeds SLO threshold":
		return fmt.Sprintf(t.insight, int(m.p99), int(baselineP99), pctIncrease)
	case "Database query bottleneck detected":
		return fmt.Sprintf(t.insight, m.depLatency)
	case "Single point of failure — no circuit breaker":
		return fmt.Sprintf(t.insight, m.blastRadius)
	case "Cascade failure risk — deep dependency chain":
		return fmt.Sprintf(t.insight, m.hops, m.blastRadius)
	case "Over-provisioned — CPU utilization consistently low":
		return fmt.Sprintf(t.insight, m.cpu)
	case "Request batching opportunity":
		return fmt.Sprintf(t.insight, m.rpm)
	default:
		return fmt.Sprintf(t.insight)
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// renderPattern substitutes the occurrence count only into templates that
// actually reference it — a bare fmt.Sprintf would append a "%!(EXTRA ...)"
// suffix to templates with no verb.
func renderPattern(pt patternTemplate, occurrences int) string {
	if strings.Contains(pt.description, "%d") {
		return fmt.Sprintf(pt.description, occurrences)
	}
	return fmt.Sprintf(pt.description)
}

// globalPatternTemplate shares patternTemplate's shape; the global templates
// below contain no format verbs, so their descriptions are stored verbatim.
type globalPatternTemplate = patternTemplate

// globalPatternTemplates mirrors agent.py's global_templates sampled once
// per GenerateInsights sweep for a cross-service correlated-failure pattern.
var globalPatternTemplates = []globalPatternTemplate{
	{
		patternType:    "cascade_failure",
		description:    "Correlated degradation detected: when the database tier experiences elevated latency, multiple application-layer services degrade within 30 seconds. This cascade pattern has been observed repeatedly in the last 14 days.",
		confidence:     0.9,
		recommendation: "Implement bulkhead isolation between critical and non-critical database query paths. Add circuit breakers with a 2s timeout on all DB-dependent services.",
	},
	{
		patternType:    "deployment_risk",
		description:    "Deployments to tightly-coupled services within the same 30-minute window have caused multiple incidents in the last month. Services share database connections and cache keys, creating implicit coupling.",
		confidence:     0.8,
		recommendation: "Implement staggered deployment windows with 15-minute gaps between dependent services. Add a canary analysis gate requiring metric stability before full rollout.",
	},
}
