package networktest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/forge-sre/forge/pkg/store"
)

func strategyID() string {
	return "strat-" + uuid.New().String()[:6]
}

var latencyKeywords = []string{"latency", "p99", "slow", "timeout", "response time"}
var overloadKeywords = []string{"overload", "cpu", "spike", "scale", "capacity", "traffic"}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// GenerateStrategies derives test plans from the Knowledge Store's current
// insights and patterns, applying the five ordered rules of spec §4.F.
// Each rule's dedup key is tracked in `seen` exactly as the original keys
// on service name or a "load-"/"cascade-" prefixed variant.
func GenerateStrategies(insights []store.InsightView, patterns []store.PatternView) []Strategy {
	var strategies []Strategy

	strategies = append(strategies, Strategy{
		ID:          strategyID(),
		Name:        "Core Endpoint Health Sweep",
		Type:        "health_sweep",
		Description: "Verify all platform API endpoints return 2xx/3xx within the 8s probe timeout.",
		Target:      "all",
		DerivedFrom: "baseline",
		Severity:    "medium",
		Endpoints:   corePaths(),
	})

	seen := map[string]bool{}

	for _, ins := range insights {
		svc := ins.Service
		text := strings.ToLower(ins.Insight + " " + ins.Title)

		if containsAny(text, latencyKeywords) && !seen[svc] {
			strategies = append(strategies, Strategy{
				ID:          strategyID(),
				Name:        "Latency Probe — " + svc,
				Type:        "latency_probe",
				Description: "Run 10 sequential requests to " + svc + " endpoints and compute p50/p95/p99. Derived from insight: '" + ins.Title + "'.",
				Target:      svc,
				DerivedFrom: ins.ID,
				Severity:    ins.Severity,
				Endpoints:   []string{"/api/agent/health", "/api/cluster/status"},
				Samples:     10,
			})
			seen[svc] = true
		}

		loadKey := "load-" + svc
		if containsAny(text, overloadKeywords) && !seen[loadKey] {
			strategies = append(strategies, Strategy{
				ID:          strategyID(),
				Name:        "Load Burst — " + svc,
				Type:        "load_burst",
				Description: "Fire 20 concurrent requests to simulate a traffic spike on " + svc + ". Derived from insight: '" + ins.Title + "'.",
				Target:      svc,
				DerivedFrom: ins.ID,
				Severity:    ins.Severity,
				Endpoints:   []string{"/api/cluster/status", "/api/graph/"},
				Concurrency: 20,
			})
			seen[loadKey] = true
		}
	}

	for _, pat := range patterns {
		svc := pat.Service
		if svc == "" {
			svc = pat.Scope
		}
		severity := "medium"
		if pat.Confidence > 0.7 {
			severity = "high"
		}

		cascadeKey := "cascade-" + svc
		if strings.Contains(pat.Type, "cascade") && !seen[cascadeKey] {
			strategies = append(strategies, Strategy{
				ID:          strategyID(),
				Name:        "Cascade Simulation — " + svc,
				Type:        "cascade_sim",
				Description: "Probe " + svc + " and its downstream dependencies sequentially to identify where cascade failures originate. Pattern: '" + truncate(pat.Description, 80) + "'.",
				Target:      svc,
				DerivedFrom: pat.ID,
				Severity:    severity,
				Endpoints:   []string{"/api/graph/", "/api/cluster/status", "/api/agent/health"},
			})
			seen[cascadeKey] = true
		}

		if strings.Contains(pat.Type, "dependency") || strings.Contains(pat.Type, "bottleneck") {
			strategies = append(strategies, Strategy{
				ID:          strategyID(),
				Name:        "Dependency Chain — " + svc,
				Type:        "dependency_chain",
				Description: "Walk the known dependency chain for " + svc + " and assert each hop is reachable within SLO. Pattern: '" + truncate(pat.Description, 80) + "'.",
				Target:      svc,
				DerivedFrom: pat.ID,
				Severity:    severity,
				Endpoints:   []string{"/api/graph/", "/api/agent/health", "/api/cluster/status"},
			})
		}
	}

	return strategies
}

func corePaths() []string {
	paths := make([]string, len(coreEndpoints))
	for i, ep := range coreEndpoints {
		paths[i] = ep.path
	}
	return paths
}
