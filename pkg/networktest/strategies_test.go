package networktest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forge-sre/forge/pkg/store"
)

func TestGenerateStrategies_AlwaysIncludesOneHealthSweep(t *testing.T) {
	strategies := GenerateStrategies(nil, nil)
	count := 0
	for _, s := range strategies {
		if s.Type == "health_sweep" {
			count++
			assert.Equal(t, "all", s.Target)
			assert.Equal(t, "baseline", s.DerivedFrom)
		}
	}
	assert.Equal(t, 1, count)
}

// TestGenerateStrategies_E4 mirrors spec E4: one insight containing
// "latency" on service X, one cascade_risk pattern on service Y.
func TestGenerateStrategies_E4(t *testing.T) {
	insights := []store.InsightView{
		{Insight: store.Insight{ID: "ins-1", Title: "P99 latency rising", Insight: "latency trending up"}, Service: "X"},
	}
	patterns := []store.PatternView{
		{Pattern: store.Pattern{ID: "pat-1", Type: "cascade_risk", Description: "cascade risk detected", Confidence: 0.9}, Service: "Y"},
	}

	strategies := GenerateStrategies(insights, patterns)

	byType := map[string][]Strategy{}
	for _, s := range strategies {
		byType[s.Type] = append(byType[s.Type], s)
	}
	assert.Len(t, byType["health_sweep"], 1)
	assert.Len(t, byType["latency_probe"], 1)
	assert.Equal(t, "X", byType["latency_probe"][0].Target)
	assert.Len(t, byType["cascade_sim"], 1)
	assert.Equal(t, "Y", byType["cascade_sim"][0].Target)
	assert.Empty(t, byType["load_burst"])
	assert.Empty(t, byType["dependency_chain"])
}

func TestGenerateStrategies_DoesNotDuplicateLatencyProbePerService(t *testing.T) {
	insights := []store.InsightView{
		{Insight: store.Insight{ID: "ins-1", Title: "slow responses", Insight: "p99 latency spike", Timestamp: time.Now()}, Service: "X"},
		{Insight: store.Insight{ID: "ins-2", Title: "timeout errors", Insight: "response time degraded", Timestamp: time.Now()}, Service: "X"},
	}
	strategies := GenerateStrategies(insights, nil)

	count := 0
	for _, s := range strategies {
		if s.Type == "latency_probe" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGenerateStrategies_DependencyAndBottleneckPatternsAlwaysAddChain(t *testing.T) {
	patterns := []store.PatternView{
		{Pattern: store.Pattern{ID: "p1", Type: "dependency_bottleneck", Description: "shared datastore bottleneck"}, Service: "svc-a"},
	}
	strategies := GenerateStrategies(nil, patterns)

	count := 0
	for _, s := range strategies {
		if s.Type == "dependency_chain" {
			count++
			assert.Equal(t, "svc-a", s.Target)
		}
	}
	assert.Equal(t, 1, count)
}

func TestGenerateStrategies_LoadBurstTriggeredByOverloadKeywords(t *testing.T) {
	insights := []store.InsightView{
		{Insight: store.Insight{ID: "ins-1", Title: "CPU spike", Insight: "cpu usage climbing during traffic surge"}, Service: "svc-b"},
	}
	strategies := GenerateStrategies(insights, nil)

	found := false
	for _, s := range strategies {
		if s.Type == "load_burst" {
			found = true
			assert.Equal(t, 20, s.Concurrency)
			assert.Equal(t, "svc-b", s.Target)
		}
	}
	assert.True(t, found)
}
