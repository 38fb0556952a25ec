package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeGraphAdapter_BlastRadiusCapsAtMaxHopsAndDedupesCycles(t *testing.T) {
	g := NewFakeGraphAdapter()
	g.Seed(ServiceHealth{Name: "a"})
	g.Seed(ServiceHealth{Name: "b"})
	g.Seed(ServiceHealth{Name: "c"})
	// Cycle: a -> b -> c -> a.
	g.SeedEdge(DependencyEdge{Source: "a", Target: "b"})
	g.SeedEdge(DependencyEdge{Source: "b", Target: "c"})
	g.SeedEdge(DependencyEdge{Source: "c", Target: "a"})

	radius, err := g.BlastRadius(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c", "b"}, radius)
}

func TestFakeGraphAdapter_BlastRadiusHopLimit(t *testing.T) {
	g := NewFakeGraphAdapter()
	for _, n := range []string{"a", "b", "c", "d"} {
		g.Seed(ServiceHealth{Name: n})
	}
	g.SeedEdge(DependencyEdge{Source: "b", Target: "a"})
	g.SeedEdge(DependencyEdge{Source: "c", Target: "b"})
	g.SeedEdge(DependencyEdge{Source: "d", Target: "c"})

	radius, err := g.BlastRadius(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, radius)
}

func TestFakeMetricsAdapter_SeedDerivesHealthAndLatency(t *testing.T) {
	m := NewFakeMetricsAdapter()
	m.Seed("svc-a", LiveMetrics{CPUUsagePercent: 90, MemUsagePercent: 40})

	lm, err := m.LiveMetricsForService(context.Background(), "svc-a")
	require.NoError(t, err)
	assert.Equal(t, 70, lm.HealthScore)
	assert.Equal(t, 650.0, lm.P99LatencyMs)
}

func TestFakeRemediationAdapter_RecordsCallDetail(t *testing.T) {
	r := NewFakeRemediationAdapter()
	res, err := r.ScaleService(context.Background(), "forge-services", "svc-a", 3, "queue_depth high")
	require.NoError(t, err)
	assert.Equal(t, "scale_ecs", res.ActionType)
	assert.True(t, res.Succeeded)
	assert.Equal(t, 3, res.Detail["desired_count"])
}

func TestFakeLLMAdapter_ReturnsConfiguredError(t *testing.T) {
	l := NewFakeLLMAdapter()
	l.Err = assert.AnError
	_, err := l.Invoke(context.Background(), "sys", "user", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, l.Calls)
}
