package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.json")
	s, err := New(path)
	require.NoError(t, err)
	return s
}

func TestNew_CreatesDefaultDocumentWhenMissing(t *testing.T) {
	s := newTestStore(t)
	mem := s.LoadMemory()

	assert.Equal(t, "1.0", mem.Version)
	assert.Empty(t, mem.Services)
	assert.Empty(t, mem.GlobalPatterns)
	assert.Empty(t, mem.AnalysisHistory)
}

func TestAddInsight_AppearsExactlyOnceWithOpenStatus(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddInsight("svc-a", Insight{
		Category: "performance",
		Severity: "high",
		Title:    "elevated p99",
		Insight:  "p99 latency trending up",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all := s.GetAllInsights("")
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, "svc-a", all[0].Service)
	assert.Equal(t, "open", all[0].Status)
	assert.False(t, all[0].Timestamp.IsZero())
}

func TestAddPattern_MergeInvariant(t *testing.T) {
	s := newTestStore(t)

	p := Pattern{
		Type:        "latency_spike",
		Description: "P99 latency spikes every 4 hours",
		Confidence:  0.5,
	}

	id1, err := s.AddPattern("svc-a", p)
	require.NoError(t, err)

	id2, err := s.AddPattern("svc-a", p)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "merging the same pattern must return the same id")

	patterns := s.GetAllPatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, 2, patterns[0].Occurrences)
	assert.InDelta(t, 0.52, patterns[0].Confidence, 1e-9)
}

func TestAddPattern_ConfidenceClampedAt99(t *testing.T) {
	s := newTestStore(t)
	p := Pattern{Type: "latency_spike", Description: "same pattern text here", Confidence: 0.97}

	var id string
	for i := 0; i < 10; i++ {
		var err error
		id, err = s.AddPattern("svc-a", p)
		require.NoError(t, err)
	}

	patterns := s.GetAllPatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, id, patterns[0].ID)
	assert.LessOrEqual(t, patterns[0].Confidence, 0.99)
}

func TestAddPattern_DifferentTypeDoesNotMerge(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddPattern("svc-a", Pattern{Type: "latency_spike", Description: "slow responses"})
	require.NoError(t, err)
	_, err = s.AddPattern("svc-a", Pattern{Type: "cascade_risk", Description: "slow responses"})
	require.NoError(t, err)

	patterns := s.GetAllPatterns()
	assert.Len(t, patterns, 2)
}

func TestUpdateInsightStatus_UpdatesKnownIDAndReportsUnknown(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddInsight("svc-a", Insight{Severity: "high", Recommendation: "scale up"})
	require.NoError(t, err)

	found, err := s.UpdateInsightStatus(id, "acknowledged")
	require.NoError(t, err)
	assert.True(t, found)

	all := s.GetAllInsights("")
	require.Len(t, all, 1)
	assert.Equal(t, "acknowledged", all[0].Status)

	found, err = s.UpdateInsightStatus("does-not-exist", "resolved")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetRecommendations_FiltersBySeverityAndRecommendation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddInsight("svc-a", Insight{Severity: "high", Recommendation: "scale up"})
	require.NoError(t, err)
	_, err = s.AddInsight("svc-a", Insight{Severity: "low", Recommendation: "ignore"})
	require.NoError(t, err)
	_, err = s.AddInsight("svc-a", Insight{Severity: "critical", Recommendation: ""})
	require.NoError(t, err)

	recs := s.GetRecommendations()
	require.Len(t, recs, 1)
	assert.Equal(t, "scale up", recs[0].Recommendation)
}

func TestGetRecommendations_ExcludesAcknowledged(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddInsight("svc-a", Insight{Severity: "critical", Recommendation: "rollback"})
	require.NoError(t, err)

	assert.Len(t, s.GetRecommendations(), 1)

	_, err = s.UpdateInsightStatus(id, "acknowledged")
	require.NoError(t, err)
	assert.Empty(t, s.GetRecommendations())
}

func TestRecordAnalysis_CapsAt100(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 105; i++ {
		_, err := s.RecordAnalysis(AnalysisSession{Trigger: "manual", ServicesAnalyzed: []string{"svc-a"}})
		require.NoError(t, err)
	}

	mem := s.LoadMemory()
	assert.Len(t, mem.AnalysisHistory, 100)
}

func TestUpdateBaseline_StampsMeasuredAt(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateBaseline("svc-a", map[string]any{"p99_latency_ms": 320.0})
	require.NoError(t, err)

	view, err := s.GetServiceMemory("svc-a")
	require.NoError(t, err)
	assert.Equal(t, 320.0, view.BaselineMetrics["p99_latency_ms"])
	assert.Contains(t, view.BaselineMetrics, "measured_at")
}

func TestAddGlobalPattern_TaggedGlobalScope(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddGlobalPattern(Pattern{Type: "correlated_degradation", Description: "cross-service slowdown", ServicesInvolved: []string{"svc-a", "svc-b"}})
	require.NoError(t, err)

	patterns := s.GetAllPatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, "global", patterns[0].Scope)
}

func TestNew_ReopensPersistedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.json")
	s1, err := New(path)
	require.NoError(t, err)
	_, err = s1.AddInsight("svc-a", Insight{Severity: "high"})
	require.NoError(t, err)

	s2, err := New(path)
	require.NoError(t, err)
	assert.Len(t, s2.GetAllInsights(""), 1)
}
