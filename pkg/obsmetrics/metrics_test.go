package obsmetrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest_ExposedOnScrape(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("GET", "/api/cluster/status", "200", 15*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "forge_http_requests_total")
	assert.True(t, strings.Contains(body, `method="GET"`))
}

func TestRecordScaleEvent_UpdatesGauges(t *testing.T) {
	m := New()
	m.RecordScaleEvent("up", "tick", 3, 2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "forge_cluster_scale_events_total")
	assert.Contains(t, body, "forge_cluster_replicas 3")
	assert.Contains(t, body, "forge_cluster_queue_depth 2")
}

func TestRecordValidationAndNetworkTestRun(t *testing.T) {
	m := New()
	m.RecordValidation("passed")
	m.RecordNetworkTestRun("partial")
	m.RecordInsight("reliability", "high")
	m.RecordPattern()
	m.RecordToolCall("recall_service_history", "ok")
	m.RecordRemediationAction("scale_ecs", "succeeded")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, name := range []string{
		"forge_cluster_validations_total",
		"forge_network_test_runs_total",
		"forge_insights_stored_total",
		"forge_patterns_stored_total",
		"forge_agent_tool_calls_total",
		"forge_remediation_actions_total",
	} {
		assert.Contains(t, body, name)
	}
}

func TestNew_UsesOwnRegistryNotGlobal(t *testing.T) {
	a := New()
	b := New()
	// Each call gets its own registry; registering the same collector
	// names twice against the default registerer would panic.
	assert.NotPanics(t, func() {
		a.RecordScaleEvent("up", "tick", 1, 0)
		b.RecordScaleEvent("down", "tick", 1, 0)
	})
}
