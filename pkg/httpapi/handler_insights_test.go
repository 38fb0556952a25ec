package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/store"
)

func TestListInsightsHandler_FiltersBySeverityAndCategory(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.st.AddInsight("checkout-service", store.Insight{
		Category: "reliability", Severity: "high", Title: "t1", Insight: "i1", Status: "open",
	})
	require.NoError(t, err)
	_, err = ts.st.AddInsight("checkout-service", store.Insight{
		Category: "cost", Severity: "low", Title: "t2", Insight: "i2", Status: "open",
	})
	require.NoError(t, err)

	c, rec := newEchoCtx(http.MethodGet, "/api/insights/?severity=high", "")
	require.NoError(t, ts.srv.listInsightsHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Insights []store.InsightView `json:"insights"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "t1", resp.Insights[0].Title)
}

func TestPatchInsightHandler_RejectsInvalidStatus(t *testing.T) {
	ts := newTestServer(t)
	id, err := ts.st.AddInsight("checkout-service", store.Insight{
		Category: "reliability", Severity: "high", Title: "t1", Insight: "i1", Status: "open",
	})
	require.NoError(t, err)

	c, _ := newEchoCtx(http.MethodPatch, "/api/insights/"+id, `{"status":"bogus"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)

	err = ts.srv.patchInsightHandler(c)
	require.Error(t, err)
}

func TestPatchInsightHandler_UpdatesKnownInsight(t *testing.T) {
	ts := newTestServer(t)
	id, err := ts.st.AddInsight("checkout-service", store.Insight{
		Category: "reliability", Severity: "high", Title: "t1", Insight: "i1", Status: "open",
	})
	require.NoError(t, err)

	c, rec := newEchoCtx(http.MethodPatch, "/api/insights/"+id, `{"status":"acknowledged"}`)
	c.SetParamNames("id")
	c.SetParamValues(id)

	require.NoError(t, ts.srv.patchInsightHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPatchInsightHandler_NotFoundForUnknownID(t *testing.T) {
	ts := newTestServer(t)
	c, _ := newEchoCtx(http.MethodPatch, "/api/insights/nope", `{"status":"open"}`)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := ts.srv.patchInsightHandler(c)
	require.Error(t, err)
}

func TestGenerateInsightsHandler_ScopedToOneService(t *testing.T) {
	ts := newTestServer(t)
	seedService(ts, "checkout-service")
	ts.metrics.Seed("checkout-service", adapters.LiveMetrics{HealthScore: 90, P99LatencyMs: 120})

	body := `{"service_name":"checkout-service"}`
	c, rec := newEchoCtx(http.MethodPost, "/api/insights/generate", body)

	err := ts.srv.generateInsightsHandler(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
