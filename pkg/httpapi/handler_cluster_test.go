package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterStatusHandler_ReturnsBootstrappedPrimary(t *testing.T) {
	ts := newTestServer(t)
	c, rec := newEchoCtx(http.MethodGet, "/api/cluster/status", "")

	require.NoError(t, ts.srv.clusterStatusHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		TotalReplicas int `json:"total_replicas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.TotalReplicas)
}

func TestClusterEnqueueHandler_RejectsMissingServiceName(t *testing.T) {
	ts := newTestServer(t)
	c, rec := newEchoCtx(http.MethodPost, "/api/cluster/enqueue", `{"task_type":"analyze"}`)

	err := ts.srv.clusterEnqueueHandler(c)
	require.Error(t, err)
	_ = rec
}

func TestClusterEnqueueHandler_DefaultsTaskTypeAndReturnsQueueDepth(t *testing.T) {
	ts := newTestServer(t)
	c, rec := newEchoCtx(http.MethodPost, "/api/cluster/enqueue", `{"service_name":"checkout-service"}`)

	require.NoError(t, ts.srv.clusterEnqueueHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status     string `json:"status"`
		WorkID     string `json:"work_id"`
		QueueDepth int    `json:"queue_depth"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "enqueued", resp.Status)
	assert.NotEmpty(t, resp.WorkID)
	assert.Equal(t, 1, resp.QueueDepth)
}

func TestClusterSimulateLoadHandler_DefaultsCountAndReportsScaling(t *testing.T) {
	ts := newTestServer(t)
	c, rec := newEchoCtx(http.MethodPost, "/api/cluster/simulate-load", `{}`)

	require.NoError(t, ts.srv.clusterSimulateLoadHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status        string `json:"status"`
		ItemsEnqueued int    `json:"items_enqueued"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "load_simulated", resp.Status)
	assert.Equal(t, 5, resp.ItemsEnqueued)
}

func TestClusterScaleHandler_RejectsInvalidDirection(t *testing.T) {
	ts := newTestServer(t)
	c, _ := newEchoCtx(http.MethodPost, "/api/cluster/scale", `{"direction":"sideways"}`)

	err := ts.srv.clusterScaleHandler(c)
	require.Error(t, err)
}

func TestClusterScaleHandler_DownRejectsAtMinReplicas(t *testing.T) {
	ts := newTestServer(t)
	c, _ := newEchoCtx(http.MethodPost, "/api/cluster/scale", `{"direction":"down","reason":"test"}`)

	err := ts.srv.clusterScaleHandler(c)
	require.Error(t, err)
}

func TestClusterScaleHandler_UpSpawnsReplicaAndRunsValidation(t *testing.T) {
	ts := newTestServer(t)
	c, rec := newEchoCtx(http.MethodPost, "/api/cluster/scale", `{"direction":"up","reason":"manual test"}`)

	require.NoError(t, ts.srv.clusterScaleHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Action        string `json:"action"`
		TotalReplicas int    `json:"total_replicas"`
		NewReplica    string `json:"new_replica"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scale_up", resp.Action)
	assert.Equal(t, 2, resp.TotalReplicas)
	assert.NotEmpty(t, resp.NewReplica)
}

func TestClusterReportHandler_IncludesScalingSummary(t *testing.T) {
	ts := newTestServer(t)
	c, _ := newEchoCtx(http.MethodPost, "/api/cluster/scale", `{"direction":"up","reason":"test"}`)
	require.NoError(t, ts.srv.clusterScaleHandler(c))

	rc, rrec := newEchoCtx(http.MethodGet, "/api/cluster/report", "")
	require.NoError(t, ts.srv.clusterReportHandler(rc))
	assert.Equal(t, http.StatusOK, rrec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rrec.Body.Bytes(), &resp))
	assert.Equal(t, "comprehensive_scale_report", resp["report_type"])
	summary, ok := resp["scaling_summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["total_scale_ups"])
}
