package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-sre/forge/pkg/adapters"
)

func TestGraphHandler_StreamsNodesAndLinks(t *testing.T) {
	ts := newTestServer(t)
	seedService(ts, "api-gateway")
	seedService(ts, "checkout-service")
	ts.graph.Edges = append(ts.graph.Edges, adapters.DependencyEdge{
		Source: "api-gateway", Target: "checkout-service", AvgLatencyMs: 20, P99LatencyMs: 80, RequestsPerMin: 100,
	})

	c, rec := newEchoCtx(http.MethodGet, "/api/graph/", "")
	require.NoError(t, ts.srv.graphHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Nodes []graphNode `json:"nodes"`
		Links []graphLink `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Nodes, 2)
	require.Len(t, body.Links, 1)
	assert.Equal(t, "api-gateway", body.Links[0].Source)
}

func TestGraphServiceHandler_ReturnsEgoGraphCenteredOnService(t *testing.T) {
	ts := newTestServer(t)
	seedService(ts, "api-gateway")
	seedService(ts, "checkout-service")
	ts.graph.Edges = append(ts.graph.Edges, adapters.DependencyEdge{
		Source: "api-gateway", Target: "checkout-service",
	})

	c, rec := newEchoCtx(http.MethodGet, "/api/graph/service/checkout-service?hops=1", "")
	c.SetParamNames("name")
	c.SetParamValues("checkout-service")

	require.NoError(t, ts.srv.graphServiceHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "checkout-service", body["center"])
}

func TestNodeColor_ThresholdsMatchSeverityBands(t *testing.T) {
	assert.Equal(t, "green", nodeColor(80))
	assert.Equal(t, "amber", nodeColor(50))
	assert.Equal(t, "red", nodeColor(49))
}
