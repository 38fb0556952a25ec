package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkTestStrategiesHandler_ReturnsGeneratedStrategies(t *testing.T) {
	ts := newTestServer(t)

	c, rec := newEchoCtx(http.MethodGet, "/api/network-test/strategies", "")
	require.NoError(t, ts.srv.networkTestStrategiesHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Count, 0)
}

func TestNetworkTestRunHandler_AppendsToResultsHistory(t *testing.T) {
	ts := newTestServer(t)

	c, rec := newEchoCtx(http.MethodPost, "/api/network-test/run", `{}`)
	require.NoError(t, ts.srv.networkTestRunHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rc, rrec := newEchoCtx(http.MethodGet, "/api/network-test/results", "")
	require.NoError(t, ts.srv.networkTestResultsHandler(rc))
	assert.Equal(t, http.StatusOK, rrec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rrec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestNetworkTestResultsHandler_EmptyWhenNoRunsYet(t *testing.T) {
	ts := newTestServer(t)

	c, rec := newEchoCtx(http.MethodGet, "/api/network-test/results", "")
	require.NoError(t, ts.srv.networkTestResultsHandler(c))

	var resp struct {
		Count  int  `json:"count"`
		Latest any  `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.Nil(t, resp.Latest)
}
