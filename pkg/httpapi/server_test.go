package httpapi

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/forge-sre/forge/pkg/actionlog"
	"github.com/forge-sre/forge/pkg/activity"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/agent"
	"github.com/forge-sre/forge/pkg/cluster"
	"github.com/forge-sre/forge/pkg/config"
	"github.com/forge-sre/forge/pkg/networktest"
	"github.com/forge-sre/forge/pkg/store"
)

// testServer wires a Server against fakes and a scratch Knowledge Store, for
// use across the handler test files in this package.
type testServer struct {
	srv       *Server
	graph     *adapters.FakeGraphAdapter
	metrics   *adapters.FakeMetricsAdapter
	remed     *adapters.FakeRemediationAdapter
	validate  *adapters.FakeValidationAdapter
	llm       *adapters.FakeLLMAdapter
	st        *store.Store
	coord     *cluster.Coordinator
	actionLog *actionlog.Log
}

func testTuning() *config.TuningConfig {
	return &config.TuningConfig{
		MaxServicesPerAgent:  5,
		QueueHighWatermark:   3,
		QueueLowWatermark:    1,
		MaxReplicas:          6,
		MinReplicas:          1,
		ScaleCooldownSeconds: 15,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)

	activityLog := activity.New()
	actionLog := actionlog.New()

	graph := adapters.NewFakeGraphAdapter()
	metrics := adapters.NewFakeMetricsAdapter()
	remed := adapters.NewFakeRemediationAdapter()
	validate := adapters.NewFakeValidationAdapter()
	llm := adapters.NewFakeLLMAdapter()

	demo := &config.DemoConfig{FallbackEnabled: true}
	tuning := testTuning()

	orchestrator := agent.New(st, activityLog, actionLog, graph, metrics, remed, validate, llm, nil, demo, tuning)
	netEngine := networktest.New("http://127.0.0.1:0", st)
	coord := cluster.New(tuning, validate, activityLog)

	srv := NewServer(st, activityLog, actionLog, orchestrator, netEngine, coord,
		graph, metrics, remed, validate, demo, nil)

	return &testServer{
		srv: srv, graph: graph, metrics: metrics, remed: remed,
		validate: validate, llm: llm, st: st, coord: coord, actionLog: actionLog,
	}
}

func seedService(ts *testServer, name string) {
	ts.graph.Services[name] = adapters.ServiceHealth{
		Name: name, Type: "internal", Team: "core", Criticality: "high",
		HealthScore: 90, AvgLatencyMs: 50, P99LatencyMs: 120, UpdatedAt: time.Now().UTC(),
	}
}

// newEchoCtx builds an echo request context for a handler call, optionally
// with a JSON body.
func newEchoCtx(method, target, body string) (*echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
