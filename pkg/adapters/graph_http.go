package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// HTTPGraphAdapter talks to the service-topology graph backend over plain
// JSON/HTTP, the same shape the original's `graph_client` used against its
// Neo4j-fronting service (SPEC_FULL.md §4.D).
type HTTPGraphAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGraphAdapter builds a client bound to baseURL with the given call
// timeout (spec §5's "graph default timeout").
func NewHTTPGraphAdapter(baseURL string, timeout time.Duration) *HTTPGraphAdapter {
	return &HTTPGraphAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *HTTPGraphAdapter) get(ctx context.Context, path string, query url.Values, out any) error {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.newRequest", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.do", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ferrors.New(ferrors.KindGraph, "graph.status", fmt.Errorf("graph backend returned HTTP %d for %s", resp.StatusCode, path))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.decode", err)
	}
	return nil
}

func (a *HTTPGraphAdapter) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.marshal", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, newJSONReader(payload))
	if err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.newRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ferrors.New(ferrors.KindGraph, "graph.do", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return ferrors.New(ferrors.KindGraph, "graph.status", fmt.Errorf("graph backend returned HTTP %d for %s", resp.StatusCode, path))
	}
	return nil
}

func (a *HTTPGraphAdapter) ServiceHealth(ctx context.Context, name string) (ServiceHealth, error) {
	var out ServiceHealth
	err := a.get(ctx, "/services/"+url.PathEscape(name), nil, &out)
	return out, err
}

func (a *HTTPGraphAdapter) Dependencies(ctx context.Context, name string) ([]DependencyEdge, error) {
	var out []DependencyEdge
	err := a.get(ctx, "/services/"+url.PathEscape(name)+"/dependencies", nil, &out)
	return out, err
}

func (a *HTTPGraphAdapter) BlastRadius(ctx context.Context, name string, maxHops int) ([]string, error) {
	var out []string
	q := url.Values{"max_hops": {fmt.Sprintf("%d", maxHops)}}
	err := a.get(ctx, "/services/"+url.PathEscape(name)+"/blast-radius", q, &out)
	return out, err
}

func (a *HTTPGraphAdapter) RecentChanges(ctx context.Context, name string, hours int) ([]Deployment, error) {
	var out []Deployment
	q := url.Values{"hours": {fmt.Sprintf("%d", hours)}}
	err := a.get(ctx, "/services/"+url.PathEscape(name)+"/deployments", q, &out)
	return out, err
}

func (a *HTTPGraphAdapter) SlowestDependencies(ctx context.Context, name string) ([]DependencyEdge, error) {
	var out []DependencyEdge
	err := a.get(ctx, "/services/"+url.PathEscape(name)+"/slowest-dependencies", nil, &out)
	return out, err
}

func (a *HTTPGraphAdapter) WriteMetrics(ctx context.Context, name string, fields map[string]any) error {
	return a.post(ctx, "/services/"+url.PathEscape(name)+"/metrics", fields)
}

func (a *HTTPGraphAdapter) ListServices(ctx context.Context) ([]string, error) {
	var out []string
	err := a.get(ctx, "/services", nil, &out)
	return out, err
}
