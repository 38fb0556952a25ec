package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// HTTPMetricsAdapter talks to the observability backend over plain
// JSON/HTTP, mirroring the original's Datadog-shaped `metrics_client`
// (SPEC_FULL.md §4.D). Default timeout is 10s per spec §5.
type HTTPMetricsAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPMetricsAdapter builds a client bound to baseURL.
func NewHTTPMetricsAdapter(baseURL string) *HTTPMetricsAdapter {
	return &HTTPMetricsAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *HTTPMetricsAdapter) get(ctx context.Context, path string, query url.Values, out any) error {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ferrors.New(ferrors.KindMetrics, "metrics.newRequest", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ferrors.New(ferrors.KindMetrics, "metrics.do", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ferrors.New(ferrors.KindMetrics, "metrics.status", fmt.Errorf("metrics backend returned HTTP %d for %s", resp.StatusCode, path))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ferrors.New(ferrors.KindMetrics, "metrics.decode", err)
	}
	return nil
}

func (a *HTTPMetricsAdapter) MonitorsSnapshot(ctx context.Context) ([]Monitor, error) {
	var out []Monitor
	err := a.get(ctx, "/monitors", nil, &out)
	return out, err
}

func (a *HTTPMetricsAdapter) RecentEvents(ctx context.Context, hoursBack int, filterTags []string, max int) ([]Event, error) {
	var out []Event
	q := url.Values{
		"hours_back": {fmt.Sprintf("%d", hoursBack)},
		"max":        {fmt.Sprintf("%d", max)},
	}
	if len(filterTags) > 0 {
		q.Set("tags", strings.Join(filterTags, ","))
	}
	err := a.get(ctx, "/events", q, &out)
	return out, err
}

func (a *HTTPMetricsAdapter) ContainerMetrics(ctx context.Context, namespace string, windowMin int) ([]ContainerMetricSample, error) {
	var out []ContainerMetricSample
	q := url.Values{"namespace": {namespace}, "window_min": {fmt.Sprintf("%d", windowMin)}}
	err := a.get(ctx, "/container-metrics", q, &out)
	return out, err
}

func (a *HTTPMetricsAdapter) QueryMetric(ctx context.Context, query string, fromMin, toMin int) ([]MetricPoint, error) {
	var out []MetricPoint
	q := url.Values{
		"query":    {query},
		"from_min": {fmt.Sprintf("%d", fromMin)},
		"to_min":   {fmt.Sprintf("%d", toMin)},
	}
	err := a.get(ctx, "/query", q, &out)
	return out, err
}

func (a *HTTPMetricsAdapter) ActiveMetricsSummary(ctx context.Context, windowMin int) (MetricsSummary, error) {
	var out MetricsSummary
	q := url.Values{"window_min": {fmt.Sprintf("%d", windowMin)}}
	err := a.get(ctx, "/summary", q, &out)
	return out, err
}

func (a *HTTPMetricsAdapter) LiveMetricsForService(ctx context.Context, name string) (LiveMetrics, error) {
	var out LiveMetrics
	err := a.get(ctx, "/services/"+url.PathEscape(name)+"/live", nil, &out)
	return out, err
}
