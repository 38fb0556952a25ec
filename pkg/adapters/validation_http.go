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

// HTTPValidationAdapter drives post-remediation validation probes against
// the platform's own HTTP surface, grounded on the original's
// `testsprite_client`/internal-probe split (SPEC_FULL.md §4.D). Default
// timeout is 8s per spec §5.
type HTTPValidationAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPValidationAdapter builds a client bound to baseURL.
func NewHTTPValidationAdapter(baseURL string) *HTTPValidationAdapter {
	return &HTTPValidationAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

func (a *HTTPValidationAdapter) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return ferrors.New(ferrors.KindValidation, "validation.marshal", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, newJSONReader(payload))
	if err != nil {
		return ferrors.New(ferrors.KindValidation, "validation.newRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ferrors.New(ferrors.KindValidation, "validation.do", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ferrors.New(ferrors.KindValidation, "validation.status", fmt.Errorf("validation backend returned HTTP %d for %s", resp.StatusCode, path))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ferrors.New(ferrors.KindValidation, "validation.decode", err)
	}
	return nil
}

func (a *HTTPValidationAdapter) ValidateRecovery(ctx context.Context, service string, baselineP99 float64, suite string) (RecoveryResult, error) {
	var out RecoveryResult
	body := map[string]any{"service": service, "baseline_p99_ms": baselineP99, "suite": suite}
	err := a.post(ctx, "/validate/recovery", body, &out)
	return out, err
}

func (a *HTTPValidationAdapter) ValidateScaleStability(ctx context.Context, service, direction string, before, after, waitSec int, suite string) (StabilityResult, error) {
	var out StabilityResult
	body := map[string]any{
		"service":         service,
		"direction":       direction,
		"replicas_before": before,
		"replicas_after":  after,
		"wait_seconds":    waitSec,
		"suite":           suite,
	}
	err := a.post(ctx, "/validate/scale-stability", body, &out)
	return out, err
}

func (a *HTTPValidationAdapter) NetworkAfterScale(ctx context.Context, trigger, replicaName string) (StabilityResult, error) {
	var out StabilityResult
	q := url.Values{"trigger": {trigger}, "replica": {replicaName}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/validate/network-after-scale?"+q.Encode(), nil)
	if err != nil {
		return out, ferrors.New(ferrors.KindValidation, "validation.newRequest", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return out, ferrors.New(ferrors.KindValidation, "validation.do", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, ferrors.New(ferrors.KindValidation, "validation.status", fmt.Errorf("validation backend returned HTTP %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, ferrors.New(ferrors.KindValidation, "validation.decode", err)
	}
	return out, nil
}
