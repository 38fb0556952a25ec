package adapters

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// defaultBreakerSettings opens after 5 consecutive failures, half-opens
// after 30s, and trips on the next failure in half-open state — giving the
// orchestrator's graceful-degradation paths (spec §5) a real circuit
// instead of ad hoc retry counters around every adapter call.
func defaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

// BreakingGraphAdapter wraps a GraphAdapter so every call is protected by a
// circuit breaker: once the delegate fails repeatedly, calls fail fast
// instead of piling up on a dead endpoint.
type BreakingGraphAdapter struct {
	delegate GraphAdapter
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreakingGraphAdapter wraps delegate with a circuit breaker.
func NewBreakingGraphAdapter(delegate GraphAdapter) *BreakingGraphAdapter {
	return &BreakingGraphAdapter{delegate: delegate, cb: gobreaker.NewCircuitBreaker[any](defaultBreakerSettings("graph"))}
}

func (b *BreakingGraphAdapter) ServiceHealth(ctx context.Context, name string) (ServiceHealth, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ServiceHealth(ctx, name) })
	if err != nil {
		return ServiceHealth{}, err
	}
	return res.(ServiceHealth), nil
}

func (b *BreakingGraphAdapter) Dependencies(ctx context.Context, name string) ([]DependencyEdge, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.Dependencies(ctx, name) })
	if err != nil {
		return nil, err
	}
	return res.([]DependencyEdge), nil
}

func (b *BreakingGraphAdapter) BlastRadius(ctx context.Context, name string, maxHops int) ([]string, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.BlastRadius(ctx, name, maxHops) })
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

func (b *BreakingGraphAdapter) RecentChanges(ctx context.Context, name string, hours int) ([]Deployment, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.RecentChanges(ctx, name, hours) })
	if err != nil {
		return nil, err
	}
	return res.([]Deployment), nil
}

func (b *BreakingGraphAdapter) SlowestDependencies(ctx context.Context, name string) ([]DependencyEdge, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.SlowestDependencies(ctx, name) })
	if err != nil {
		return nil, err
	}
	return res.([]DependencyEdge), nil
}

func (b *BreakingGraphAdapter) WriteMetrics(ctx context.Context, name string, fields map[string]any) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.delegate.WriteMetrics(ctx, name, fields) })
	return err
}

func (b *BreakingGraphAdapter) ListServices(ctx context.Context) ([]string, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ListServices(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

// BreakingMetricsAdapter wraps a MetricsAdapter with a circuit breaker.
type BreakingMetricsAdapter struct {
	delegate MetricsAdapter
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreakingMetricsAdapter wraps delegate with a circuit breaker.
func NewBreakingMetricsAdapter(delegate MetricsAdapter) *BreakingMetricsAdapter {
	return &BreakingMetricsAdapter{delegate: delegate, cb: gobreaker.NewCircuitBreaker[any](defaultBreakerSettings("metrics"))}
}

func (b *BreakingMetricsAdapter) MonitorsSnapshot(ctx context.Context) ([]Monitor, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.MonitorsSnapshot(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]Monitor), nil
}

func (b *BreakingMetricsAdapter) RecentEvents(ctx context.Context, hoursBack int, filterTags []string, max int) ([]Event, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.RecentEvents(ctx, hoursBack, filterTags, max) })
	if err != nil {
		return nil, err
	}
	return res.([]Event), nil
}

func (b *BreakingMetricsAdapter) ContainerMetrics(ctx context.Context, namespace string, windowMin int) ([]ContainerMetricSample, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ContainerMetrics(ctx, namespace, windowMin) })
	if err != nil {
		return nil, err
	}
	return res.([]ContainerMetricSample), nil
}

func (b *BreakingMetricsAdapter) QueryMetric(ctx context.Context, query string, fromMin, toMin int) ([]MetricPoint, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.QueryMetric(ctx, query, fromMin, toMin) })
	if err != nil {
		return nil, err
	}
	return res.([]MetricPoint), nil
}

func (b *BreakingMetricsAdapter) ActiveMetricsSummary(ctx context.Context, windowMin int) (MetricsSummary, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ActiveMetricsSummary(ctx, windowMin) })
	if err != nil {
		return MetricsSummary{}, err
	}
	return res.(MetricsSummary), nil
}

func (b *BreakingMetricsAdapter) LiveMetricsForService(ctx context.Context, name string) (LiveMetrics, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.LiveMetricsForService(ctx, name) })
	if err != nil {
		return LiveMetrics{}, err
	}
	return res.(LiveMetrics), nil
}

// BreakingRemediationAdapter wraps a RemediationAdapter with a circuit breaker.
type BreakingRemediationAdapter struct {
	delegate RemediationAdapter
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreakingRemediationAdapter wraps delegate with a circuit breaker.
func NewBreakingRemediationAdapter(delegate RemediationAdapter) *BreakingRemediationAdapter {
	return &BreakingRemediationAdapter{delegate: delegate, cb: gobreaker.NewCircuitBreaker[any](defaultBreakerSettings("remediation"))}
}

func (b *BreakingRemediationAdapter) ScaleService(ctx context.Context, cluster, service string, desired int, reason string) (ActionResult, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ScaleService(ctx, cluster, service, desired, reason) })
	if err != nil {
		return ActionResult{}, err
	}
	return res.(ActionResult), nil
}

func (b *BreakingRemediationAdapter) RollbackDeployment(ctx context.Context, app, group, reason string) (ActionResult, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.RollbackDeployment(ctx, app, group, reason) })
	if err != nil {
		return ActionResult{}, err
	}
	return res.(ActionResult), nil
}

func (b *BreakingRemediationAdapter) UpdateParameter(ctx context.Context, name, value, desc, service string) (ActionResult, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.UpdateParameter(ctx, name, value, desc, service) })
	if err != nil {
		return ActionResult{}, err
	}
	return res.(ActionResult), nil
}

// BreakingValidationAdapter wraps a ValidationAdapter with a circuit breaker.
type BreakingValidationAdapter struct {
	delegate ValidationAdapter
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreakingValidationAdapter wraps delegate with a circuit breaker.
func NewBreakingValidationAdapter(delegate ValidationAdapter) *BreakingValidationAdapter {
	return &BreakingValidationAdapter{delegate: delegate, cb: gobreaker.NewCircuitBreaker[any](defaultBreakerSettings("validation"))}
}

func (b *BreakingValidationAdapter) ValidateRecovery(ctx context.Context, service string, baselineP99 float64, suite string) (RecoveryResult, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.ValidateRecovery(ctx, service, baselineP99, suite) })
	if err != nil {
		return RecoveryResult{}, err
	}
	return res.(RecoveryResult), nil
}

func (b *BreakingValidationAdapter) ValidateScaleStability(ctx context.Context, service, direction string, before, after, waitSec int, suite string) (StabilityResult, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.delegate.ValidateScaleStability(ctx, service, direction, before, after, waitSec, suite)
	})
	if err != nil {
		return StabilityResult{}, err
	}
	return res.(StabilityResult), nil
}

func (b *BreakingValidationAdapter) NetworkAfterScale(ctx context.Context, trigger, replicaName string) (StabilityResult, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.delegate.NetworkAfterScale(ctx, trigger, replicaName) })
	if err != nil {
		return StabilityResult{}, err
	}
	return res.(StabilityResult), nil
}
