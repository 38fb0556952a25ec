package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicFallback_SameServiceAndHourYieldsSameHealthStatusAndRootCause(t *testing.T) {
	now := time.Date(2026, 7, 31, 14, 10, 0, 0, time.UTC)
	later := time.Date(2026, 7, 31, 14, 55, 0, 0, time.UTC)

	first := deterministicFallback("order-service", now)
	second := deterministicFallback("order-service", later)

	assert.Equal(t, first.HealthScore, second.HealthScore)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.RootCause, second.RootCause)
	assert.Equal(t, first.RootCauseService, second.RootCauseService)
}

func TestDeterministicFallback_VariesAcrossHours(t *testing.T) {
	seen := map[int]bool{}
	for h := 0; h < 24; h++ {
		at := time.Date(2026, 7, 31, h, 0, 0, 0, time.UTC)
		r := deterministicFallback("checkout-service", at)
		seen[r.HealthScore] = true
	}
	assert.Greater(t, len(seen), 1, "expected health score to vary across the day for a fixed service")
}

func TestDeterministicFallback_StatusMatchesHealthThresholds(t *testing.T) {
	now := time.Now().UTC()
	for _, svc := range []string{"a", "bb", "checkout-service", "payment-gateway", "x1y2z3"} {
		r := deterministicFallback(svc, now)
		switch {
		case r.HealthScore >= 80:
			assert.Equal(t, "healthy", r.Status, svc)
		case r.HealthScore >= 50:
			assert.Equal(t, "degraded", r.Status, svc)
		default:
			assert.Equal(t, "critical", r.Status, svc)
		}
	}
}

func TestDeterministicFallback_CriticalStatusHasTwoRemediationActions(t *testing.T) {
	now := time.Now().UTC()
	found := false
	for h := 0; h < 24; h++ {
		at := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, time.UTC)
		r := deterministicFallback("payment-gateway", at)
		if r.Status == "critical" {
			found = true
			assert.Len(t, r.ActionsTaken, 2)
			assert.Equal(t, "scale_ecs", r.ActionsTaken[0].ActionType)
			assert.Equal(t, "update_ssm", r.ActionsTaken[1].ActionType)
			assert.True(t, r.Validation.Recovered)
		}
	}
	assert.True(t, found, "expected at least one hour to produce a critical report for payment-gateway")
}

func TestDeterministicFallback_HealthyStatusHasNoActionsAndNoRecovery(t *testing.T) {
	now := time.Now().UTC()
	for h := 0; h < 24; h++ {
		at := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, time.UTC)
		r := deterministicFallback("auth-service", at)
		if r.Status == "healthy" {
			assert.Empty(t, r.ActionsTaken)
			assert.False(t, r.Validation.Recovered)
			assert.Empty(t, r.Anomalies)
		}
	}
}

func TestFallbackSeed_IsPureFunctionOfServiceNameAndHour(t *testing.T) {
	now := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, fallbackSeed("svc", now), fallbackSeed("svc", now))
	assert.NotEqual(t, fallbackSeed("svc-a", now), fallbackSeed("svc-b", now))
}
