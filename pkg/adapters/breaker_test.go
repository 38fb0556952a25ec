package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakingGraphAdapter_PassesThroughOnSuccess(t *testing.T) {
	fake := NewFakeGraphAdapter()
	fake.Seed(ServiceHealth{Name: "svc-a", HealthScore: 90})

	b := NewBreakingGraphAdapter(fake)
	sh, err := b.ServiceHealth(context.Background(), "svc-a")
	require.NoError(t, err)
	assert.Equal(t, 90, sh.HealthScore)
}

func TestBreakingGraphAdapter_PropagatesDelegateError(t *testing.T) {
	fake := NewFakeGraphAdapter()
	fake.Err = assert.AnError

	b := NewBreakingGraphAdapter(fake)
	_, err := b.ServiceHealth(context.Background(), "svc-a")
	assert.Error(t, err)
}

func TestBreakingGraphAdapter_OpensAfterConsecutiveFailures(t *testing.T) {
	fake := NewFakeGraphAdapter()
	fake.Err = assert.AnError

	b := NewBreakingGraphAdapter(fake)
	for i := 0; i < 5; i++ {
		_, _ = b.ServiceHealth(context.Background(), "svc-a")
	}

	_, err := b.ServiceHealth(context.Background(), "svc-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
