package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/config"
)

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

func TestNew_BootstrapsSinglePrimaryReplica(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	status := c.GetStatus()
	require.Len(t, status.Replicas, 1)
	assert.Equal(t, primaryReplicaName, status.Replicas[0].Name)
	assert.Equal(t, "running", status.Replicas[0].Status)
}

func TestTick_ScalesUpWhenQueueExceedsHighWatermark(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a", "b", "c"})
	for i := 0; i < 4; i++ {
		c.Enqueue("a", "analyze", 1)
	}

	result := c.Tick()
	assert.Equal(t, "scale_up", result.Action)
	// Metrics is the Monitor snapshot, taken before the spawn.
	assert.Equal(t, 1, result.Metrics.ReplicaCount)

	status := c.GetStatus()
	assert.Equal(t, 2, status.TotalReplicas)
}

func TestTick_NeverScalesUpPastMaxReplicas(t *testing.T) {
	tuning := testTuning()
	tuning.MaxReplicas = 2
	c := New(tuning, adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a"})

	// Force repeated scale-up pressure by clearing cooldown between ticks.
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			c.Enqueue("a", "analyze", 1)
		}
		c.mu.Lock()
		c.lastScaleTime = time.Time{}
		c.mu.Unlock()
		c.Tick()
	}

	status := c.GetStatus()
	assert.LessOrEqual(t, status.TotalReplicas, 2)
}

func TestTick_ScaleDownNeverTargetsPrimary(t *testing.T) {
	tuning := testTuning()
	c := New(tuning, adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a", "b", "c", "d"})

	// Force a scale-up first so there is a non-primary replica to evict.
	for i := 0; i < 4; i++ {
		c.Enqueue("svc", "analyze", 1)
	}
	up := c.Tick()
	require.Equal(t, "scale_up", up.Action)

	// Drain the queue and clear cooldown so the low-watermark path fires.
	c.mu.Lock()
	for _, item := range c.workQueue {
		item.Status = "completed"
	}
	c.workQueue = nil
	c.lastScaleTime = time.Time{}
	c.mu.Unlock()

	down := c.Tick()
	require.Equal(t, "scale_down", down.Action)

	status := c.GetStatus()
	for _, r := range status.Replicas {
		assert.NotEqual(t, "", r.Name)
	}
	found := false
	for _, r := range status.Replicas {
		if r.Name == primaryReplicaName {
			found = true
		}
	}
	assert.True(t, found, "primary replica must survive a scale-down")
}

func TestTick_CooldownBoundaryDoesNotPermitScaling(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a"})
	for i := 0; i < 4; i++ {
		c.Enqueue("a", "analyze", 1)
	}

	c.mu.Lock()
	c.lastScaleTime = time.Now().Add(-c.tuning.ScaleCooldown()) // exactly at boundary
	c.mu.Unlock()

	result := c.Tick()
	assert.Equal(t, "none", result.Action, "cooldown exactly at boundary must not permit scaling")
}

func TestRebalancePartitions_DistributesWithinOneOfEachOther(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a", "b", "c", "d", "e"})

	for i := 0; i < 4; i++ {
		c.Enqueue("x", "analyze", 1)
	}
	c.Tick() // scale_up -> 2 replicas, rebalance fires

	status := c.GetStatus()
	min, max := -1, -1
	for _, r := range status.Replicas {
		n := len(r.AssignedServices)
		if min == -1 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	assert.LessOrEqual(t, max-min, 1)
}

func TestCompleteWork_IsExactlyOnce(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a"})
	item := c.Enqueue("a", "analyze", 1)
	c.Tick() // dispatches to the primary

	done, ok := c.CompleteWork(item.ID, true)
	require.True(t, ok)
	assert.Equal(t, "completed", done.Status)

	_, ok = c.CompleteWork(item.ID, true)
	assert.False(t, ok, "completing the same work item twice must be a no-op")

	status := c.GetStatus()
	assert.Equal(t, 1, status.CompletedAnalyses)
}

func TestRunPendingValidation_NoOpWhenNothingPending(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	rec, err := c.RunPendingValidation(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRunPendingValidation_RunsAfterScaleAndPushesIntoRing(t *testing.T) {
	fake := adapters.NewFakeValidationAdapter()
	c := New(testTuning(), fake, nil)
	c.SetServices([]string{"a"})
	for i := 0; i < 4; i++ {
		c.Enqueue("a", "analyze", 1)
	}
	result := c.Tick()
	require.Equal(t, "scale_up", result.Action)

	rec, err := c.RunPendingValidation(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "scale_up", rec.TriggerEvent)
	assert.Equal(t, "passed", rec.Status)

	status := c.GetStatus()
	require.NotNil(t, status.LastValidation)
	assert.Equal(t, "scale_up", status.LastValidation.TriggerEvent)
}

func TestSimulateLoad_BypassesCooldownAndCapsTicksAtFour(t *testing.T) {
	tuning := testTuning()
	tuning.ScaleCooldownSeconds = 9999 // would block a real Tick entirely
	c := New(tuning, adapters.NewFakeValidationAdapter(), nil)
	c.SetServices([]string{"a", "b", "c"})

	result := c.SimulateLoad(10)
	assert.Equal(t, 10, result.ItemsEnqueued)
	require.NotNil(t, result.LastTickResult)
	assert.NotEmpty(t, result.ScaleActions, "load spike should trigger at least one scale action despite cooldown")
}

func TestSimulateLoad_ZeroCountChangesNothing(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	result := c.SimulateLoad(0)
	assert.Equal(t, 0, result.ItemsEnqueued)
}

func TestManualScale_UpBypassesCooldownAndArmsValidation(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	_, err := c.ManualScale("up", "load test")
	require.NoError(t, err)
	assert.Equal(t, 2, c.GetStatus().TotalReplicas)

	rec, err := c.RunPendingValidation(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "manual_scale_up", rec.TriggerEvent)
}

func TestManualScale_UpRejectsAtMaxReplicas(t *testing.T) {
	tuning := testTuning()
	tuning.MaxReplicas = 1
	c := New(tuning, adapters.NewFakeValidationAdapter(), nil)
	_, err := c.ManualScale("up", "x")
	assert.ErrorIs(t, err, ErrMaxReplicas)
}

func TestManualScale_DownNeverTargetsPrimary(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	_, err := c.ManualScale("up", "seed extra replica")
	require.NoError(t, err)

	_, err = c.ManualScale("down", "x")
	require.NoError(t, err)

	status := c.GetStatus()
	found := false
	for _, r := range status.Replicas {
		if r.Name == primaryReplicaName {
			found = true
		}
	}
	assert.True(t, found)
}

func TestManualScale_DownRejectsAtMinReplicas(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	_, err := c.ManualScale("down", "x")
	assert.ErrorIs(t, err, ErrMinReplicas)
}

func TestRunManualValidation_PushesIntoRingIndependentOfPending(t *testing.T) {
	c := New(testTuning(), adapters.NewFakeValidationAdapter(), nil)
	rec, err := c.RunManualValidation(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "manual", rec.TriggerEvent)
	assert.Equal(t, "api-manual", rec.TriggerReplica)
}
