package actionlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AssignsStableID(t *testing.T) {
	l := New()
	a := l.Record(Action{ActionType: "scale_ecs", Service: "svc-a", Status: "succeeded"})
	require.NotEmpty(t, a.ID)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
	assert.False(t, all[0].Timestamp.IsZero())
}

func TestForService_FiltersAndPreservesOrder(t *testing.T) {
	l := New()
	l.Record(Action{ActionType: "scale_ecs", Service: "svc-a", Status: "succeeded"})
	l.Record(Action{ActionType: "rollback_deployment", Service: "svc-b", Status: "failed"})
	l.Record(Action{ActionType: "update_ssm", Service: "svc-a", Status: "succeeded"})

	svcA := l.ForService("svc-a")
	require.Len(t, svcA, 2)
	assert.Equal(t, "scale_ecs", svcA[0].ActionType)
	assert.Equal(t, "update_ssm", svcA[1].ActionType)
}

func TestAll_ReturnsDefensiveCopy(t *testing.T) {
	l := New()
	l.Record(Action{ActionType: "scale_ecs", Service: "svc-a"})

	out := l.All()
	out[0].Service = "mutated"

	assert.Equal(t, "svc-a", l.All()[0].Service)
}
