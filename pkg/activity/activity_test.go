package activity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_IdsAreMonotonicAndUnique(t *testing.T) {
	l := New()
	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 10; i++ {
		e := l.Add("tool_call", "primary", fmt.Sprintf("call %d", i), "", nil)
		require.False(t, seen[e.ID])
		assert.Greater(t, e.ID, last)
		seen[e.ID] = true
		last = e.ID
	}
}

func TestAdd_RingDropsOldestBeyondCapacity(t *testing.T) {
	l := New()
	for i := 0; i < capacity+10; i++ {
		l.Add("tool_call", "primary", "x", "", nil)
	}
	assert.Equal(t, capacity, l.Count())

	all := l.Since(0, 0)
	assert.Len(t, all, capacity)
	// The oldest 10 ids (1..10) must have been evicted.
	for _, e := range all {
		assert.Greater(t, e.ID, int64(10))
	}
}

func TestSince_NewestFirstAndLimit(t *testing.T) {
	l := New()
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, l.Add("tool_call", "system", "x", "", nil).ID)
	}

	got := l.Since(ids[1], 0)
	require.Len(t, got, 3)
	assert.Equal(t, ids[4], got[0].ID)
	assert.Equal(t, ids[2], got[2].ID)

	limited := l.Since(0, 2)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[4], limited[0].ID)
}

func TestAdd_TruncatesDetailAt500Chars(t *testing.T) {
	l := New()
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	e := l.Add("tool_call", "primary", "x", string(long), nil)
	assert.Len(t, e.Detail, maxDetailLen)
}
