package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilar_PrefixMatch(t *testing.T) {
	a := "P99 latency spikes every 4 hours during peak traffic"
	b := "P99 latency spikes every 4 hours on weekdays only"
	assert.True(t, similar(a, b, 40, 0.6))
}

func TestSimilar_JaccardOverlap(t *testing.T) {
	a := "cpu usage climbing steadily over time"
	b := "cpu usage climbing steadily over the week"
	assert.True(t, similar(a, b, 10, 0.6))
}

func TestSimilar_Dissimilar(t *testing.T) {
	a := "database connection pool exhausted"
	b := "memory leak detected in background worker"
	assert.False(t, similar(a, b, 40, 0.6))
}

func TestSimilar_EmptyStrings(t *testing.T) {
	// Two empty descriptions share an identical (empty) prefix.
	assert.True(t, similar("", "", 40, 0.6))
}
