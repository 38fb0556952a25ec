package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name    string
		cpu     float64
		mem     float64
		alerts  int
		want    int
	}{
		{"all nominal", 30, 30, 0, 100},
		{"cpu moderate", 65, 30, 0, 85},
		{"cpu high", 85, 30, 0, 70},
		{"mem moderate", 30, 75, 0, 90},
		{"mem high", 30, 90, 0, 80},
		{"one alert", 30, 30, 1, 95},
		{"everything bad clamps at floor", 95, 95, 10, 5},
		{"boundary cpu exactly 80 is not high", 80, 30, 0, 85},
		{"boundary cpu exactly 60 is not moderate", 60, 30, 0, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HealthScore(tc.cpu, tc.mem, tc.alerts))
		})
	}
}

func TestDerivedLatency(t *testing.T) {
	p99, avg := DerivedLatency(100)
	assert.Equal(t, 200.0, p99)
	assert.Equal(t, 80.0, avg)

	p99, avg = DerivedLatency(50)
	assert.Equal(t, 950.0, p99)
	assert.InDelta(t, 380.0, avg, 1e-9)
}
