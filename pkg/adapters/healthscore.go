package adapters

// HealthScore computes the coarse health heuristic from spec §4.D, used by
// LiveMetricsForService when upstream telemetry is sparse: start at 100,
// penalize high CPU/memory, penalize per alerting monitor, clamp to [5,100].
func HealthScore(cpuPercent, memPercent float64, alertingMonitors int) int {
	score := 100.0

	switch {
	case cpuPercent > 80:
		score -= 30
	case cpuPercent > 60:
		score -= 15
	}

	switch {
	case memPercent > 85:
		score -= 20
	case memPercent > 70:
		score -= 10
	}

	score -= float64(alertingMonitors) * 5

	if score < 5 {
		score = 5
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

// DerivedLatency computes the display p99/avg latency from a health score
// when no direct latency telemetry is available (spec §4.D).
func DerivedLatency(health int) (p99, avg float64) {
	p99 = 200 + float64(100-health)*15
	avg = 0.4 * p99
	return p99, avg
}
