package agent

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderInsight_CollapsesLiteralPercentAndFillsVerbs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	m := simulateMetrics(rng)

	for _, cat := range []string{"performance", "reliability", "cost", "optimization"} {
		for _, tmpl := range insightLibrary[cat] {
			got := renderInsight(tmpl, m, 200)
			assert.NotContains(t, got, "%!", "template %q produced a Sprintf error marker", tmpl.title)
			assert.NotContains(t, got, "%%", "template %q left an uncollapsed literal percent", tmpl.title)
		}
	}
}

func TestRenderInsight_ConnectionPoolTemplateHasNoDanglingPercent(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	m := simulateMetrics(rng)
	var tmpl insightTemplate
	for _, c := range insightLibrary["performance"] {
		if c.title == "Connection pool saturation approaching" {
			tmpl = c
		}
	}
	got := renderInsight(tmpl, m, 200)
	assert.Contains(t, got, "82%")
	assert.NotContains(t, got, "82%%")
}

func TestRenderPattern_OnlySubstitutesWhenVerbPresent(t *testing.T) {
	occurrences := 17
	for _, pt := range patternLibrary {
		got := renderPattern(pt, occurrences)
		assert.NotContains(t, got, "%!", "pattern %q produced a Sprintf error marker", pt.patternType)
		if strings.Contains(pt.description, "%d") {
			assert.Contains(t, got, "17")
		}
	}
}

func TestRenderPattern_GlobalTemplatesHaveNoDanglingPercent(t *testing.T) {
	for _, pt := range globalPatternTemplates {
		got := renderPattern(pt, 0)
		assert.NotContains(t, got, "%!")
		assert.NotContains(t, got, "%%")
	}
}

func TestSimulateMetrics_HealthScoreWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	for i := 0; i < 50; i++ {
		m := simulateMetrics(rng)
		assert.GreaterOrEqual(t, m.healthScore, 5)
		assert.LessOrEqual(t, m.healthScore, 100)
		assert.Greater(t, m.p99, m.avg-1) // avg derived as a fraction of p99
	}
}
