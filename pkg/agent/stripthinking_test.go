package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripThinking_RemovesReasoningBlock(t *testing.T) {
	in := "<think>let me work this out\nstep by step</think>{\"tool\":\"get_service_health\"}"
	assert.Equal(t, `{"tool":"get_service_health"}`, stripThinking(in))
}

func TestStripThinking_NoOpWhenNoTagPresent(t *testing.T) {
	in := `{"status":"healthy"}`
	assert.Equal(t, in, stripThinking(in))
}

func TestExtractJSON_FindsEnclosingBraces(t *testing.T) {
	raw, ok := extractJSON("here is the result: {\"a\":1} thanks")
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, raw)
}

func TestExtractJSON_FailsWithoutEnclosingBraces(t *testing.T) {
	_, ok := extractJSON("no json here")
	assert.False(t, ok)
}

func TestExtractJSON_FailsWhenClosingBraceComesFirst(t *testing.T) {
	_, ok := extractJSON("} not json {")
	assert.False(t, ok)
}
