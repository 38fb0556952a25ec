package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-sre/forge/pkg/adapters"
)

func drainChat(t *testing.T, frames <-chan ChatFrame) []ChatFrame {
	t.Helper()
	var out []ChatFrame
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, f)
			if f.Type == "done" {
				return out
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for chat frames")
		}
	}
}

func TestChat_StreamsTextThenDone(t *testing.T) {
	llm := adapters.NewFakeLLMAdapter()
	llm.Response = "order-service looks healthy."

	o, _ := newTestOrchestrator(t, llm, nil)

	frames, err := o.Chat(context.Background(), "how is order-service?", nil)
	require.NoError(t, err)

	got := drainChat(t, frames)
	require.NotEmpty(t, got)
	assert.Equal(t, "order-service looks healthy.", got[0].Content)
	assert.Equal(t, "done", got[len(got)-1].Type)
}

func TestChat_RendersContextBlockAheadOfMessage(t *testing.T) {
	llm := adapters.NewFakeLLMAdapter()
	llm.Response = "ack"
	o, _ := newTestOrchestrator(t, llm, nil)

	_, err := o.Chat(context.Background(), "status?", map[string]any{"service": "payment-service", "health_score": 42})
	require.NoError(t, err)
	assert.Equal(t, 1, llm.Calls)
}

func TestChat_ErrorsWithoutLLMAdapter(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil, nil)

	_, err := o.Chat(context.Background(), "hello", nil)
	assert.Error(t, err)
}

func TestChat_PropagatesStreamSetupError(t *testing.T) {
	llm := adapters.NewFakeLLMAdapter()
	llm.Err = errors.New("upstream unavailable")
	o, _ := newTestOrchestrator(t, llm, nil)

	_, err := o.Chat(context.Background(), "hello", nil)
	assert.Error(t, err)
}
