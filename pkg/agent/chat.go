package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// Chat streams a conversational response for POST /api/agent/chat (spec §6).
// context, when non-nil, is rendered ahead of the user's message exactly as
// the original's chat_with_agent context_block does (SPEC_FULL.md §5).
func (o *Orchestrator) Chat(ctx context.Context, userMessage string, chatContext map[string]any) (<-chan ChatFrame, error) {
	if o.llm == nil {
		return nil, fmt.Errorf("no LLM adapter configured")
	}

	prompt := userMessage
	if len(chatContext) > 0 {
		blob, _ := json.MarshalIndent(chatContext, "", "  ")
		prompt = fmt.Sprintf("Current system context:\n%s\n\nUser question: %s", string(blob), userMessage)
	}

	chunks, err := o.llm.InvokeStream(ctx, chatSystemPrompt, prompt, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan ChatFrame)
	go func() {
		defer close(out)
		for chunk := range chunks {
			if chunk.Done {
				out <- ChatFrame{Type: "done"}
				return
			}
			if chunk.Text != "" {
				out <- ChatFrame{Type: "text", Content: stripThinking(chunk.Text)}
			}
		}
	}()
	return out, nil
}

const chatSystemPrompt = `You are Forge, an autonomous reliability agent for a microservice platform with persistent memory. Answer the operator's question conversationally, drawing on the system context provided.`
