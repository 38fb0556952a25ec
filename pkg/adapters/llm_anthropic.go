package adapters

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// AnthropicLLMAdapter is the concrete LLMAdapter backed by Claude. It is
// used for both the foreground analysis loop and, with a cheaper model, the
// background-deepening task (spec §4.E).
type AnthropicLLMAdapter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicLLMAdapter builds a client reading its API key from the named
// environment variable, per Forge's env-var convention (spec §6).
func NewAnthropicLLMAdapter(apiKeyEnv, model string) *AnthropicLLMAdapter {
	client := anthropic.NewClient(option.WithAPIKey(os.Getenv(apiKeyEnv)))
	return &AnthropicLLMAdapter{
		client:    client,
		model:     anthropic.Model(model),
		maxTokens: 4096,
	}
}

func toAnthropicTools(tools []ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Parameters,
				},
			},
		})
	}
	return out
}

// Invoke sends one non-streaming request and renders the response into the
// text the orchestrator expects: plain prose, or a `{"tool":..,"args":..}`
// choice when the model invokes a tool (spec §9), or the terminal JSON
// report when the model is done.
func (a *AnthropicLLMAdapter) Invoke(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDef) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt))},
		Tools:     toAnthropicTools(tools),
	})
	if err != nil {
		return "", ferrors.New(ferrors.KindLLM, "llm.Invoke", err)
	}
	return renderMessage(msg), nil
}

// InvokeStream chunks the Invoke result client-side rather than threading
// the provider's own token-level SSE events through — the orchestrator only
// needs incremental text for the chat endpoint (spec §6), not token-exact
// provider framing, and a terminal ToolCall chunk when one is present.
func (a *AnthropicLLMAdapter) InvokeStream(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDef) (<-chan Chunk, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt))},
		Tools:     toAnthropicTools(tools),
	})
	if err != nil {
		return nil, ferrors.New(ferrors.KindLLM, "llm.InvokeStream", err)
	}

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for _, block := range msg.Content {
			if tc := blockToolCall(block); tc != nil {
				select {
				case ch <- Chunk{ToolCall: tc}:
				case <-ctx.Done():
					return
				}
				continue
			}
			text := blockText(block)
			for _, word := range strings.Fields(text) {
				select {
				case ch <- Chunk{Text: word + " "}:
				case <-ctx.Done():
					return
				}
			}
		}
		ch <- Chunk{Done: true}
	}()
	return ch, nil
}

func renderMessage(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if tc := blockToolCall(block); tc != nil {
			payload, _ := json.Marshal(map[string]any{"tool": tc.Name, "args": tc.Arguments})
			sb.Write(payload)
			continue
		}
		sb.WriteString(blockText(block))
	}
	return sb.String()
}

func blockText(block anthropic.ContentBlockUnion) string {
	if text := block.AsAny(); text != nil {
		if tb, ok := text.(anthropic.TextBlock); ok {
			return tb.Text
		}
	}
	return ""
}

func blockToolCall(block anthropic.ContentBlockUnion) *ToolCall {
	variant := block.AsAny()
	tb, ok := variant.(anthropic.ToolUseBlock)
	if !ok {
		return nil
	}
	var args map[string]any
	_ = json.Unmarshal(tb.Input, &args)
	return &ToolCall{ID: tb.ID, Name: tb.Name, Arguments: args}
}
