package agent

import (
	"regexp"
	"strings"
)

var thinkingTagPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThinking removes <think>...</think> reasoning blocks some providers
// wrap around their JSON output before the caller looks for the enclosing
// `{...}` pair.
func stripThinking(text string) string {
	return strings.TrimSpace(thinkingTagPattern.ReplaceAllString(text, ""))
}

// extractJSON locates the first `{` and the last `}` and returns the
// substring between them, or ok=false if no such enclosing pair exists
// (spec §7: LLM kind covers "invalid JSON (no enclosing {...})").
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}
