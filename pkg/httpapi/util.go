package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
)

// writeJSONChunk marshals v and writes it to w, logging (rather than
// failing the whole streamed response) on a write error — the client has
// likely just disconnected mid-stream.
func writeJSONChunk(w io.Writer, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("httpapi: failed to marshal streamed chunk", "error", err)
		return
	}
	if _, err := w.Write(body); err != nil {
		slog.Warn("httpapi: stream write failed, client likely disconnected", "error", err)
	}
}
