package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// sseWriter streams newline-delimited `data: <json>\n\n` frames over an
// already-open HTTP response, flushing after every write so the client
// sees each frame as it's produced rather than buffered until close.
type sseWriter struct {
	resp *echo.Response
}

// newSSEWriter sets the SSE headers and returns a writer bound to c's
// response.
func newSSEWriter(c *echo.Context) (*sseWriter, error) {
	resp := c.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()
	return &sseWriter{resp: resp}, nil
}

func (s *sseWriter) writeJSON(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.resp, "data: %s\n\n", body); err != nil {
		return err
	}
	s.resp.Flush()
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
