package adapters

import "bytes"

// newJSONReader wraps a marshalled JSON payload for use as an http.Request body.
func newJSONReader(payload []byte) *bytes.Reader {
	return bytes.NewReader(payload)
}
