package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeSSEFrame writes one `data: <json>\n\n` frame and flushes it
// immediately, so the client observes it before the next frame is ready.
func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("httpapi: marshaling frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

func setSSEHeaders(w http.ResponseWriter, taskID string) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Task-ID", taskID)
}
