package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// writeJSON encodes v as JSON and writes it to the response with the given
// HTTP status code. Content-Type is always set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; log but cannot change status.
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response with the given HTTP status code.
// The response body is {"error": "message"}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed, and clamping to [min, max].
func queryInt(r *http.Request, name string, def, min, max int) int {
	n := def
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

// queryDate reads a date query parameter ("2026-01-16" and most common
// variants). An absent parameter returns (nil, nil); a present but
// unparseable one returns an error so the handler can 400.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil, err
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}
