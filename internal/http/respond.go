package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/launchlane/launchlane/internal/result"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeResult translates a service envelope to the transport response without
// re-interpreting it: failure message, payload, or bare status.
func writeResult[T any](w http.ResponseWriter, res result.Result[T]) {
	if msg := res.Err(); msg != "" {
		writeError(w, res.Code(), msg)
		return
	}
	if data, ok := res.Data(); ok {
		writeJSON(w, res.Code(), data)
		return
	}
	w.WriteHeader(res.Code())
}
