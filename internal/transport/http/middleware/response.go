package middleware

import (
	"encoding/json"
	"net/http"
)

// writeRateLimited answers 429 with the same {"error": ...} body the API
// handlers use, and asks the client to back off for a second.
func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: "too many requests"})
}
