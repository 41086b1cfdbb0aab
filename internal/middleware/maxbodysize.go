package middleware

import (
	"encoding/json"
	"net/http"
)

// NewMaxBodySizeHandler rejects request bodies larger than limit bytes.
// A declared Content-Length over the limit is refused with 413 before the next
// handler runs; a body of unknown length is wrapped in http.MaxBytesReader so
// the handler's read fails once the limit is crossed.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeTooLarge(w)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// writeTooLarge uses the same error envelope as the handler package.
func writeTooLarge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "payload_too_large",
			"message": "request body too large",
		},
	})
}
