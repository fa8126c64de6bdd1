package security

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/log"
)

// APIKeyHeader carries the shared secret on protected requests.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests under prefix whose X-API-Key does not match key.
// An empty key disables the check.
func APIKeyMiddleware(key, prefix string, onDenied func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			got := []byte(r.Header.Get(APIKeyHeader))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				slog.WarnContext(r.Context(), "Rejected request without valid API key",
					log.FieldComponent, log.ComponentSecurity,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				if onDenied != nil {
					onDenied(w, r)
				} else {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
