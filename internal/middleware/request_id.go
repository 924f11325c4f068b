package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"packtree/internal/httputil"
)

// RequestID tags every request with a correlation id, honoring one supplied
// by the caller, and echoes it back in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, httputil.WithRequestID(r, id))
	})
}
