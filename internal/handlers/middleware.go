package handlers

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/MKale112/devConnector/internal/httpx"
)

// WithRecover wraps an http.Handler and recovers from panics,
// returning the JSON 500 envelope instead of crashing the server.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "panic recovered",
					"panic", rec, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
				httpx.WriteJSON(w, httpx.Msg{Msg: "Server error"}, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
