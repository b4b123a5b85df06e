// Package middleware provides shared HTTP middleware utilities.
package middleware

import (
	"net/http"
	"runtime/debug"

	"brokerkyc/pkg/logger"
)

// Recovery converts handler panics into 500 responses instead of dropping
// the connection.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("handler panic", map[string]interface{}{
						"path":  r.URL.Path,
						"panic": rec,
						"stack": string(debug.Stack()),
					})
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
