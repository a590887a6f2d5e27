package middleware

import (
	"net/http"
	"runtime/debug"

	"authgate/pkg/errors"
	"authgate/pkg/logger"
)

// Recover converts panics into a generic JSON 500. The stack goes to the log,
// never to the client.
func Recover(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					}).Error("Panic recovered")
					errors.WriteJSON(w, errors.NewInternalError("Internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
