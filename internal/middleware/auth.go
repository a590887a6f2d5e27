package middleware

import (
	"context"
	"net/http"

	"authgate/internal/repository"
	"authgate/internal/session"
	"authgate/pkg/errors"
	"authgate/pkg/logger"
)

// RequireSession gates protected routes. It resolves the session cookie,
// re-materializes the full user from the identity store and threads it into
// the request context. Unauthenticated requests are redirected to the landing
// page with a login-required indicator.
func RequireSession(sessions *session.Manager, store repository.UserStore, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			descriptor, err := sessions.Resolve(r.Context(), r)
			if err != nil {
				log.WithError(err).Error("Session resolution failed")
				errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
				return
			}
			if descriptor == nil {
				// Anonymous and failed logins look identical to the client;
				// the cause only differs in logs.
				log.WithField("path", r.URL.Path).Debug("Unauthenticated request to protected route")
				http.Redirect(w, r, "/?error=login_required", http.StatusFound)
				return
			}

			user, err := store.GetByProviderID(r.Context(), descriptor.Provider, descriptor.ProviderID)
			if err != nil {
				log.WithError(err).Error("Failed to load user for session")
				errors.WriteJSON(w, errors.NewStoreError(err))
				return
			}
			if user == nil {
				log.WithFields(map[string]interface{}{
					"provider":    descriptor.Provider,
					"provider_id": descriptor.ProviderID,
				}).Warn("Session references a missing user")
				http.Redirect(w, r, "/?error=login_required", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
