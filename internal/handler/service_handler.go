package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"authgate/internal/container"
	"authgate/internal/middleware"
	"authgate/pkg/errors"
)

// ServiceHandler serves the proxied service routes behind the auth guard.
// Only the core module exists today; every other name is a placeholder.
type ServiceHandler struct {
	container *container.Container
}

func NewServiceHandler(c *container.Container) *ServiceHandler {
	return &ServiceHandler{container: c}
}

// Core handles GET /service/core: mints a fresh token for the session user and
// hands off to the downstream application.
func (h *ServiceHandler) Core(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		// The guard runs before this handler; reaching here without a user is
		// a wiring bug.
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", nil))
		return
	}

	signed, err := h.container.Minter.Mint(user)
	if err != nil {
		h.container.Logger.WithError(err).Error("Failed to mint token")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}

	http.Redirect(w, r, DownstreamRedirectURL(h.container.Config.DownstreamURL, signed, user.Email), http.StatusFound)
}

// Module handles GET /service/{name} for any unrecognized module
func (h *ServiceHandler) Module(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusServiceUnavailable, errors.ErrorResponse{Error: "Module " + name + " not available"})
}
