package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"authgate/internal/container"
	"authgate/internal/domain"
	"authgate/pkg/errors"
)

// AdminHandler serves the administrative user listing behind a shared secret.
type AdminHandler struct {
	container *container.Container
}

func NewAdminHandler(c *container.Container) *AdminHandler {
	return &AdminHandler{container: c}
}

// listUsersResponse is the GET /admin/users body
type listUsersResponse struct {
	Total int           `json:"total"`
	Users []domain.User `json:"users"`
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	supplied := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !checkAdminSecret(supplied, h.container.Config.AdminPassword) {
		h.container.Logger.WithField("path", r.URL.Path).Warn("Rejected admin request")
		errors.WriteJSON(w, errors.NewAuthenticationError("Unauthorized"))
		return
	}

	users, err := h.container.Store.ListAll(r.Context())
	if err != nil {
		h.container.Logger.WithError(err).Error("Failed to list users")
		errors.WriteJSON(w, errors.NewStoreError(err))
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	writeJSON(w, http.StatusOK, listUsersResponse{Total: len(users), Users: users})
}

// checkAdminSecret compares the supplied secret in constant time. A length
// mismatch short-circuits: length is not secret-sensitive here, content is.
func checkAdminSecret(supplied, configured string) bool {
	if supplied == "" || len(supplied) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}
