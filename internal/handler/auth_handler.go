package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"authgate/internal/container"
	"authgate/pkg/errors"
)

const stateCookieName = "authgate_oauth_state"

// AuthHandler drives the OAuth login flow: initiation, callback completion,
// logout and the status probe used by the frontend.
type AuthHandler struct {
	container *container.Container
}

func NewAuthHandler(c *container.Container) *AuthHandler {
	return &AuthHandler{container: c}
}

// Initiate handles GET /auth/{provider}
func (h *AuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	strategy, ok := h.container.Providers.Get(name)
	if !ok {
		errors.WriteJSON(w, errors.NewNotFoundError("Provider not configured"))
		return
	}

	state, err := newState()
	if err != nil {
		h.container.Logger.WithError(err).Error("Failed to generate OAuth state")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.container.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, strategy.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback. Any provider-side failure
// (denied consent, state mismatch, exchange error) terminates the flow with a
// redirect back to the landing page; the identity store is never touched.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.container.Logger
	name := chi.URLParam(r, "provider")

	strategy, ok := h.container.Providers.Get(name)
	if !ok {
		errors.WriteJSON(w, errors.NewNotFoundError("Provider not configured"))
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.WithFields(map[string]interface{}{
			"provider": name,
			"cause":    errParam,
		}).Warn("Provider returned an error")
		h.failRedirect(w, r, name)
		return
	}

	if !h.validState(r) {
		log.WithField("provider", name).Warn("OAuth state mismatch")
		h.failRedirect(w, r, name)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		log.WithField("provider", name).Warn("Callback without authorization code")
		h.failRedirect(w, r, name)
		return
	}

	draft, err := strategy.Complete(r.Context(), code)
	if err != nil {
		log.WithError(err).WithField("provider", name).Warn("Provider flow failed")
		h.failRedirect(w, r, name)
		return
	}

	user, err := h.container.Store.UpsertAndFetch(r.Context(), draft)
	if err != nil {
		log.WithError(err).Error("Failed to upsert user")
		errors.WriteJSON(w, errors.NewStoreError(err))
		return
	}

	if err := h.container.Sessions.Create(r.Context(), w, user); err != nil {
		log.WithError(err).Error("Failed to create session")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}

	signed, err := h.container.Minter.Mint(user)
	if err != nil {
		log.WithError(err).Error("Failed to mint token")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}

	log.WithFields(map[string]interface{}{
		"provider":    user.Provider,
		"user_id":     user.ID,
		"login_count": user.LoginCount,
	}).Info("Login completed")

	http.Redirect(w, r, DownstreamRedirectURL(h.container.Config.DownstreamURL, signed, user.Email), http.StatusFound)
}

// Logout handles GET/POST /auth/logout. Destroy completes before the redirect
// is issued and succeeds even when no valid session exists.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.container.Sessions.Destroy(r.Context(), w, r); err != nil {
		h.container.Logger.WithError(err).Error("Failed to destroy session")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// statusResponse is the GET /auth/status body
type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
}

type statusUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Status handles GET /auth/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	descriptor, err := h.container.Sessions.Resolve(r.Context(), r)
	if err != nil {
		h.container.Logger.WithError(err).Error("Session resolution failed")
		errors.WriteJSON(w, errors.NewInternalError("Internal server error", err))
		return
	}

	response := statusResponse{}
	if descriptor != nil {
		user, err := h.container.Store.GetByProviderID(r.Context(), descriptor.Provider, descriptor.ProviderID)
		if err != nil {
			h.container.Logger.WithError(err).Error("Failed to load user for status")
			errors.WriteJSON(w, errors.NewStoreError(err))
			return
		}
		if user != nil {
			response.Authenticated = true
			response.User = &statusUser{Email: user.Email, Name: user.Name}
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *AuthHandler) failRedirect(w http.ResponseWriter, r *http.Request, provider string) {
	http.Redirect(w, r, "/?error="+provider+"_auth_failed", http.StatusFound)
}

// validState compares the callback state with the one set at initiation
func (h *AuthHandler) validState(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return cookie.Value == r.URL.Query().Get("state")
}

// DownstreamRedirectURL builds the token hand-off redirect. The base is the
// pre-validated downstream URL from configuration; caller-supplied targets are
// never accepted.
func DownstreamRedirectURL(downstreamURL, token, email string) string {
	params := url.Values{}
	params.Set("token", token)
	params.Set("user", email)
	return downstreamURL + "?" + params.Encode()
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
