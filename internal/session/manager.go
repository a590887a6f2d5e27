package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"authgate/internal/domain"
	"authgate/pkg/redis"
)

const (
	// CookieName is the browser session cookie
	CookieName = "authgate_session"

	keyPrefix = "session:"
)

// Manager is the cookie-backed session lifecycle. The cookie carries a random
// session id plus an HMAC signature; the descriptor itself lives server-side in
// Redis under a TTL, so expiry is absolute from creation.
type Manager struct {
	redis  *redis.Client
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewManager(rdb *redis.Client, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		redis:  rdb,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Create establishes a session for an authenticated user and sets the cookie.
// Only the minimal descriptor is stored; profile fields are re-fetched per
// request so the session never serves stale data.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, user *domain.User) error {
	sid, err := newSessionID()
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}

	descriptor := domain.SessionDescriptor{
		ID:         user.ID,
		Provider:   user.Provider,
		ProviderID: user.ProviderID,
	}
	payload, err := json.Marshal(descriptor)
	if err != nil {
		return fmt.Errorf("failed to encode session descriptor: %w", err)
	}

	if err := m.redis.Set(ctx, keyPrefix+sid, payload, m.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid + "." + m.sign(sid),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Resolve looks up the session descriptor for the incoming request. An absent,
// tampered or expired session yields (nil, nil); only a session-store failure
// is an error.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*domain.SessionDescriptor, error) {
	sid, ok := m.sessionID(r)
	if !ok {
		return nil, nil
	}

	payload, err := m.redis.Get(ctx, keyPrefix+sid)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var descriptor domain.SessionDescriptor
	if err := json.Unmarshal([]byte(payload), &descriptor); err != nil {
		return nil, nil
	}

	return &descriptor, nil
}

// Destroy invalidates the server-side session and clears the cookie. Logout of
// an already-invalid session still succeeds.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if sid, ok := m.sessionID(r); ok {
		if err := m.redis.Delete(ctx, keyPrefix+sid); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// sessionID extracts and authenticates the session id from the request cookie
func (m *Manager) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}

	sid, sig, found := strings.Cut(cookie.Value, ".")
	if !found || sid == "" {
		return "", false
	}

	expected := m.sign(sid)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}

	return sid, true
}

func (m *Manager) sign(sid string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(sid))
	return hex.EncodeToString(mac.Sum(nil))
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
