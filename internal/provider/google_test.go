package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"authgate/internal/config"
)

func testCredentials() config.ProviderCredentials {
	return config.ProviderCredentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://averroes.cloud/auth/google/callback",
	}
}

// fakeGoogle serves the token and userinfo endpoints the strategy talks to
func fakeGoogle(t *testing.T, userinfoStatus int, userinfoBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-access-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.WriteHeader(userinfoStatus)
		_, _ = w.Write([]byte(userinfoBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestGoogle(server *httptest.Server) *GoogleStrategy {
	s := NewGoogle(testCredentials())
	s.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  server.URL + "/auth",
		TokenURL: server.URL + "/token",
	}
	s.userInfoURL = server.URL + "/userinfo"
	return s
}

func TestGoogle_AuthCodeURLCarriesState(t *testing.T) {
	s := NewGoogle(testCredentials())

	got := s.AuthCodeURL("state-token")
	assert.Contains(t, got, "state=state-token")
	assert.Contains(t, got, "client_id=client-id")
}

func TestGoogle_CompleteNormalizesProfile(t *testing.T) {
	server := fakeGoogle(t, http.StatusOK,
		`{"id":"109876543210","email":"user@example.com","name":"Test User","picture":"https://lh3.googleusercontent.com/a/photo"}`)
	s := newTestGoogle(server)

	draft, err := s.Complete(context.Background(), "authcode")
	require.NoError(t, err)

	assert.Equal(t, "google", draft.Provider)
	assert.Equal(t, "109876543210", draft.ProviderID)
	assert.Equal(t, "user@example.com", draft.Email)
	assert.Equal(t, "Test User", draft.Name)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/photo", draft.AvatarURL)
}

func TestGoogle_CompleteAllowsMissingEmail(t *testing.T) {
	server := fakeGoogle(t, http.StatusOK, `{"id":"109876543210","name":"Test User"}`)
	s := newTestGoogle(server)

	draft, err := s.Complete(context.Background(), "authcode")
	require.NoError(t, err)
	assert.Empty(t, draft.Email)
	assert.Equal(t, "109876543210", draft.ProviderID)
}

func TestGoogle_CompleteRejectsMissingSubject(t *testing.T) {
	server := fakeGoogle(t, http.StatusOK, `{"email":"user@example.com"}`)
	s := newTestGoogle(server)

	_, err := s.Complete(context.Background(), "authcode")
	require.Error(t, err)
}

func TestGoogle_CompleteUserInfoFailure(t *testing.T) {
	server := fakeGoogle(t, http.StatusUnauthorized, `{"error":"invalid_token"}`)
	s := newTestGoogle(server)

	_, err := s.Complete(context.Background(), "authcode")
	require.Error(t, err)
}

func TestGoogle_CompleteExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := newTestGoogle(server)

	_, err := s.Complete(context.Background(), "bad-code")
	require.Error(t, err)
}
