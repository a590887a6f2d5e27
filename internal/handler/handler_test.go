package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"authgate/internal/config"
	"authgate/internal/container"
	"authgate/internal/domain"
	"authgate/internal/provider"
	"authgate/internal/session"
	"authgate/internal/token"
	"authgate/pkg/logger"
	"authgate/pkg/redis"
)

// stubStore is an in-memory UserStore for handler tests
type stubStore struct {
	users     map[string]*domain.User
	upserted  []*domain.Draft
	listErr   error
	upsertErr error
}

func newStubStore() *stubStore {
	return &stubStore{users: make(map[string]*domain.User)}
}

func (s *stubStore) UpsertAndFetch(ctx context.Context, draft *domain.Draft) (*domain.User, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = append(s.upserted, draft)

	key := draft.Provider + ":" + draft.ProviderID
	user, ok := s.users[key]
	if !ok {
		user = &domain.User{
			ID:         int64(len(s.users) + 1),
			Provider:   draft.Provider,
			ProviderID: draft.ProviderID,
			FirstLogin: time.Now(),
		}
		s.users[key] = user
	}
	user.Email = draft.Email
	user.Name = draft.Name
	user.AvatarURL = draft.AvatarURL
	user.LastLogin = time.Now()
	user.LoginCount++
	return user, nil
}

func (s *stubStore) GetByProviderID(ctx context.Context, providerName, providerID string) (*domain.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.users[providerName+":"+providerID], nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]domain.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

// stubStrategy lets callback tests drive the provider outcome
type stubStrategy struct {
	name  string
	draft *domain.Draft
	err   error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (s *stubStrategy) Complete(ctx context.Context, code string) (*domain.Draft, error) {
	return s.draft, s.err
}

func newTestContainer(t *testing.T, store *stubStore, strategies ...provider.Strategy) *container.Container {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClientFromAddr(mr.Addr(), zap.NewNop())

	minter, err := token.NewMinter("test-jwt-secret", time.Hour)
	require.NoError(t, err)

	registry := provider.NewRegistry()
	for _, s := range strategies {
		registry.Register(s)
	}

	return &container.Container{
		Config: &config.Config{
			DownstreamURL: "https://archie.averroes.cloud",
			AdminPassword: "admin-secret",
			CookieSecure:  false,
		},
		Logger:    &logger.Logger{Logger: zap.NewNop()},
		Store:     store,
		Sessions:  session.NewManager(client, "test-session-secret", 24*time.Hour, false),
		Minter:    minter,
		Providers: registry,
	}
}

// newRouter mounts the handlers on the same routes main wires up
func newRouter(c *container.Container) *chi.Mux {
	authHandler := NewAuthHandler(c)
	serviceHandler := NewServiceHandler(c)
	adminHandler := NewAdminHandler(c)

	r := chi.NewRouter()
	r.Get("/auth/status", authHandler.Status)
	r.Get("/auth/logout", authHandler.Logout)
	r.Post("/auth/logout", authHandler.Logout)
	r.Get("/auth/{provider}", authHandler.Initiate)
	r.Get("/auth/{provider}/callback", authHandler.Callback)
	r.Get("/service/core", serviceHandler.Core)
	r.Get("/service/{name}", serviceHandler.Module)
	r.Get("/admin/users", adminHandler.ListUsers)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
