package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/domain"
)

func adminRequest(authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestListUsers_RejectsBadCredentials(t *testing.T) {
	c := newTestContainer(t, newStubStore())
	router := newRouter(c)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"empty bearer", "Bearer "},
		{"shorter secret", "Bearer nope"},
		{"longer secret", "Bearer admin-secret-and-then-some"},
		{"same length wrong secret", "Bearer admin-secreX"},
		{"no bearer prefix", "admin-secret-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, adminRequest(tt.authorization))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}
}

func TestListUsers_ReturnsAllUsers(t *testing.T) {
	store := newStubStore()
	store.users["google:1"] = &domain.User{ID: 1, Email: "a@example.com", Provider: "google", ProviderID: "1", LoginCount: 3}
	store.users["github:2"] = &domain.User{ID: 2, Email: "b@example.com", Provider: "github", ProviderID: "2", LoginCount: 1}

	c := newTestContainer(t, store)
	router := newRouter(c)

	rec := serve(router, adminRequest("Bearer admin-secret"))

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Total int           `json:"total"`
		Users []domain.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	assert.Len(t, response.Users, 2)
}

func TestListUsers_EmptyStore(t *testing.T) {
	c := newTestContainer(t, newStubStore())
	router := newRouter(c)

	rec := serve(router, adminRequest("Bearer admin-secret"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"users":[]}`, rec.Body.String())
}

func TestListUsers_StoreFailure(t *testing.T) {
	store := newStubStore()
	store.listErr = assert.AnError
	c := newTestContainer(t, store)
	router := newRouter(c)

	rec := serve(router, adminRequest("Bearer admin-secret"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckAdminSecret(t *testing.T) {
	assert.True(t, checkAdminSecret("secret", "secret"))
	assert.False(t, checkAdminSecret("", "secret"))
	assert.False(t, checkAdminSecret("secret", ""))
	assert.False(t, checkAdminSecret("secreT", "secret"))
	assert.False(t, checkAdminSecret("secrets", "secret"))
}
