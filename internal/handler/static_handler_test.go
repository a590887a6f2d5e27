package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_InlineFallback(t *testing.T) {
	c := newTestContainer(t, newStubStore())
	h := NewStaticHandler(c)

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/auth/google")
	assert.Contains(t, rec.Body.String(), "/auth/github")
}

func TestIndex_ServesStaticFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>landing</html>"), 0o644))

	c := newTestContainer(t, newStubStore())
	c.Config.StaticDir = dir
	h := NewStaticHandler(c)

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "landing")
}

func TestRobots_DisallowsEverything(t *testing.T) {
	c := newTestContainer(t, newStubStore())
	h := NewStaticHandler(c)

	rec := httptest.NewRecorder()
	h.Robots(rec, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *\nDisallow: /\n", rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	c := newTestContainer(t, newStubStore())
	h := NewHealthHandler(c)

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
