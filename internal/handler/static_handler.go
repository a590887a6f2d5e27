package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"authgate/internal/container"
)

// StaticHandler serves the landing page and crawler responses. The landing
// page itself is built and deployed separately; the gateway only needs a root
// to redirect error indicators to.
type StaticHandler struct {
	container *container.Container
}

func NewStaticHandler(c *container.Container) *StaticHandler {
	return &StaticHandler{container: c}
}

// Index handles GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	dir := h.container.Config.StaticDir
	if dir != "" {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Sign in</title></head><body><p>Sign in via <a href=\"/auth/google\">Google</a> or <a href=\"/auth/github\">GitHub</a>.</p></body></html>\n"))
}

// Robots handles GET /robots.txt. The gateway is not meant to be indexed.
func (h *StaticHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
}
