package handler

import (
	"net/http"
	"time"

	"authgate/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{container: c}
}

// healthResponse is the GET /health body
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}
