package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coachdesk/coachdesk-api/internal/jobs"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	worker *jobs.Worker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(worker *jobs.Worker) *HealthHandler {
	return &HealthHandler{worker: worker}
}

// Health godoc
// @Summary Service health and worker stats
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"worker": h.worker.GetStats(),
	})
}
