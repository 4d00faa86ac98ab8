package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/jobs"
)

type HealthHandler struct {
	worker *jobs.Worker
}

func NewHealthHandler(worker *jobs.Worker) *HealthHandler {
	return &HealthHandler{worker: worker}
}

// @Summary Health Check
// @Description Checks if the API is running
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "agency-api",
		"version": "1.0.0",
	})
}

// @Summary Worker Status
// @Description Statistics about background jobs (active, completed, failed, queue length)
// @Tags Health
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Router /jobs/status [get]
func (h *HealthHandler) WorkerStatus(c *gin.Context) {
	respondData(c, http.StatusOK, h.worker.GetStats())
}
