package handlers

import (
	"net/http"

	"assetdesk/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency health snapshot.
type HealthHandler struct {
	Monitor *utils.HealthMonitor
}

func NewHealthHandler(monitor *utils.HealthMonitor) *HealthHandler {
	return &HealthHandler{Monitor: monitor}
}

// HealthCheckHandler handles GET /health.
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	status := h.Monitor.Status()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
