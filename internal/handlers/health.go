package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/authcore/internal/monitoring"
)

// HealthHandler reports dependency status.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// GET /health answers 200 while the service can serve requests. A degraded optional
// dependency keeps 200; a down dependency yields 503.
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.manager.Evaluate(requestContext(c))
	status := http.StatusOK
	if report.Status == monitoring.StatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
