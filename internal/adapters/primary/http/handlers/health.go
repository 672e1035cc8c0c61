package handlers

import (
	"net/http"

	"lesion-inference-service/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
)

// Health reports 200 only when the mole detector is loaded.
func (h *Handler) Health(c *gin.Context) {
	status := h.registry.Status()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, dto.ToHealthResponse(status))
}
