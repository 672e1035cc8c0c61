package handlers

import (
	"net/http"

	"lesion-inference-service/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToMetricsResponse(h.registry.Status(), h.registry.Stats()))
}
