package handlers

import (
	"net/http"

	"lesion-inference-service/internal/core/domain"
	"lesion-inference-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

const welcomeMessage = "Welcome to the SkinSight API. Use the /predict endpoint to analyze images."

type Handler struct {
	inferenceSvc *services.InferenceService
	registry     *services.ModelRegistry
	upload       domain.UploadLimits
}

func New(
	inferenceSvc *services.InferenceService,
	registry *services.ModelRegistry,
	upload domain.UploadLimits,
) *Handler {
	return &Handler{
		inferenceSvc: inferenceSvc,
		registry:     registry,
		upload:       upload,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)

	// Inference
	r.POST("/predict", h.Predict)

	// Operations
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}
