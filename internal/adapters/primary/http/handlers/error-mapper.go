package handlers

import (
	"errors"
	"net/http"

	"lesion-inference-service/internal/adapters/primary/http/dto"
	"lesion-inference-service/internal/adapters/primary/http/middleware"
	"lesion-inference-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		c.JSON(statusForCode(reqErr.Code), dto.NewErrorResponse(reqErr.Code, reqErr.Message, reqErr.Details...))
		return
	}

	entry := middleware.Logger(c).WithError(err)

	switch {
	// Service unavailable errors
	case errors.Is(err, domain.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(domain.CodeModelNotReady, "The requested model is not available."))

	// Timeouts
	case errors.Is(err, domain.ErrTimeout):
		entry.Warn("request timed out")
		c.JSON(http.StatusGatewayTimeout, dto.NewErrorResponse(domain.CodeTimeout, "The request timed out."))

	// Internal errors with a known cause
	case errors.Is(err, domain.ErrOutputMismatch):
		entry.Error("model output mismatch")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(domain.CodeModelOutputMismatch, "Model output does not match the expected classes."))
	case errors.Is(err, domain.ErrMetadataPreprocessing):
		entry.Error("metadata preprocessing failed")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(domain.CodeMetadataPreprocessing, "Failed to preprocess metadata."))

	default:
		entry.Error("unhandled error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(domain.CodeInternal, "An unexpected internal server error occurred."))
	}
}

func statusForCode(code string) int {
	switch code {
	case domain.CodeFileTooLarge,
		domain.CodeInvalidFileType,
		domain.CodeInvalidImage,
		domain.CodeInvalidJSONMetadata:
		return http.StatusBadRequest
	case domain.CodeInvalidInput,
		domain.CodeValidationError:
		return http.StatusUnprocessableEntity
	case domain.CodeModelNotReady:
		return http.StatusServiceUnavailable
	case domain.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
