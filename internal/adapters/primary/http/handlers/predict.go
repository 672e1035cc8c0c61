package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"lesion-inference-service/internal/adapters/primary/http/dto"
	"lesion-inference-service/internal/adapters/primary/http/middleware"
	"lesion-inference-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the image limit for boundaries, headers
// and the metadata field.
const multipartOverhead = 1 << 20

func (h *Handler) Predict(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	bodyLimit := h.upload.MaxBytes + multipartOverhead

	if c.Request.ContentLength > bodyLimit {
		h.fileTooLarge(c, c.Request.ContentLength)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	header, err := c.FormFile("image_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.fileTooLarge(c, 0)
		case errors.Is(err, http.ErrMissingFile):
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(domain.CodeValidationError,
				"Input validation failed.", domain.FieldError{Field: "image_file", Message: "field required"}))
		default:
			middleware.Logger(c).WithError(err).Debug("multipart parse failed")
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(domain.CodeValidationError,
				"Input validation failed.", domain.FieldError{Field: "image_file", Message: "expected multipart/form-data with an image_file part"}))
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		mapDomainError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	resp, err := h.inferenceSvc.Predict(c.Request.Context(), domain.PredictRequest{
		RequestID: requestID,
		Image: domain.Upload{
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		},
		Metadata: c.PostForm("metadata"),
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictResponse(resp))
}

func (h *Handler) fileTooLarge(c *gin.Context, size int64) {
	detail := domain.FieldError{Field: "image_file"}
	if size > 0 {
		detail.ValueProvided = size
	}
	mapDomainError(c, domain.NewRequestError(domain.ErrFileTooLarge, domain.CodeFileTooLarge,
		fmt.Sprintf("Image file size exceeds limit of %dMB.", h.upload.MaxBytes/(1024*1024)), detail))
}
