package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lesion-inference-service/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMapDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"file too large", domain.NewRequestError(domain.ErrFileTooLarge, domain.CodeFileTooLarge, "too big"), http.StatusBadRequest, domain.CodeFileTooLarge},
		{"invalid image", domain.NewRequestError(domain.ErrInvalidImage, domain.CodeInvalidImage, "bad"), http.StatusBadRequest, domain.CodeInvalidImage},
		{"schema", domain.NewRequestError(domain.ErrMetadataValidation, domain.CodeInvalidInput, "bad"), http.StatusUnprocessableEntity, domain.CodeInvalidInput},
		{"model not ready", domain.NewRequestError(domain.ErrModelUnavailable, domain.CodeModelNotReady, "gone"), http.StatusServiceUnavailable, domain.CodeModelNotReady},
		{"bare model unavailable", domain.ErrScreeningModelUnavailable, http.StatusServiceUnavailable, domain.CodeModelNotReady},
		{"timeout", fmt.Errorf("%w: %v", domain.ErrTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout, domain.CodeTimeout},
		{"output mismatch", fmt.Errorf("%w: 3 != 7", domain.ErrOutputMismatch), http.StatusInternalServerError, domain.CodeModelOutputMismatch},
		{"metadata preprocessing", fmt.Errorf("%w: std is zero", domain.ErrMetadataPreprocessing), http.StatusInternalServerError, domain.CodeMetadataPreprocessing},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			mapDomainError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}
