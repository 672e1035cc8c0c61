package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lesion-inference-service/internal/core/domain"
)

const genericContentType = "application/octet-stream"

// ValidateUpload applies the cheap structural checks, size first, then content type.
// Nothing is decoded here.
func ValidateUpload(limits domain.UploadLimits, upload domain.Upload) error {
	size := upload.Size
	if size <= 0 {
		size = int64(len(upload.Data))
	}
	if limits.MaxBytes > 0 && size > limits.MaxBytes {
		return domain.NewRequestError(domain.ErrFileTooLarge, domain.CodeFileTooLarge,
			fmt.Sprintf("Image file size exceeds limit of %dMB.", limits.MaxBytes/(1024*1024)),
			domain.FieldError{Field: "image_file", ValueProvided: size})
	}

	contentType := upload.ContentType
	if contentType == "" || strings.EqualFold(contentType, genericContentType) {
		contentType = mimetype.Detect(upload.Data).String()
	}
	if !limits.Allows(contentType) {
		return domain.NewRequestError(domain.ErrInvalidFileType, domain.CodeInvalidFileType,
			fmt.Sprintf("Invalid image file type. Allowed types: %s.", strings.Join(limits.AllowedContentTypes, ", ")),
			domain.FieldError{Field: "image_file", ValueProvided: contentType})
	}
	return nil
}

type metadataPayload struct {
	Age      *int    `json:"age" binding:"required,gt=0"`
	Sex      *string `json:"sex" binding:"required"`
	Location *string `json:"location" binding:"required"`
}

// ParseMetadata decodes the optional metadata form field. An empty or blank string means
// the caller sent no metadata and yields nil without error.
func ParseMetadata(raw string) (*domain.PatientMetadata, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, nil
	}

	if !json.Valid([]byte(body)) {
		return nil, domain.NewRequestError(domain.ErrInvalidJSONMetadata, domain.CodeInvalidJSONMetadata,
			"Metadata is not a valid JSON string.", domain.FieldError{Field: "metadata"})
	}
	if body[0] != '{' {
		return nil, metadataValidationError(domain.FieldError{
			Field:   "metadata",
			Message: "metadata must be a JSON object",
		})
	}

	var payload metadataPayload
	if err := binding.JSON.BindBody([]byte(body), &payload); err != nil {
		return nil, metadataValidationError(fieldErrorsFromBinding(err)...)
	}

	meta, violations := domain.NewPatientMetadata(*payload.Age, *payload.Sex, *payload.Location)
	if len(violations) > 0 {
		return nil, metadataValidationError(violations...)
	}
	return meta, nil
}

func metadataValidationError(details ...domain.FieldError) error {
	return domain.NewRequestError(domain.ErrMetadataValidation, domain.CodeInvalidInput,
		"Metadata validation failed.", details...)
}

func fieldErrorsFromBinding(err error) []domain.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []domain.FieldError{{
			Field:   "metadata." + typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type.String(), typeErr.Value),
		}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]domain.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			field := "metadata." + strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				out = append(out, domain.FieldError{Field: field, Message: "field required"})
			case "gt":
				out = append(out, domain.FieldError{Field: field, ValueProvided: fe.Value(), Message: "age must be a positive integer"})
			default:
				out = append(out, domain.FieldError{Field: field, ValueProvided: fe.Value(), Message: fe.Error()})
			}
		}
		return out
	}

	return []domain.FieldError{{Field: "metadata", Message: err.Error()}}
}
