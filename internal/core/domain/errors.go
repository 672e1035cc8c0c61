package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Caller input errors
// ============================================================================

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidImage        = errors.New("image could not be decoded")
	ErrFileTooLarge        = fmt.Errorf("%w: image file too large", ErrInvalidInput)
	ErrInvalidFileType     = fmt.Errorf("%w: invalid image file type", ErrInvalidInput)
	ErrMissingImage        = fmt.Errorf("%w: image_file is required", ErrInvalidInput)
	ErrInvalidJSONMetadata = fmt.Errorf("%w: metadata is not valid JSON", ErrInvalidInput)
	ErrMetadataValidation  = fmt.Errorf("%w: metadata validation failed", ErrInvalidInput)
)

// ============================================================================
// Model errors
// ============================================================================

var (
	ErrModelUnavailable          = errors.New("model is not available")
	ErrScreeningModelUnavailable = fmt.Errorf("%w: mole detector failed to load", ErrModelUnavailable)
	ErrOutputMismatch            = errors.New("model output does not match class vocabulary")
	ErrWarmupFailed              = errors.New("model warm-up inference failed")
)

// ============================================================================
// Internal errors
// ============================================================================

var (
	ErrMetadataPreprocessing = errors.New("metadata preprocessing failed")
	ErrTimeout               = errors.New("request timed out")
)

// ============================================================================
// Error codes
// ============================================================================

const (
	CodeFileTooLarge          = "FILE_TOO_LARGE"
	CodeInvalidFileType       = "INVALID_FILE_TYPE"
	CodeInvalidImage          = "INVALID_IMAGE"
	CodeInvalidJSONMetadata   = "INVALID_JSON_METADATA"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeModelNotReady         = "MODEL_NOT_READY"
	CodeModelOutputMismatch   = "MODEL_OUTPUT_MISMATCH"
	CodeMetadataPreprocessing = "METADATA_PREPROCESSING_FAILURE"
	CodeTimeout               = "TIMEOUT"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field         string `json:"field,omitempty"`
	ValueProvided any    `json:"value_provided,omitempty"`
	Message       string `json:"message,omitempty"`
}

// RequestError is a per-request failure with a machine-readable code. It unwraps to one of
// the sentinels above so callers classify it with errors.Is.
type RequestError struct {
	Code    string
	Message string
	Details []FieldError
	Err     error
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NewRequestError builds a RequestError around a sentinel.
func NewRequestError(sentinel error, code, message string, details ...FieldError) *RequestError {
	return &RequestError{Code: code, Message: message, Details: details, Err: sentinel}
}
