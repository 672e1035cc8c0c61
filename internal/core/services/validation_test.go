package services

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesion-inference-service/internal/core/domain"
	"lesion-inference-service/internal/testutil"
)

func requestError(t *testing.T, err error) *domain.RequestError {
	t.Helper()
	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr), "expected RequestError, got %v", err)
	return reqErr
}

func TestValidateUpload(t *testing.T) {
	limits := domain.DefaultCatalog().Upload
	png := testutil.PNG(4, 4, color.Black)

	tests := []struct {
		name     string
		upload   domain.Upload
		wantCode string
		sentinel error
	}{
		{
			name:   "png accepted",
			upload: domain.Upload{Size: int64(len(png)), ContentType: "image/png", Data: png},
		},
		{
			name:   "content type params ignored",
			upload: domain.Upload{Size: int64(len(png)), ContentType: "IMAGE/PNG; charset=binary", Data: png},
		},
		{
			name:   "octet-stream is sniffed",
			upload: domain.Upload{Size: int64(len(png)), ContentType: "application/octet-stream", Data: png},
		},
		{
			name:     "too large",
			upload:   domain.Upload{Size: 11 * 1024 * 1024, ContentType: "image/png", Data: png},
			wantCode: domain.CodeFileTooLarge,
			sentinel: domain.ErrFileTooLarge,
		},
		{
			name:     "size checked before type",
			upload:   domain.Upload{Size: 11 * 1024 * 1024, ContentType: "text/plain", Data: png},
			wantCode: domain.CodeFileTooLarge,
			sentinel: domain.ErrFileTooLarge,
		},
		{
			name:     "wrong type",
			upload:   domain.Upload{Size: 5, ContentType: "text/plain", Data: []byte("hello")},
			wantCode: domain.CodeInvalidFileType,
			sentinel: domain.ErrInvalidFileType,
		},
		{
			name:     "gif is not allowed",
			upload:   domain.Upload{Size: int64(len(png)), ContentType: "image/gif", Data: png},
			wantCode: domain.CodeInvalidFileType,
			sentinel: domain.ErrInvalidFileType,
		},
		{
			name:     "missing type with non image bytes",
			upload:   domain.Upload{Data: []byte("plain text body")},
			wantCode: domain.CodeInvalidFileType,
			sentinel: domain.ErrInvalidFileType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(limits, tt.upload)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Equal(t, tt.wantCode, requestError(t, err).Code)
		})
	}
}

func TestValidateUpload_TooLargeMessage(t *testing.T) {
	err := ValidateUpload(domain.DefaultCatalog().Upload, domain.Upload{Size: 20 * 1024 * 1024, ContentType: "image/png"})
	reqErr := requestError(t, err)
	assert.Equal(t, "Image file size exceeds limit of 10MB.", reqErr.Message)
	require.Len(t, reqErr.Details, 1)
	assert.Equal(t, "image_file", reqErr.Details[0].Field)
}

func TestParseMetadata_Absent(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t"} {
		meta, err := ParseMetadata(raw)
		assert.NoError(t, err)
		assert.Nil(t, meta)
	}
}

func TestParseMetadata_Valid(t *testing.T) {
	meta, err := ParseMetadata(`{"age": 45, "sex": "female", "location": "TRUNK"}`)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 45, meta.Age)
	assert.Equal(t, "female", meta.Sex)
	assert.Equal(t, "TRUNK", meta.Location)
}

func TestParseMetadata_InvalidJSON(t *testing.T) {
	_, err := ParseMetadata(`{"age": 45, "sex": `)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidJSONMetadata))
	reqErr := requestError(t, err)
	assert.Equal(t, domain.CodeInvalidJSONMetadata, reqErr.Code)
	assert.Equal(t, "Metadata is not a valid JSON string.", reqErr.Message)
}

func TestParseMetadata_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
		wantMsg   string
	}{
		{"not an object", `[1, 2, 3]`, "metadata", "metadata must be a JSON object"},
		{"missing age", `{"sex": "Male", "location": "Trunk"}`, "metadata.age", "field required"},
		{"missing location", `{"age": 30, "sex": "Male"}`, "metadata.location", "field required"},
		{"zero age", `{"age": 0, "sex": "Male", "location": "Trunk"}`, "metadata.age", "age must be a positive integer"},
		{"negative age", `{"age": -4, "sex": "Male", "location": "Trunk"}`, "metadata.age", "age must be a positive integer"},
		{"age wrong type", `{"age": "forty", "sex": "Male", "location": "Trunk"}`, "metadata.age", ""},
		{"unknown sex", `{"age": 40, "sex": "Unknown", "location": "Trunk"}`, "metadata.sex", ""},
		{"unknown location", `{"age": 40, "sex": "Male", "location": "Back"}`, "metadata.location", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseMetadata(tt.raw)
			require.Error(t, err)
			assert.Nil(t, meta)
			assert.True(t, errors.Is(err, domain.ErrMetadataValidation))
			assert.False(t, errors.Is(err, domain.ErrInvalidJSONMetadata))

			reqErr := requestError(t, err)
			assert.Equal(t, domain.CodeInvalidInput, reqErr.Code)
			require.NotEmpty(t, reqErr.Details)
			assert.Equal(t, tt.wantField, reqErr.Details[0].Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, reqErr.Details[0].Message)
			}
		})
	}
}
