package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

func toMap(t *testing.T, v any) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestToPredictResponse_NotAMole(t *testing.T) {
	resp := domain.NewNotMoleResponse(domain.ScreeningResult{Probability: 0.38221}, domain.NotAMoleMessage)

	out := toMap(t, ToPredictResponse(resp))
	assert.Len(t, out, 4)
	assert.Equal(t, false, out["is_mole"])
	assert.Equal(t, 0.3822, out["mole_detection_probability"])
	assert.Equal(t, "mole_detector", out["model_used"])
	assert.Equal(t, domain.NotAMoleMessage, out["message"])
}

func TestToPredictResponse_Classified(t *testing.T) {
	resp := domain.NewClassifiedResponse(
		domain.ScreeningResult{Probability: 0.97049, IsMole: true},
		&domain.PredictionResult{Probabilities: map[string]float64{"Melanoma": 0.1, "Nevus": 0.9}, ModelVersion: "1.0.2"},
	)

	out := toMap(t, ToPredictResponse(resp))
	assert.Len(t, out, 4)
	assert.Equal(t, true, out["is_mole"])
	assert.Equal(t, 0.9705, out["mole_detection_probability"])
	assert.Equal(t, "1.0.2", out["model_version"])
	assert.Equal(t, map[string]interface{}{"Melanoma": 0.1, "Nevus": 0.9}, out["predictions"])
}

func TestToHealthResponse(t *testing.T) {
	healthy := domain.RegistryStatus{
		Healthy: true,
		Models: map[domain.ModelID]domain.ModelArtifact{
			domain.ModelScreening: {State: domain.ArtifactLoaded},
			domain.ModelImageOnly: {State: domain.ArtifactLoaded},
		},
	}
	out := ToHealthResponse(healthy)
	assert.Equal(t, "healthy", out.Status)
	assert.True(t, out.MoleDetectorModelLoaded)
	assert.False(t, out.MultiInputSkinModelLoaded)
	assert.True(t, out.ImageOnlySkinModelLoaded)
	assert.Nil(t, out.Reason)

	out = ToHealthResponse(domain.RegistryStatus{})
	assert.Equal(t, "unhealthy", out.Status)
	require.NotNil(t, out.Reason)
	assert.Contains(t, *out.Reason, "Mole detector")
}

func TestToMetricsResponse(t *testing.T) {
	status := domain.RegistryStatus{Models: map[domain.ModelID]domain.ModelArtifact{
		domain.ModelScreening:  {State: domain.ArtifactLoaded, Version: "mole_detector", LoadPath: domain.LoadPathSaved},
		domain.ModelMultiInput: {State: domain.ArtifactUnavailable},
	}}
	stats := map[domain.ModelID]ports.SessionStats{
		domain.ModelScreening: {PoolSize: 4, TotalAcquired: 10, WaitTime: time.Millisecond},
	}

	out := ToMetricsResponse(status, stats)
	require.NotNil(t, out.Models[domain.ModelScreening].Pool)
	assert.Equal(t, int64(10), out.Models[domain.ModelScreening].Pool.TotalAcquired)
	assert.Nil(t, out.Models[domain.ModelMultiInput].Pool)
}

func TestNewErrorResponse(t *testing.T) {
	out := toMap(t, NewErrorResponse(domain.CodeInvalidInput, "Metadata validation failed.",
		domain.FieldError{Field: "metadata.age", ValueProvided: -1, Message: "age must be a positive integer"}))

	envelope := out["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_INPUT", envelope["code"])
	details := envelope["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, float64(-1), details[0].(map[string]interface{})["value_provided"])

	bare := toMap(t, NewErrorResponse(domain.CodeInternal, "oops"))
	assert.NotContains(t, bare["error"], "details")
}
