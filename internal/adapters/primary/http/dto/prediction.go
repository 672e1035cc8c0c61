package dto

import (
	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// ============================================================================
// Prediction DTOs
// ============================================================================

type NotAMoleResponse struct {
	Message                  string  `json:"message"`
	IsMole                   bool    `json:"is_mole"`
	MoleDetectionProbability float64 `json:"mole_detection_probability"`
	ModelUsed                string  `json:"model_used"`
}

type PredictionResponse struct {
	Predictions              map[string]float64 `json:"predictions"`
	ModelVersion             string             `json:"model_version"`
	IsMole                   bool               `json:"is_mole"`
	MoleDetectionProbability float64            `json:"mole_detection_probability"`
}

// ToPredictResponse picks the wire shape matching the outcome.
func ToPredictResponse(resp *domain.InferenceResponse) any {
	if resp.Outcome == domain.OutcomeNotMole || resp.Classification == nil {
		return NotAMoleResponse{
			Message:                  resp.Message,
			IsMole:                   false,
			MoleDetectionProbability: resp.ScreeningProbability,
			ModelUsed:                resp.ScreeningModel,
		}
	}
	return PredictionResponse{
		Predictions:              resp.Classification.Probabilities,
		ModelVersion:             resp.Classification.ModelVersion,
		IsMole:                   true,
		MoleDetectionProbability: resp.ScreeningProbability,
	}
}

// ============================================================================
// Health DTOs
// ============================================================================

const screeningNotLoadedReason = "Mole detector is critical and not loaded."

type HealthResponse struct {
	Status                    string  `json:"status"`
	MoleDetectorModelLoaded   bool    `json:"mole_detector_model_loaded"`
	MultiInputSkinModelLoaded bool    `json:"multi_input_skin_model_loaded"`
	ImageOnlySkinModelLoaded  bool    `json:"image_only_skin_model_loaded"`
	Reason                    *string `json:"reason"`
}

func ToHealthResponse(status domain.RegistryStatus) HealthResponse {
	resp := HealthResponse{
		Status:                    "healthy",
		MoleDetectorModelLoaded:   status.Loaded(domain.ModelScreening),
		MultiInputSkinModelLoaded: status.Loaded(domain.ModelMultiInput),
		ImageOnlySkinModelLoaded:  status.Loaded(domain.ModelImageOnly),
	}
	if !status.Healthy {
		reason := screeningNotLoadedReason
		resp.Status = "unhealthy"
		resp.Reason = &reason
	}
	return resp
}

// ============================================================================
// Metrics DTOs
// ============================================================================

type ModelMetrics struct {
	State    domain.ArtifactState `json:"state"`
	Version  string               `json:"version,omitempty"`
	LoadPath domain.LoadPath      `json:"load_path,omitempty"`
	Pool     *ports.SessionStats  `json:"pool,omitempty"`
}

type MetricsResponse struct {
	Models map[domain.ModelID]ModelMetrics `json:"models"`
}

func ToMetricsResponse(status domain.RegistryStatus, stats map[domain.ModelID]ports.SessionStats) MetricsResponse {
	out := MetricsResponse{Models: make(map[domain.ModelID]ModelMetrics, len(status.Models))}
	for id, a := range status.Models {
		m := ModelMetrics{State: a.State, Version: a.Version, LoadPath: a.LoadPath}
		if s, ok := stats[id]; ok {
			m.Pool = &s
		}
		out.Models[id] = m
	}
	return out
}

// ============================================================================
// Error DTOs
// ============================================================================

type ErrorDetail struct {
	Field         string `json:"field,omitempty"`
	ValueProvided any    `json:"value_provided,omitempty"`
	Message       string `json:"message,omitempty"`
}

type ErrorContent struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorContent `json:"error"`
}

func NewErrorResponse(code, message string, details ...domain.FieldError) ErrorResponse {
	resp := ErrorResponse{Error: ErrorContent{Code: code, Message: message}}
	for _, d := range details {
		resp.Error.Details = append(resp.Error.Details, ErrorDetail{
			Field:         d.Field,
			ValueProvided: d.ValueProvided,
			Message:       d.Message,
		})
	}
	return resp
}
