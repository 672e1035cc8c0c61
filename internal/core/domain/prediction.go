package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Tensors
// ============================================================================

// Tensor is a dense row-major float32 array. Created per request and owned by it.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewZeroTensor allocates a zero-filled tensor of the given shape.
func NewZeroTensor(shape []int64) *Tensor {
	return &Tensor{Shape: append([]int64(nil), shape...), Data: make([]float32, ShapeSize(shape))}
}

// ShapeSize is the element count of shape.
func ShapeSize(shape []int64) int {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}

// Validate checks the data length against the shape.
func (t *Tensor) Validate() error {
	if t == nil {
		return fmt.Errorf("nil tensor")
	}
	if want := ShapeSize(t.Shape); want != len(t.Data) {
		return fmt.Errorf("tensor shape %v needs %d values, has %d", t.Shape, want, len(t.Data))
	}
	return nil
}

// ============================================================================
// Stage results
// ============================================================================

// ScreeningResult is the outcome of the mole detector. Probability is unrounded.
type ScreeningResult struct {
	Probability float64
	IsMole      bool
}

// PredictionResult is the outcome of a lesion classifier.
type PredictionResult struct {
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"model_version"`
}

// Outcome distinguishes the two response variants.
type Outcome string

const (
	OutcomeNotMole    Outcome = "not_mole"
	OutcomeClassified Outcome = "classified"
)

// InferenceResponse is the single logical response of /predict. Exactly one variant is
// populated: Message/ScreeningModel for not_mole, Classification for classified.
type InferenceResponse struct {
	Outcome              Outcome           `json:"outcome"`
	IsMole               bool              `json:"is_mole"`
	ScreeningProbability float64           `json:"mole_detection_probability"`
	Message              string            `json:"message,omitempty"`
	ScreeningModel       string            `json:"model_used,omitempty"`
	Classification       *PredictionResult `json:"classification,omitempty"`
}

// NewNotMoleResponse assembles the screened-out variant.
func NewNotMoleResponse(screening ScreeningResult, message string) *InferenceResponse {
	return &InferenceResponse{
		Outcome:              OutcomeNotMole,
		IsMole:               false,
		ScreeningProbability: RoundScreening(screening.Probability),
		Message:              message,
		ScreeningModel:       string(ModelScreening),
	}
}

// NewClassifiedResponse assembles the classified variant.
func NewClassifiedResponse(screening ScreeningResult, result *PredictionResult) *InferenceResponse {
	return &InferenceResponse{
		Outcome:              OutcomeClassified,
		IsMole:               true,
		ScreeningProbability: RoundScreening(screening.Probability),
		Classification:       result,
	}
}

// ============================================================================
// Rounding
// ============================================================================

// RoundScreening rounds a screening probability to 4 decimal places.
func RoundScreening(p float64) float64 { return roundTo(p, 4) }

// RoundClassProbability rounds a class probability to 3 decimal places.
func RoundClassProbability(p float64) float64 { return roundTo(p, 3) }

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// ============================================================================
// Audit
// ============================================================================

// InferenceEvent records the outcome of a completed request. It carries no patient fields.
type InferenceEvent struct {
	ID                   uuid.UUID `json:"id"`
	CreatedAt            time.Time `json:"created_at"`
	RequestID            string    `json:"request_id"`
	Outcome              Outcome   `json:"outcome"`
	ScreeningProbability float64   `json:"screening_probability"`
	ModelVersion         string    `json:"model_version"`
	TopClass             string    `json:"top_class"`
	TopProbability       float64   `json:"top_probability"`
	MetadataSupplied     bool      `json:"metadata_supplied"`
	CacheHit             bool      `json:"cache_hit"`
	LatencyMs            int64     `json:"latency_ms"`
}

// NewInferenceEvent derives an audit row from a response.
func NewInferenceEvent(requestID string, resp *InferenceResponse, metadataSupplied, cacheHit bool, latency time.Duration) *InferenceEvent {
	ev := &InferenceEvent{
		ID:                   uuid.New(),
		CreatedAt:            time.Now().UTC(),
		RequestID:            requestID,
		Outcome:              resp.Outcome,
		ScreeningProbability: resp.ScreeningProbability,
		ModelVersion:         resp.ScreeningModel,
		MetadataSupplied:     metadataSupplied,
		CacheHit:             cacheHit,
		LatencyMs:            latency.Milliseconds(),
	}
	if resp.Classification != nil {
		ev.ModelVersion = resp.Classification.ModelVersion
		for label, p := range resp.Classification.Probabilities {
			if ev.TopClass == "" || p > ev.TopProbability || (p == ev.TopProbability && label < ev.TopClass) {
				ev.TopClass = label
				ev.TopProbability = p
			}
		}
	}
	return ev
}
