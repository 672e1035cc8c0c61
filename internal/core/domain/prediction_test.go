package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRounding(t *testing.T) {
	assert.Equal(t, 0.3822, RoundScreening(0.38224))
	assert.Equal(t, 0.123, RoundClassProbability(0.12345))
	assert.Equal(t, 0.5, RoundClassProbability(0.49999))

	for _, p := range []float64{0, 1, 0.123456, 0.987654321, 0.5} {
		assert.Equal(t, RoundScreening(p), RoundScreening(RoundScreening(p)))
		assert.Equal(t, RoundClassProbability(p), RoundClassProbability(RoundClassProbability(p)))
	}
}

func TestTensor_Validate(t *testing.T) {
	assert.NoError(t, NewZeroTensor([]int64{1, 4, 4, 3}).Validate())
	assert.Error(t, (&Tensor{Shape: []int64{1, 3}, Data: []float32{1, 2}}).Validate())

	var nilTensor *Tensor
	assert.Error(t, nilTensor.Validate())
}

func TestResponseVariants(t *testing.T) {
	notMole := NewNotMoleResponse(ScreeningResult{Probability: 0.123456}, NotAMoleMessage)
	assert.Equal(t, OutcomeNotMole, notMole.Outcome)
	assert.False(t, notMole.IsMole)
	assert.Equal(t, 0.1235, notMole.ScreeningProbability)
	assert.Nil(t, notMole.Classification)

	classified := NewClassifiedResponse(ScreeningResult{Probability: 0.8, IsMole: true},
		&PredictionResult{Probabilities: map[string]float64{"Nevus": 0.9}, ModelVersion: "1.0.2"})
	assert.Equal(t, OutcomeClassified, classified.Outcome)
	assert.True(t, classified.IsMole)
	assert.Empty(t, classified.Message)
}

func TestNewInferenceEvent(t *testing.T) {
	resp := NewClassifiedResponse(ScreeningResult{Probability: 0.8, IsMole: true}, &PredictionResult{
		Probabilities: map[string]float64{"Melanoma": 0.4, "Nevus": 0.4, "Dermatofibroma": 0.2},
		ModelVersion:  "1.0.2",
	})

	ev := NewInferenceEvent("req-9", resp, true, false, 1500*time.Millisecond)
	assert.Equal(t, "Melanoma", ev.TopClass)
	assert.Equal(t, 0.4, ev.TopProbability)
	assert.Equal(t, "1.0.2", ev.ModelVersion)
	assert.Equal(t, int64(1500), ev.LatencyMs)
	assert.True(t, ev.MetadataSupplied)

	notMole := NewInferenceEvent("req-10", NewNotMoleResponse(ScreeningResult{Probability: 0.1}, "no"), false, true, 0)
	assert.Equal(t, "mole_detector", notMole.ModelVersion)
	assert.Empty(t, notMole.TopClass)
}

func TestRequestError(t *testing.T) {
	err := NewRequestError(ErrFileTooLarge, CodeFileTooLarge, "Image file size exceeds limit of 10MB.")
	wrapped := fmt.Errorf("validate: %w", err)

	assert.True(t, errors.Is(wrapped, ErrFileTooLarge))
	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
	assert.False(t, errors.Is(wrapped, ErrInvalidImage))

	var reqErr *RequestError
	assert.True(t, errors.As(wrapped, &reqErr))
	assert.Equal(t, CodeFileTooLarge, reqErr.Code)
	assert.Contains(t, err.Error(), "10MB")
}
