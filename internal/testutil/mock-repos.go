package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"lesion-inference-service/internal/core/domain"
)

// MockPredictionCache is a mock of PredictionCache.
type MockPredictionCache struct {
	mock.Mock
}

func (m *MockPredictionCache) Get(ctx context.Context, key string) (*domain.InferenceResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InferenceResponse), args.Error(1)
}

func (m *MockPredictionCache) Put(ctx context.Context, key string, resp *domain.InferenceResponse, ttl time.Duration) error {
	args := m.Called(ctx, key, resp, ttl)
	return args.Error(0)
}

// MockInferenceEventRepo is a mock of InferenceEventRepository.
type MockInferenceEventRepo struct {
	mock.Mock
}

func (m *MockInferenceEventRepo) Record(ctx context.Context, event *domain.InferenceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
