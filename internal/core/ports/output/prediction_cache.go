package ports

import (
	"context"
	"time"

	"lesion-inference-service/internal/core/domain"
)

// PredictionCache stores finished responses keyed by request content.
// Get returns nil, nil on a miss.
type PredictionCache interface {
	Get(ctx context.Context, key string) (*domain.InferenceResponse, error)
	Put(ctx context.Context, key string, resp *domain.InferenceResponse, ttl time.Duration) error
}
