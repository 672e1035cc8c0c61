package ports

import (
	"context"

	"lesion-inference-service/internal/core/domain"
)

type InferenceEventRepository interface {
	Record(ctx context.Context, event *domain.InferenceEvent) error
}
