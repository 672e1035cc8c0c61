package ports

import (
	"context"
	"time"

	"lesion-inference-service/internal/core/domain"
)

// TensorBinding ties a graph input to the role that feeds it.
type TensorBinding struct {
	Name  string
	Role  domain.InputRole
	Shape []int64
}

// SessionSpec describes one model file to open.
type SessionSpec struct {
	Model      domain.ModelID
	Path       string
	Inputs     []TensorBinding
	OutputName string
}

// SessionStats are counters of the slot pool guarding a session.
type SessionStats struct {
	PoolSize        int           `json:"pool_size"`
	InUse           int           `json:"sessions_in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

// ModelRuntime opens inference sessions. Implementations must be safe to call from a
// single goroutine at startup; sessions they return must be safe for concurrent Run.
type ModelRuntime interface {
	Open(spec SessionSpec) (Session, error)
}

// Session is a loaded, callable model.
type Session interface {
	// Run feeds one tensor per bound role and returns the flattened first output.
	Run(ctx context.Context, inputs map[domain.InputRole]*domain.Tensor) ([]float32, error)
	Stats() SessionStats
	Close() error
}
