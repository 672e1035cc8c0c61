package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

var ErrEventExists = errors.New("inference event already recorded")

const createInferenceEventTable = `
	CREATE TABLE IF NOT EXISTS inference_event (
		id                    UUID PRIMARY KEY,
		created_at            TIMESTAMPTZ NOT NULL,
		request_id            TEXT NOT NULL,
		outcome               TEXT NOT NULL,
		screening_probability DOUBLE PRECISION NOT NULL,
		model_version         TEXT NOT NULL,
		top_class             TEXT NOT NULL DEFAULT '',
		top_probability       DOUBLE PRECISION NOT NULL DEFAULT 0,
		metadata_supplied     BOOLEAN NOT NULL,
		cache_hit             BOOLEAN NOT NULL,
		latency_ms            BIGINT NOT NULL
	)
`

// Execer is the part of *pgxpool.Pool the audit repository uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type inferenceEventRepo struct {
	db Execer
}

// NewInferenceEventRepository creates a new InferenceEventRepository
func NewInferenceEventRepository(db Execer) ports.InferenceEventRepository {
	return &inferenceEventRepo{db: db}
}

// EnsureSchema creates the audit table when it does not exist yet.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, createInferenceEventTable); err != nil {
		return fmt.Errorf("create inference_event table: %w", err)
	}
	return nil
}

func (r *inferenceEventRepo) Record(ctx context.Context, event *domain.InferenceEvent) error {
	query := `
		INSERT INTO inference_event
			(id, created_at, request_id, outcome, screening_probability, model_version,
			 top_class, top_probability, metadata_supplied, cache_hit, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.CreatedAt, event.RequestID,
		string(event.Outcome), event.ScreeningProbability, event.ModelVersion,
		event.TopClass, event.TopProbability,
		event.MetadataSupplied, event.CacheHit, event.LatencyMs,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrEventExists, event.ID)
		}
		return fmt.Errorf("record inference event: %w", err)
	}
	return nil
}
