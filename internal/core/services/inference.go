package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// InferenceService runs the two-stage pipeline: screening, then lesion classification for
// images the mole detector accepts.
type InferenceService struct {
	registry *ModelRegistry
	catalog  domain.Catalog
	cache    ports.PredictionCache
	cacheTTL time.Duration
	events   ports.InferenceEventRepository
}

// NewInferenceService creates the orchestrator. cache and events may be nil.
func NewInferenceService(
	registry *ModelRegistry,
	catalog domain.Catalog,
	cache ports.PredictionCache,
	cacheTTL time.Duration,
	events ports.InferenceEventRepository,
) *InferenceService {
	return &InferenceService{
		registry: registry,
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
		events:   events,
	}
}

func (s *InferenceService) Predict(ctx context.Context, req domain.PredictRequest) (*domain.InferenceResponse, error) {
	start := time.Now()
	logger := log.WithField("request_id", req.RequestID)

	// Validated
	if err := ValidateUpload(s.catalog.Upload, req.Image); err != nil {
		return nil, err
	}
	meta, err := ParseMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(req.Image.Data, meta)
	if cached := s.lookup(ctx, cacheKey, logger); cached != nil {
		s.record(ctx, req.RequestID, cached, meta != nil, true, time.Since(start), logger)
		return cached, nil
	}

	// Screened
	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}
	screening, err := s.screen(ctx, req.Image.Data, logger)
	if err != nil {
		return nil, err
	}

	var resp *domain.InferenceResponse
	if !screening.IsMole {
		logger.WithField("probability", screening.Probability).Info("image rejected by mole detector")
		resp = domain.NewNotMoleResponse(screening, s.catalog.NotAMoleMessage)
	} else {
		if err := checkDeadline(ctx); err != nil {
			return nil, err
		}
		result, err := s.classify(ctx, req.Image.Data, meta, logger)
		if err != nil {
			return nil, err
		}
		resp = domain.NewClassifiedResponse(screening, result)
	}

	s.store(ctx, cacheKey, resp, logger)
	s.record(ctx, req.RequestID, resp, meta != nil, false, time.Since(start), logger)
	return resp, nil
}

func (s *InferenceService) screen(ctx context.Context, data []byte, logger *log.Entry) (domain.ScreeningResult, error) {
	model, err := s.registry.Get(domain.ModelScreening)
	if err != nil {
		return domain.ScreeningResult{}, err
	}

	tensor, err := ScreeningImageTransform(model.Spec)(data)
	if err != nil {
		return domain.ScreeningResult{}, err
	}

	out, err := model.Predict(ctx, map[domain.InputRole]*domain.Tensor{domain.RoleImage: tensor})
	if err != nil {
		return domain.ScreeningResult{}, inferenceError(model.Spec.ID, err)
	}
	if len(out) != 1 {
		logger.WithFields(log.Fields{
			"model":    model.Spec.ID,
			"expected": 1,
			"got":      len(out),
		}).Error("screening output length mismatch")
		return domain.ScreeningResult{}, fmt.Errorf("%w: %s returned %d values, expected 1",
			domain.ErrOutputMismatch, model.Spec.ID, len(out))
	}

	if err := checkProbabilities(model.Spec.ID, out, logger); err != nil {
		return domain.ScreeningResult{}, err
	}

	p := float64(out[0])
	return domain.ScreeningResult{Probability: p, IsMole: p > s.catalog.ScreeningThreshold}, nil
}

func (s *InferenceService) classify(
	ctx context.Context,
	data []byte,
	meta *domain.PatientMetadata,
	logger *log.Entry,
) (*domain.PredictionResult, error) {
	id := domain.ModelImageOnly
	if meta != nil {
		id = domain.ModelMultiInput
	}
	model, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}

	image, err := ClassifierImageTransform(model.Spec)(data)
	if err != nil {
		return nil, err
	}
	inputs := map[domain.InputRole]*domain.Tensor{domain.RoleImage: image}
	if meta != nil {
		metaTensor, err := PreprocessMetadata(meta, s.catalog)
		if err != nil {
			return nil, err
		}
		inputs[domain.RoleMetadata] = metaTensor
	}

	out, err := model.Predict(ctx, inputs)
	if err != nil {
		return nil, inferenceError(id, err)
	}

	classes := model.Spec.Classes
	if len(out) != classes.Len() {
		logger.WithFields(log.Fields{
			"model":    id,
			"expected": classes.Len(),
			"got":      len(out),
		}).Error("classifier output length does not match class vocabulary")
		return nil, fmt.Errorf("%w: %s returned %d values, expected %d",
			domain.ErrOutputMismatch, id, len(out), classes.Len())
	}

	if err := checkProbabilities(id, out, logger); err != nil {
		return nil, err
	}

	probs := make(map[string]float64, len(out))
	for i, label := range classes.DisplayNames() {
		probs[label] = domain.RoundClassProbability(float64(out[i]))
	}
	return &domain.PredictionResult{Probabilities: probs, ModelVersion: model.Spec.Version}, nil
}

// checkProbabilities rejects NaN, infinite or out-of-range model output.
func checkProbabilities(id domain.ModelID, out []float32, logger *log.Entry) error {
	for i, v := range out {
		p := float64(v)
		if math.IsNaN(p) || p < 0 || p > 1 {
			logger.WithFields(log.Fields{
				"model": id,
				"index": i,
				"value": p,
			}).Error("model output is not a probability")
			return fmt.Errorf("%w: %s returned %v at index %d", domain.ErrOutputMismatch, id, p, i)
		}
	}
	return nil
}

func checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return nil
}

func inferenceError(id domain.ModelID, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s inference: %v", domain.ErrTimeout, id, err)
	}
	return fmt.Errorf("%s inference: %w", id, err)
}

// ============================================================================
// Cache and audit
// ============================================================================

// cacheKey binds a response to the exact image bytes, the normalized metadata and the
// versions of every model that could have produced it.
func (s *InferenceService) cacheKey(data []byte, meta *domain.PatientMetadata) string {
	if s.cache == nil {
		return ""
	}
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "|%s", meta.CacheKey())
	for _, id := range domain.AllModels {
		if spec, ok := s.catalog.Spec(id); ok {
			fmt.Fprintf(h, "|%s=%s", id, spec.Version)
		}
	}
	fmt.Fprintf(h, "|t=%g", s.catalog.ScreeningThreshold)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *InferenceService) lookup(ctx context.Context, key string, logger *log.Entry) *domain.InferenceResponse {
	if s.cache == nil {
		return nil
	}
	resp, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.WithError(err).Warn("prediction cache lookup failed")
		return nil
	}
	if resp != nil {
		logger.Debug("prediction cache hit")
	}
	return resp
}

func (s *InferenceService) store(ctx context.Context, key string, resp *domain.InferenceResponse, logger *log.Entry) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, resp, s.cacheTTL); err != nil {
		logger.WithError(err).Warn("prediction cache store failed")
	}
}

func (s *InferenceService) record(
	ctx context.Context,
	requestID string,
	resp *domain.InferenceResponse,
	metadataSupplied, cacheHit bool,
	latency time.Duration,
	logger *log.Entry,
) {
	if s.events == nil {
		return
	}
	event := domain.NewInferenceEvent(requestID, resp, metadataSupplied, cacheHit, latency)
	if err := s.events.Record(ctx, event); err != nil {
		logger.WithError(err).Warn("failed to record inference event")
	}
}
