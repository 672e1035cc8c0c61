package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// LoadedModel is a model handle obtained from the registry.
type LoadedModel struct {
	Spec     domain.ModelSpec
	Artifact domain.ModelArtifact
	roles    []domain.InputRole
	session  ports.Session
}

// Predict runs one forward pass. Every role of the model's family must be supplied.
func (m *LoadedModel) Predict(ctx context.Context, inputs map[domain.InputRole]*domain.Tensor) ([]float32, error) {
	for _, role := range m.roles {
		t, ok := inputs[role]
		if !ok {
			return nil, fmt.Errorf("model %s: missing %s input", m.Spec.ID, role)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("model %s: %s input: %w", m.Spec.ID, role, err)
		}
	}
	return m.session.Run(ctx, inputs)
}

// ModelRegistry owns the three served models. It is filled once by LoadAll before traffic
// starts and only read afterwards, so no locking is needed.
type ModelRegistry struct {
	runtime   ports.ModelRuntime
	catalog   domain.Catalog
	models    map[domain.ModelID]*LoadedModel
	artifacts map[domain.ModelID]domain.ModelArtifact
	loaded    bool
}

func NewModelRegistry(runtime ports.ModelRuntime, catalog domain.Catalog) *ModelRegistry {
	return &ModelRegistry{
		runtime:   runtime,
		catalog:   catalog,
		models:    make(map[domain.ModelID]*LoadedModel),
		artifacts: make(map[domain.ModelID]domain.ModelArtifact),
	}
}

// LoadAll loads every model independently. It returns ErrScreeningModelUnavailable when
// the mandatory mole detector failed; failures of the classifiers are only logged.
func (r *ModelRegistry) LoadAll(ctx context.Context) error {
	if r.loaded {
		return errors.New("model registry already loaded")
	}
	r.loaded = true

	for _, id := range domain.AllModels {
		artifact := domain.ModelArtifact{ID: id, State: domain.ArtifactUnavailable}
		spec, ok := r.catalog.Spec(id)
		if ok {
			artifact.Version = spec.Version
			artifact.Classes = spec.Classes
		}

		model, err := r.load(ctx, id)
		if err != nil {
			artifact.LastError = err.Error()
			r.artifacts[id] = artifact
			entry := log.WithError(err).WithField("model", id)
			if id == domain.ModelScreening {
				entry.Error("mandatory model failed to load")
			} else {
				entry.Warn("optional model failed to load, dependent predictions will be unavailable")
			}
			continue
		}

		r.models[id] = model
		r.artifacts[id] = model.Artifact
		log.WithFields(log.Fields{
			"model":     id,
			"version":   model.Artifact.Version,
			"load_path": model.Artifact.LoadPath,
		}).Info("model loaded")
	}

	if _, ok := r.models[domain.ModelScreening]; !ok {
		return domain.ErrScreeningModelUnavailable
	}
	return nil
}

func (r *ModelRegistry) load(ctx context.Context, id domain.ModelID) (model *LoadedModel, err error) {
	defer func() {
		if p := recover(); p != nil {
			model, err = nil, fmt.Errorf("load %s panicked: %v", id, p)
		}
	}()

	spec, ok := r.catalog.Spec(id)
	if !ok {
		return nil, fmt.Errorf("model %s is not configured", id)
	}
	family, err := familyFor(id)
	if err != nil {
		return nil, err
	}
	if spec.Path == "" && spec.WeightsPath == "" {
		return nil, fmt.Errorf("model %s: no model path configured", id)
	}

	var errs []error

	if spec.Path != "" {
		session, savedErr := r.openSaved(ctx, spec, family)
		if savedErr == nil {
			return r.newLoadedModel(spec, family, session, domain.LoadPathSaved), nil
		}
		errs = append(errs, fmt.Errorf("saved model %s: %w", spec.Path, savedErr))
		log.WithError(savedErr).WithField("model", id).Warn("saved model load failed, trying architecture rebuild")
	}

	if spec.WeightsPath != "" {
		bindings, output := family.Rebuild(spec)
		session, err := r.openAndWarmup(ctx, spec, family, spec.WeightsPath, bindings, output)
		if err == nil {
			return r.newLoadedModel(spec, family, session, domain.LoadPathRebuilt), nil
		}
		errs = append(errs, fmt.Errorf("rebuilt model %s: %w", spec.WeightsPath, err))
	}

	return nil, errors.Join(errs...)
}

func (r *ModelRegistry) openSaved(ctx context.Context, spec domain.ModelSpec, family modelFamily) (ports.Session, error) {
	bindings, output, err := family.SavedBindings(spec)
	if err != nil {
		return nil, err
	}
	return r.openAndWarmup(ctx, spec, family, spec.Path, bindings, output)
}

func (r *ModelRegistry) openAndWarmup(
	ctx context.Context,
	spec domain.ModelSpec,
	family modelFamily,
	path string,
	bindings []ports.TensorBinding,
	output string,
) (ports.Session, error) {
	session, err := r.runtime.Open(ports.SessionSpec{
		Model:      spec.ID,
		Path:       path,
		Inputs:     bindings,
		OutputName: output,
	})
	if err != nil {
		return nil, err
	}

	if _, err := session.Run(ctx, family.WarmupInputs(spec)); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrWarmupFailed, err)
	}
	return session, nil
}

func (r *ModelRegistry) newLoadedModel(spec domain.ModelSpec, family modelFamily, session ports.Session, path domain.LoadPath) *LoadedModel {
	return &LoadedModel{
		Spec: spec,
		Artifact: domain.ModelArtifact{
			ID:          spec.ID,
			Version:     spec.Version,
			InputShapes: family.InputShapes(spec),
			Classes:     spec.Classes,
			State:       domain.ArtifactLoaded,
			LoadPath:    path,
		},
		roles:   family.Roles,
		session: session,
	}
}

// Get returns a loaded model or ErrModelUnavailable. Request handling reaches models only
// through here.
func (r *ModelRegistry) Get(id domain.ModelID) (*LoadedModel, error) {
	model, ok := r.models[id]
	if !ok {
		return nil, domain.NewRequestError(domain.ErrModelUnavailable, domain.CodeModelNotReady,
			fmt.Sprintf("The %s model is not available.", id))
	}
	return model, nil
}

// Status reports the load state of every model. Healthy iff the mole detector loaded.
func (r *ModelRegistry) Status() domain.RegistryStatus {
	models := make(map[domain.ModelID]domain.ModelArtifact, len(domain.AllModels))
	for _, id := range domain.AllModels {
		if a, ok := r.artifacts[id]; ok {
			models[id] = a
			continue
		}
		models[id] = domain.ModelArtifact{ID: id, State: domain.ArtifactUnavailable}
	}
	_, healthy := r.models[domain.ModelScreening]
	return domain.RegistryStatus{Models: models, Healthy: healthy}
}

// Stats returns slot pool counters of every loaded model.
func (r *ModelRegistry) Stats() map[domain.ModelID]ports.SessionStats {
	stats := make(map[domain.ModelID]ports.SessionStats, len(r.models))
	for id, m := range r.models {
		stats[id] = m.session.Stats()
	}
	return stats
}

func (r *ModelRegistry) Close() {
	for id, m := range r.models {
		if err := m.session.Close(); err != nil {
			log.WithError(err).WithField("model", id).Warn("close model session")
		}
	}
}
