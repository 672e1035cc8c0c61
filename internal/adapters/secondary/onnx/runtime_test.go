package onnx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
	"lesion-inference-service/internal/core/services"
)

func TestUnavailable(t *testing.T) {
	cause := errors.New("libonnxruntime.so: cannot open shared object file")
	rt := Unavailable(cause)

	session, err := rt.Open(ports.SessionSpec{Model: domain.ModelScreening, Path: "models/mole_detector.onnx"})
	assert.Nil(t, session)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, rt.Close())
}

func TestUnavailable_RegistryReportsUnhealthy(t *testing.T) {
	cat := domain.DefaultCatalog()
	for id, spec := range cat.Models {
		spec.Path = "models/" + string(id) + ".onnx"
		cat.Models[id] = spec
	}

	reg := services.NewModelRegistry(Unavailable(errors.New("library not found")), cat)
	err := reg.LoadAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrScreeningModelUnavailable)

	status := reg.Status()
	assert.False(t, status.Healthy)
	for _, id := range domain.AllModels {
		assert.False(t, status.Loaded(id), id)
		assert.Contains(t, status.Models[id].LastError, "library not found")
	}
}
