package services

import (
	"fmt"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// Canonical graph names of the architectures as defined for training. The rebuilt load
// path binds these instead of whatever names an exporter produced.
const (
	canonicalImageInput    = "image_input"
	canonicalMetadataInput = "metadata_input"
	canonicalOutput        = "output"
)

// modelFamily is one architecture variant: which inputs it takes, how to rebuild its
// bindings from configuration, and what a warm-up pass feeds it.
type modelFamily struct {
	Name  string
	Roles []domain.InputRole
}

var families = map[domain.ModelID]modelFamily{
	domain.ModelScreening:  {Name: "screening", Roles: []domain.InputRole{domain.RoleImage}},
	domain.ModelMultiInput: {Name: "multi-input", Roles: []domain.InputRole{domain.RoleImage, domain.RoleMetadata}},
	domain.ModelImageOnly:  {Name: "image-only", Roles: []domain.InputRole{domain.RoleImage}},
}

func familyFor(id domain.ModelID) (modelFamily, error) {
	f, ok := families[id]
	if !ok {
		return modelFamily{}, fmt.Errorf("no model family registered for %q", id)
	}
	return f, nil
}

func (f modelFamily) shape(role domain.InputRole, spec domain.ModelSpec) []int64 {
	if role == domain.RoleMetadata {
		return []int64{1, domain.MetadataFeatureCount}
	}
	return spec.ImageShape()
}

// SavedBindings uses the node names recorded for the self-contained export.
func (f modelFamily) SavedBindings(spec domain.ModelSpec) ([]ports.TensorBinding, string, error) {
	bindings := make([]ports.TensorBinding, 0, len(f.Roles))
	for _, role := range f.Roles {
		name := spec.SavedInputNames[role]
		if name == "" {
			return nil, "", fmt.Errorf("model %s: no saved input name for role %q", spec.ID, role)
		}
		bindings = append(bindings, ports.TensorBinding{Name: name, Role: role, Shape: f.shape(role, spec)})
	}
	output := spec.SavedOutputName
	if output == "" {
		output = canonicalOutput
	}
	return bindings, output, nil
}

// Rebuild reconstructs the bindings of the known architecture definition.
func (f modelFamily) Rebuild(spec domain.ModelSpec) ([]ports.TensorBinding, string) {
	bindings := make([]ports.TensorBinding, 0, len(f.Roles))
	for _, role := range f.Roles {
		name := canonicalImageInput
		if role == domain.RoleMetadata {
			name = canonicalMetadataInput
		}
		bindings = append(bindings, ports.TensorBinding{Name: name, Role: role, Shape: f.shape(role, spec)})
	}
	return bindings, canonicalOutput
}

// WarmupInputs returns zero tensors of the exact shapes the model expects.
func (f modelFamily) WarmupInputs(spec domain.ModelSpec) map[domain.InputRole]*domain.Tensor {
	inputs := make(map[domain.InputRole]*domain.Tensor, len(f.Roles))
	for _, role := range f.Roles {
		inputs[role] = domain.NewZeroTensor(f.shape(role, spec))
	}
	return inputs
}

func (f modelFamily) InputShapes(spec domain.ModelSpec) map[domain.InputRole][]int64 {
	shapes := make(map[domain.InputRole][]int64, len(f.Roles))
	for _, role := range f.Roles {
		shapes[role] = f.shape(role, spec)
	}
	return shapes
}
