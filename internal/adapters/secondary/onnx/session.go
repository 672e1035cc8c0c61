package onnx

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// session is one opened model. Inputs are fed in binding order; the single output is
// allocated by onnxruntime so its real length is visible to the caller.
type session struct {
	model    domain.ModelID
	bindings []ports.TensorBinding
	ort      *ort.DynamicAdvancedSession
	pool     *slotPool
}

func (s *session) Run(ctx context.Context, inputs map[domain.InputRole]*domain.Tensor) ([]float32, error) {
	if err := s.pool.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.pool.Release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]ort.Value, 0, len(s.bindings))
	defer func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}()

	for _, b := range s.bindings {
		t, ok := inputs[b.Role]
		if !ok {
			return nil, fmt.Errorf("model %s: no tensor for input %q", s.model, b.Name)
		}
		tensor, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
		if err != nil {
			return nil, fmt.Errorf("model %s: create input tensor %q: %w", s.model, b.Name, err)
		}
		values = append(values, tensor)
	}

	outputs := []ort.Value{nil}
	if err := s.ort.Run(values, outputs); err != nil {
		return nil, fmt.Errorf("model %s: run: %w", s.model, err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("model %s: output is %T, expected float32 tensor", s.model, outputs[0])
	}
	data := out.GetData()
	result := make([]float32, len(data))
	copy(result, data)
	return result, nil
}

func (s *session) Stats() ports.SessionStats {
	return s.pool.Stats()
}

func (s *session) Close() error {
	s.pool.Close()
	return s.ort.Destroy()
}
