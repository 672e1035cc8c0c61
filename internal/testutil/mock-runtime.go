package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lesion-inference-service/internal/core/domain"
	ports "lesion-inference-service/internal/core/ports/output"
)

// MockModelRuntime is a mock of ModelRuntime.
type MockModelRuntime struct {
	mock.Mock
}

func (m *MockModelRuntime) Open(spec ports.SessionSpec) (ports.Session, error) {
	args := m.Called(spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Session), args.Error(1)
}

// MockSession is a mock of Session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Run(ctx context.Context, inputs map[domain.InputRole]*domain.Tensor) ([]float32, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockSession) Stats() ports.SessionStats {
	args := m.Called()
	return args.Get(0).(ports.SessionStats)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// StubSession returns fixed outputs without any expectations. Handy where the test only
// cares about what flows out of the pipeline.
type StubSession struct {
	Output []float32
	Err    error
	Calls  int
	Inputs []map[domain.InputRole]*domain.Tensor
}

func (s *StubSession) Run(_ context.Context, inputs map[domain.InputRole]*domain.Tensor) ([]float32, error) {
	s.Calls++
	s.Inputs = append(s.Inputs, inputs)
	return s.Output, s.Err
}

func (s *StubSession) Stats() ports.SessionStats { return ports.SessionStats{PoolSize: 1} }

func (s *StubSession) Close() error { return nil }

// StubRuntime opens a StubSession per model id. Models missing from Sessions fail to open.
type StubRuntime struct {
	Sessions map[domain.ModelID]*StubSession
	Opened   []ports.SessionSpec
}

func (r *StubRuntime) Open(spec ports.SessionSpec) (ports.Session, error) {
	r.Opened = append(r.Opened, spec)
	s, ok := r.Sessions[spec.Model]
	if !ok {
		return nil, errOpen
	}
	return s, nil
}

type openError string

func (e openError) Error() string { return string(e) }

const errOpen = openError("model file not found")
