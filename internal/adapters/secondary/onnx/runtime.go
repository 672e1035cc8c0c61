package onnx

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	ports "lesion-inference-service/internal/core/ports/output"
)

// Config tunes the onnxruntime environment and the per-model slot pools.
type Config struct {
	SharedLibraryPath string
	IntraOpThreads    int
	InterOpThreads    int
	PoolSize          int
	AcquireTimeout    time.Duration
}

// Runtime opens ONNX models. Only one Runtime may exist per process because the
// onnxruntime environment is global.
type Runtime struct {
	cfg     Config
	initErr error
}

// NewRuntime initializes the onnxruntime environment.
func NewRuntime(cfg Config) (*Runtime, error) {
	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	log.WithField("library", cfg.SharedLibraryPath).Info("onnxruntime environment initialized")
	return &Runtime{cfg: cfg}, nil
}

// Unavailable returns a Runtime whose Open always fails with cause. It lets the service
// start without the native library and report every model as not loaded.
func Unavailable(cause error) *Runtime {
	return &Runtime{initErr: cause}
}

func (r *Runtime) Open(spec ports.SessionSpec) (ports.Session, error) {
	if r.initErr != nil {
		return nil, fmt.Errorf("onnx runtime unavailable: %w", r.initErr)
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	if r.cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(r.cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	if r.cfg.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(r.cfg.InterOpThreads); err != nil {
			return nil, fmt.Errorf("set inter-op threads: %w", err)
		}
	}

	inputNames := make([]string, len(spec.Inputs))
	for i, b := range spec.Inputs {
		inputNames[i] = b.Name
	}

	s, err := ort.NewDynamicAdvancedSession(spec.Path, inputNames, []string{spec.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	log.WithFields(log.Fields{
		"model":  spec.Model,
		"path":   spec.Path,
		"inputs": inputNames,
		"output": spec.OutputName,
	}).Debug("onnx session created")

	return &session{
		model:    spec.Model,
		bindings: spec.Inputs,
		ort:      s,
		pool:     newSlotPool(r.cfg.PoolSize, r.cfg.AcquireTimeout),
	}, nil
}

// Close tears down the onnxruntime environment. Sessions must be closed first.
func (r *Runtime) Close() error {
	if r.initErr != nil {
		return nil
	}
	return ort.DestroyEnvironment()
}
