package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
	"github.com/p1sangmas/SmartColorizer/internal/config"
)

var envMu sync.Mutex

// Session runs the colorization model through ONNX Runtime. Input and output
// tensors are bound once; calls to Infer are serialized.
type Session struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	logger       logrus.FieldLogger
	mu           sync.Mutex
}

// NewSession loads the model described by cfg.
func NewSession(cfg config.Model, logger logrus.FieldLogger) (*Session, error) {
	metadata, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	if cfg.InputName != "" {
		metadata.InputName = cfg.InputName
	}
	if cfg.OutputName != "" {
		metadata.OutputName = cfg.OutputName
	}

	if err := initEnvironment(cfg.SharedLibrary); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.Path,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"model":        cfg.Path,
		"input":        metadata.InputName,
		"input_shape":  metadata.InputShape,
		"output":       metadata.OutputName,
		"output_shape": metadata.OutputShape,
	}).Info("model loaded")

	return &Session{
		session:      session,
		Metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		logger:       logger,
	}, nil
}

func initEnvironment(sharedLibrary string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if sharedLibrary != "" {
		ort.SetSharedLibraryPath(sharedLibrary)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// Infer copies the planar RGB tensor into the bound input (the [3,256,256] data
// fills the model's [1,3,256,256] binding), runs the session and returns a copy
// of the output with the runtime's reported shape.
func (s *Session) Infer(ctx context.Context, in *colorize.InputTensor) (*colorize.ChromaTensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.inputTensor.GetData()
	if len(in.Data) != len(dst) {
		return nil, fmt.Errorf("input holds %d values, model input %v needs %d",
			len(in.Data), s.Metadata.InputShape, len(dst))
	}
	copy(dst, in.Data)

	start := time.Now()
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	s.logger.WithField("elapsed", time.Since(start).String()).Debug("inference complete")

	shape := s.outputTensor.GetShape()
	return &colorize.ChromaTensor{
		Shape: append([]int64(nil), shape...),
		Data:  append([]float32(nil), s.outputTensor.GetData()...),
	}, nil
}

// Close releases the session, its tensors and the ONNX environment.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}

	envMu.Lock()
	ort.DestroyEnvironment()
	envMu.Unlock()
}
