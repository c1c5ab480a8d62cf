package model

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
	"github.com/p1sangmas/SmartColorizer/internal/config"
)

type closingInvoker interface {
	colorize.Invoker
	Close()
}

// Loader loads a model in the background and serves inference once it is ready.
type Loader struct {
	ready chan struct{}
	inv   closingInvoker
	err   error
}

// LoadAsync starts loading the model described by cfg and returns immediately.
func LoadAsync(cfg config.Model, logger logrus.FieldLogger) *Loader {
	return loadWith(func() (closingInvoker, error) {
		s, err := NewSession(cfg, logger)
		if err != nil {
			logger.WithError(err).Error("failed to load model")
			return nil, err
		}
		return s, nil
	})
}

func loadWith(open func() (closingInvoker, error)) *Loader {
	l := &Loader{ready: make(chan struct{})}
	go func() {
		defer close(l.ready)
		l.inv, l.err = open()
	}()
	return l
}

// Ready reports whether the model loaded successfully.
func (l *Loader) Ready() bool {
	select {
	case <-l.ready:
		return l.err == nil
	default:
		return false
	}
}

// Err returns the load failure, or nil while loading or after success.
func (l *Loader) Err() error {
	select {
	case <-l.ready:
		return l.err
	default:
		return nil
	}
}

// Wait blocks until loading finishes or ctx ends.
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.ready:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Infer delegates to the loaded model, failing with ErrModelNotLoaded until it is ready.
func (l *Loader) Infer(ctx context.Context, in *colorize.InputTensor) (*colorize.ChromaTensor, error) {
	if !l.Ready() {
		return nil, colorize.ErrModelNotLoaded
	}
	return l.inv.Infer(ctx, in)
}

// Close waits for loading to finish and releases the model.
func (l *Loader) Close() {
	<-l.ready
	if l.inv != nil {
		l.inv.Close()
	}
}
