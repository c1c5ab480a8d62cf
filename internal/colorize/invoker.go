package colorize

import "context"

// Invoker runs the colorization model: input tensor in, chrominance tensor out.
// Implementations may block for the duration of the inference call.
type Invoker interface {
	Infer(ctx context.Context, in *InputTensor) (*ChromaTensor, error)
}

// Readiness is implemented by invokers whose model loads asynchronously.
type Readiness interface {
	Ready() bool
}

// InvokerFunc adapts an ordinary function to Invoker.
type InvokerFunc func(ctx context.Context, in *InputTensor) (*ChromaTensor, error)

// Infer calls f.
func (f InvokerFunc) Infer(ctx context.Context, in *InputTensor) (*ChromaTensor, error) {
	return f(ctx, in)
}
