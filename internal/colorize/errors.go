package colorize

import "errors"

// Failure kinds. Every pipeline failure wraps exactly one of these.
var (
	ErrEncode     = errors.New("encode error")
	ErrInference  = errors.New("inference error")
	ErrShape      = errors.New("shape error")
	ErrConversion = errors.New("conversion error")
)

var (
	// ErrCancelled reports that the request reached the Cancelled state and produced no output.
	ErrCancelled = errors.New("colorization cancelled")

	// ErrBusy is returned by Start while another colorization is in flight.
	ErrBusy = errors.New("colorization already in progress")

	// ErrModelNotLoaded is a precondition failure: the invoker is missing or not ready yet.
	ErrModelNotLoaded = errors.New("model not loaded")
)
