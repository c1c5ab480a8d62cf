package colorize

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
)

// TransitionFunc observes state changes. It runs on the job's goroutine and must not block.
type TransitionFunc func(jobID uint64, from, to State)

// Orchestrator sequences encode, inference and reconstruction for one request at a time.
// A request made while another is in flight is rejected with ErrBusy; use Cancel to
// abandon the in-flight one.
type Orchestrator struct {
	invoker Invoker
	opts    Options
	logger  logrus.FieldLogger

	mu           sync.Mutex
	state        State
	job          *Job
	seq          uint64
	onTransition TransitionFunc
}

// New returns an idle orchestrator. A nil invoker is a precondition failure.
func New(invoker Invoker, opts Options, logger logrus.FieldLogger) (*Orchestrator, error) {
	if invoker == nil {
		return nil, ErrModelNotLoaded
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &Orchestrator{invoker: invoker, opts: opts, logger: logger}, nil
}

// OnTransition registers fn to observe every state change.
func (o *Orchestrator) OnTransition(fn TransitionFunc) {
	o.mu.Lock()
	o.onTransition = fn
	o.mu.Unlock()
}

// State returns the state of the current or most recent request.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel signals the in-flight request, if any. It reports whether a request was signalled.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	j := o.job
	o.mu.Unlock()
	if j == nil {
		return false
	}
	return j.Cancel()
}

// Colorize runs a request to completion on a worker goroutine and returns its output.
// Cancelling ctx raises the cancellation signal.
func (o *Orchestrator) Colorize(ctx context.Context, img image.Image) (*image.RGBA, error) {
	j, err := o.Start(ctx, img)
	if err != nil {
		return nil, err
	}
	return j.Result()
}

// Start launches a request and returns immediately.
func (o *Orchestrator) Start(ctx context.Context, img image.Image) (*Job, error) {
	if r, ok := o.invoker.(Readiness); ok && !r.Ready() {
		return nil, ErrModelNotLoaded
	}

	o.mu.Lock()
	if o.state.Active() {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.seq++
	j := newJob(ctx, o.seq)
	o.job = j
	o.state = StateEncoding
	hook := o.onTransition
	o.mu.Unlock()

	o.logger.WithField("request_id", j.ID).Debug("colorization started")
	o.callHook(hook, j.ID, StateIdle, StateEncoding)
	go o.run(j, img)
	return j, nil
}

func (o *Orchestrator) run(j *Job, img image.Image) {
	log := o.logger.WithField("request_id", j.ID)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("colorization panicked")
			j.signal.CompareAndSwap(signalOpen, signalCommitted)
			o.finish(j, StateFailed, nil, fmt.Errorf("colorization panicked: %v", r))
		}
	}()

	in, err := Encode(img)
	if err != nil {
		j.signal.Store(signalCommitted)
		o.finish(j, StateFailed, nil, err)
		return
	}

	o.transition(j, StateInferring)
	chroma, err := o.invoker.Infer(j.ctx, in)
	if !j.commit() {
		log.Info("colorization cancelled, inference result discarded")
		o.finish(j, StateCancelled, nil, ErrCancelled)
		return
	}
	if err != nil {
		o.finish(j, StateFailed, nil, fmt.Errorf("%w: %w", ErrInference, err))
		return
	}
	if err := chroma.Validate(); err != nil {
		o.finish(j, StateFailed, nil, err)
		return
	}
	if len(chroma.Data) == chromaChannels*planeLen {
		a, b := ChromaStats(chroma)
		log.WithFields(logrus.Fields{
			"a_min": a.Min, "a_max": a.Max,
			"b_min": b.Min, "b_max": b.Max,
		}).Debug("chrominance range")
	}

	o.transition(j, StateDecoding)
	lightness, err := ExtractLightness(img, o.opts.GrayTransform)
	if err != nil {
		o.finish(j, StateFailed, nil, err)
		return
	}
	out, err := Reconstruct(lightness, chroma, o.opts)
	if err != nil {
		o.finish(j, StateFailed, nil, err)
		return
	}
	o.finish(j, StateDone, out, nil)
}

func (o *Orchestrator) transition(j *Job, to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	hook := o.onTransition
	o.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"request_id": j.ID,
		"from":       from.String(),
		"to":         to.String(),
	}).Debug("colorization state changed")
	o.callHook(hook, j.ID, from, to)
}

// callHook runs a transition observer, containing its panics so the state
// machine can still reach a terminal state.
func (o *Orchestrator) callHook(hook TransitionFunc, id uint64, from, to State) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"request_id": id,
				"to":         to.String(),
				"panic":      r,
			}).Error("transition hook panicked")
		}
	}()
	hook(id, from, to)
}

func (o *Orchestrator) finish(j *Job, state State, img *image.RGBA, err error) {
	j.state, j.img, j.err = state, img, err
	o.transition(j, state)

	o.mu.Lock()
	if o.job == j {
		o.job = nil
	}
	o.mu.Unlock()

	if state == StateFailed {
		o.logger.WithField("request_id", j.ID).WithError(err).Warn("colorization failed")
	}
	close(j.done)
}
