package colorize

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedInvoker blocks inside Infer until release is closed.
type gatedInvoker struct {
	started chan struct{}
	release chan struct{}
	chroma  *ChromaTensor
	err     error
	calls   atomic.Int32
}

func newGatedInvoker(chroma *ChromaTensor) *gatedInvoker {
	return &gatedInvoker{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		chroma:  chroma,
	}
}

func (g *gatedInvoker) Infer(_ context.Context, in *InputTensor) (*ChromaTensor, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	return g.chroma, g.err
}

type notReady struct{ InvokerFunc }

func (notReady) Ready() bool { return false }

func zeroInvoker() Invoker {
	return InvokerFunc(func(context.Context, *InputTensor) (*ChromaTensor, error) {
		return NewChromaTensor(), nil
	})
}

func newTestOrchestrator(t *testing.T, inv Invoker) *Orchestrator {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	o, err := New(inv, Options{}, logger)
	require.NoError(t, err)
	return o
}

type transitionLog struct {
	mu    sync.Mutex
	steps []State
}

func (l *transitionLog) record(_ uint64, _, to State) {
	l.mu.Lock()
	l.steps = append(l.steps, to)
	l.mu.Unlock()
}

func (l *transitionLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.steps...)
}

func waitStarted(t *testing.T, g *gatedInvoker) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("inference never started")
	}
}

func TestColorizeMidGray(t *testing.T) {
	o := newTestOrchestrator(t, zeroInvoker())
	var log transitionLog
	o.OnTransition(log.record)

	out, err := o.Colorize(context.Background(), solidGray(2, 2, 128))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 256, 256), out.Bounds())
	for i := 0; i < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4]
		if absDiff(px[0], 128) > 2 || absDiff(px[1], 128) > 2 || absDiff(px[2], 128) > 2 || px[3] != 255 {
			t.Fatalf("pixel %d = %v", i/4, px)
		}
	}

	assert.Equal(t, StateDone, o.State())
	assert.Equal(t, []State{StateEncoding, StateInferring, StateDecoding, StateDone}, log.get())
}

func TestCancelBeforeDecoding(t *testing.T) {
	inv := newGatedInvoker(NewChromaTensor())
	o := newTestOrchestrator(t, inv)
	var log transitionLog
	o.OnTransition(log.record)

	job, err := o.Start(context.Background(), solidGray(8, 8, 90))
	require.NoError(t, err)
	waitStarted(t, inv)
	assert.Equal(t, StateInferring, o.State())

	assert.True(t, o.Cancel())
	close(inv.release)

	out, err := job.Result()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, out)
	assert.Equal(t, StateCancelled, job.State())
	assert.Equal(t, StateCancelled, o.State())
	assert.NotContains(t, log.get(), StateDecoding)
	assert.NotContains(t, log.get(), StateDone)
}

func TestContextCancellationIsCancelSignal(t *testing.T) {
	inv := newGatedInvoker(NewChromaTensor())
	o := newTestOrchestrator(t, inv)

	ctx, cancel := context.WithCancel(context.Background())
	job, err := o.Start(ctx, solidGray(8, 8, 90))
	require.NoError(t, err)
	waitStarted(t, inv)
	cancel()
	close(inv.release)

	_, err = job.Result()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, o.State())
}

func TestCancelAfterDoneHasNoEffect(t *testing.T) {
	o := newTestOrchestrator(t, zeroInvoker())
	job, err := o.Start(context.Background(), solidGray(4, 4, 200))
	require.NoError(t, err)

	out, err := job.Result()
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.False(t, job.Cancel())
	assert.False(t, o.Cancel())
	assert.Equal(t, StateDone, job.State())
	assert.Equal(t, StateDone, o.State())

	again, err := job.Result()
	require.NoError(t, err)
	assert.Same(t, out, again)
}

func TestRejectsConcurrentRequest(t *testing.T) {
	inv := newGatedInvoker(NewChromaTensor())
	o := newTestOrchestrator(t, inv)

	first, err := o.Start(context.Background(), solidGray(4, 4, 10))
	require.NoError(t, err)
	waitStarted(t, inv)

	second, err := o.Start(context.Background(), solidGray(4, 4, 10))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, second)

	close(inv.release)
	_, err = first.Result()
	require.NoError(t, err)

	third, err := o.Start(context.Background(), solidGray(4, 4, 10))
	require.NoError(t, err)
	waitStarted(t, inv)
	_, err = third.Result()
	require.NoError(t, err)
	assert.Equal(t, int32(2), inv.calls.Load())
}

func TestInferenceFailure(t *testing.T) {
	boom := errors.New("session run failed")
	o := newTestOrchestrator(t, InvokerFunc(func(context.Context, *InputTensor) (*ChromaTensor, error) {
		return nil, boom
	}))

	out, err := o.Colorize(context.Background(), solidGray(4, 4, 10))
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
	assert.Equal(t, StateFailed, o.State())
}

func TestInvalidModelOutputShape(t *testing.T) {
	o := newTestOrchestrator(t, InvokerFunc(func(context.Context, *InputTensor) (*ChromaTensor, error) {
		return &ChromaTensor{Shape: []int64{1, 2, 224, 224}, Data: make([]float32, 2*224*224)}, nil
	}))
	var log transitionLog
	o.OnTransition(log.record)

	out, err := o.Colorize(context.Background(), solidGray(4, 4, 10))
	assert.ErrorIs(t, err, ErrShape)
	assert.Nil(t, out)
	assert.Equal(t, StateFailed, o.State())
	assert.NotContains(t, log.get(), StateDecoding)
}

func TestEncodeFailureSkipsInference(t *testing.T) {
	var calls atomic.Int32
	o := newTestOrchestrator(t, InvokerFunc(func(context.Context, *InputTensor) (*ChromaTensor, error) {
		calls.Add(1)
		return NewChromaTensor(), nil
	}))

	_, err := o.Colorize(context.Background(), image.NewRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrEncode)
	assert.Zero(t, calls.Load())
	assert.Equal(t, StateFailed, o.State())
}

func TestModelNotLoaded(t *testing.T) {
	_, err := New(nil, Options{}, nil)
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	o := newTestOrchestrator(t, notReady{})
	job, err := o.Start(context.Background(), solidGray(2, 2, 1))
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Nil(t, job)
	assert.Equal(t, StateIdle, o.State())
}

func TestJobWaitHonoursContext(t *testing.T) {
	inv := newGatedInvoker(NewChromaTensor())
	o := newTestOrchestrator(t, inv)

	job, err := o.Start(context.Background(), solidGray(2, 2, 1))
	require.NoError(t, err)
	waitStarted(t, inv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = job.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(inv.release)
	out, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestCancelDuringEncoding(t *testing.T) {
	o := newTestOrchestrator(t, zeroInvoker())
	var log transitionLog
	o.OnTransition(log.record)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, err := o.Start(ctx, solidGray(16, 16, 70))
	require.NoError(t, err)

	out, err := job.Result()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, out)
	assert.Equal(t, StateCancelled, job.State())
	assert.Equal(t, StateCancelled, o.State())
	assert.NotContains(t, log.get(), StateDecoding)
	assert.NotContains(t, log.get(), StateDone)
}

func TestCancelRefusedOnceDecoding(t *testing.T) {
	o := newTestOrchestrator(t, zeroInvoker())
	var (
		mu       sync.Mutex
		accepted []bool
	)
	o.OnTransition(func(_ uint64, _, to State) {
		if to == StateDecoding {
			mu.Lock()
			accepted = append(accepted, o.Cancel())
			mu.Unlock()
		}
	})

	job, err := o.Start(context.Background(), solidGray(4, 4, 128))
	require.NoError(t, err)
	out, err := job.Result()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, StateDone, job.State())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false}, accepted)
}

func TestPanickingHookDoesNotStallPipeline(t *testing.T) {
	o := newTestOrchestrator(t, zeroInvoker())
	o.OnTransition(func(uint64, State, State) { panic("observer bug") })

	job, err := o.Start(context.Background(), solidGray(4, 4, 128))
	require.NoError(t, err)

	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job never finished")
	}
	out, err := job.Result()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, StateDone, o.State())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "inferring", StateInferring.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateDecoding.Active())
	assert.False(t, StateDone.Active())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateIdle.Terminal())
}
