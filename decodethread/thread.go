// Package decodethread runs a decoding loop that keeps a decoder in sync
// with the playback clock.
package decodethread

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/avplayback/helpers/closuresignaler"
	"github.com/xaionaro-go/avplayback/logger"
	"github.com/xaionaro-go/avplayback/types"
	"github.com/xaionaro-go/observability"
	"go.uber.org/atomic"
)

// Decoder is what the thread drives; *decoding.Context implements it.
type Decoder interface {
	Advance(ctx context.Context, sink types.AudioSink, t time.Duration, slack time.Duration) error
	Reset(ctx context.Context) error
}

// Thread periodically advances the Decoder to the position of the Clock
// while the playback is running.
//
// A Thread runs at most once: after it is terminated a new one should
// be created.
type Thread struct {
	Decoder Decoder
	Clock   types.Clock
	Sink    types.AudioSink
	Config  Config

	state           atomic.Int32
	exceptionalExit atomic.Bool
	err             *ErrThreadFailed
	stop            *closuresignaler.ClosureSignaler
	done            chan struct{}
	errCh           chan error
}

func New(
	decoder Decoder,
	clock types.Clock,
	sink types.AudioSink,
	cfg Config,
) *Thread {
	return &Thread{
		Decoder: decoder,
		Clock:   clock,
		Sink:    sink,
		Config:  cfg,
		stop:    closuresignaler.New(),
		done:    make(chan struct{}),
		errCh:   make(chan error, cfg.ErrorQueueSize),
	}
}

func (t *Thread) String() string {
	return fmt.Sprintf("DecodeThread(%s)", t.State())
}

func (t *Thread) State() State {
	return State(t.state.Load())
}

// Done is closed when the thread is terminated.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Errors publishes the failure of the thread (if any); it is closed when
// the thread is terminated.
func (t *Thread) Errors() <-chan error {
	return t.errCh
}

// Err returns the error that stopped the thread, if any.
func (t *Thread) Err() error {
	err := xatomic.LoadPointer(&t.err)
	if err == nil {
		return nil
	}
	return err
}

// ExceptionalExit reports if the thread was stopped by an error.
func (t *Thread) ExceptionalExit() bool {
	return t.exceptionalExit.Load()
}

// Start launches the loop; ctx is the context of the whole run (the loop
// exits normally if it is cancelled).
func (t *Thread) Start(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateUnstarted), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	logger.Debugf(ctx, "starting %s", t)
	observability.Go(ctx, func(ctx context.Context) {
		t.loop(ctx)
	})
	return nil
}

// Terminate asks the thread to stop and waits until it does (or until
// ctx is done). It is safe to call it multiple times and before Start.
func (t *Thread) Terminate(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Terminate")
	defer func() { logger.Debugf(ctx, "/Terminate: %v", _err) }()

	t.stop.Close(ctx)
	if t.state.CompareAndSwap(int32(StateUnstarted), int32(StateTerminated)) {
		close(t.errCh)
		close(t.done)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return nil
	}
}

func (t *Thread) loop(ctx context.Context) {
	logger.Debugf(ctx, "loop")
	defer func() { logger.Debugf(ctx, "/loop") }()
	defer func() {
		t.state.Store(int32(StateTerminated))
		close(t.errCh)
		close(t.done)
	}()

	timer := time.NewTimer(t.Config.Interval)
	defer timer.Stop()
	for {
		select {
		case <-t.stop.CloseChan():
			t.exit(ctx)
			return
		case <-ctx.Done():
			t.exit(ctx)
			return
		default:
		}

		if err := t.iterate(ctx); err != nil {
			t.fail(ctx, err)
			return
		}

		timer.Reset(t.Config.Interval)
		select {
		case <-t.stop.CloseChan():
			t.exit(ctx)
			return
		case <-ctx.Done():
			t.exit(ctx)
			return
		case <-timer.C:
		}
	}
}

func (t *Thread) iterate(ctx context.Context) (_err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		_err = ErrPanic{Value: r, Stack: debug.Stack()}
		logger.Errorf(ctx, "got panic in the decode thread: %v:\n%s\n", r, _err.(ErrPanic).Stack)
	}()

	state := t.Clock.PlaybackState()
	if state != types.PlaybackStatePlaying {
		return nil
	}
	return t.Decoder.Advance(ctx, t.Sink, t.Clock.Position(), t.Config.AudioSlack)
}

// exit is the normal termination: the decoder is reset for the next run.
func (t *Thread) exit(ctx context.Context) {
	logger.Debugf(ctx, "exit")
	defer logger.Debugf(ctx, "/exit")
	if err := t.Decoder.Reset(ctx); err != nil {
		logger.Errorf(ctx, "unable to reset the decoder: %v", err)
	}
}

func (t *Thread) fail(ctx context.Context, err error) {
	threadErr := &ErrThreadFailed{Err: err}
	logger.Errorf(ctx, "%v", threadErr)
	errmon.ObserveErrorCtx(ctx, threadErr)
	xatomic.StorePointer(&t.err, threadErr)
	t.exceptionalExit.Store(true)
	select {
	case t.errCh <- threadErr:
	default:
		logger.Errorf(ctx, "error queue is full, cannot send error: '%v'", threadErr)
	}
}
