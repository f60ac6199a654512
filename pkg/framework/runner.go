package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when a second stop signal arrives.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

func nameOf(r Runnable, index int) string {
	if named, ok := r.(Named); ok {
		return named.Name()
	}
	return strconv.Itoa(index)
}

// Runner runs Runnables in background goroutines and collects their
// errors. Errors are prefixed with the runnable name.
type Runner struct {
	Context context.Context

	count  int
	errCh  chan error
	exitCh chan struct{}
	cancel func()
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with a specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the runner on CtrlC or SIGTERM. A second signal
// makes Wait return ErrForcedExit without waiting for the runnables.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// FailFast cancels the runner context when any Runnable fails, so the
// others stop too.
func (r *Runner) FailFast() *Runner {
	r.Context, r.cancel = context.WithCancel(r.Context)
	return r
}

// Go spawns Runnables with the runner context.
func (r *Runner) Go(runners ...Runnable) *Runner {
	return r.GoWith(r.Context, runners...)
}

// GoWith spawns Runnables with a specified context.
func (r *Runner) GoWith(ctx context.Context, runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := nameOf(runner, r.count)
		r.count++
		go r.run(ctx, name, runner)
	}
	return r
}

func (r *Runner) run(ctx context.Context, name string, runner Runnable) {
	glog.V(4).Infof("Runner[%s] started", name)
	err := runner.Run(ctx)
	glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		if r.cancel != nil {
			glog.Errorf("Runner[%s] failed: %v", name, err)
			r.cancel()
		}
		err = fmt.Errorf("%s: %w", name, err)
	} else {
		err = nil
	}
	r.errCh <- err
}

// Wait waits until all Runnables stop and aggregates their errors.
// Cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for i := 0; i < r.count; i++ {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't accept a context.
// onCancel is called only when ctx is canceled before fn returns, and is
// expected to make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-errCh
	return context.Canceled
}

// RunWithContext is simplified form with no cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser runs fn and closes closer exactly once, on cancel
// or when fn returns. A Close failure takes precedence over the
// cancellation and is aggregated with any error from fn.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var (
		once     sync.Once
		closeErr error
	)
	doClose := func() {
		once.Do(func() { closeErr = closer.Close() })
	}
	err := RunWithContextCancel(ctx, doClose, fn)
	doClose()
	if closeErr != nil && errors.Is(err, context.Canceled) {
		return closeErr
	}
	return (&AggregatedError{}).Add(err, closeErr).Aggregate()
}
