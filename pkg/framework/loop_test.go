package framework

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLoopStopsOnFlag(t *testing.T) {
	flag := NewRunFlag()
	var steps int32
	loop := NewLoop("counter", time.Millisecond, StepFunc(func(ctx context.Context, now time.Time) error {
		if atomic.AddInt32(&steps, 1) == 5 {
			flag.Stop()
		}
		return nil
	})).WithFlag(flag)
	require.Equal(t, "counter", loop.Name())
	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, int32(5), atomic.LoadInt32(&steps))
	require.False(t, flag.Running())
}

func TestLoopErrorClearsFlag(t *testing.T) {
	flag := NewRunFlag()
	failure := errors.New("device gone")
	loop := NewLoop("failing", time.Millisecond, StepFunc(func(context.Context, time.Time) error {
		return failure
	})).WithFlag(flag)
	require.Equal(t, failure, loop.Run(context.Background()))
	require.False(t, flag.Running())
	flag.Stop()
}

func TestLoopCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var steps int32
	loop := NewLoop("canceled", time.Hour, StepFunc(func(context.Context, time.Time) error {
		atomic.AddInt32(&steps, 1)
		return nil
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&steps))
}

func TestLoopTriggerNext(t *testing.T) {
	flag := NewRunFlag()
	stepCh := make(chan struct{}, 10)
	loop := NewLoop("triggered", time.Hour, StepFunc(func(context.Context, time.Time) error {
		stepCh <- struct{}{}
		return nil
	})).WithFlag(flag)
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()
	<-stepCh
	loop.TriggerNext()
	select {
	case <-stepCh:
	case <-time.After(time.Second):
		t.Fatal("TriggerNext didn't run next iteration")
	}
	flag.Stop()
	require.NoError(t, <-errCh)
}

func TestRunner(t *testing.T) {
	failure := errors.New("failure")
	runner := NewRunner()
	runner.Go(
		NamedRun("ok", RunnableFunc(func(context.Context) error { return nil })),
		NamedRun("failed", RunnableFunc(func(context.Context) error { return failure })),
		NamedRun("waiting", RunnableFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	runner.Stop()
	err := runner.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Errors, 1)
	require.Equal(t, "failed: failure", err.Error())
}

func TestRunnerNoErrors(t *testing.T) {
	runner := NewRunner()
	runner.Go(RunnableFunc(func(context.Context) error { return nil }))
	require.NoError(t, runner.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, errors.New("a"), nil, errors.New("b"))
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopCh := make(chan struct{})
	var closed int32
	closer := closerFunc(func() error {
		if atomic.AddInt32(&closed, 1) == 1 {
			close(stopCh)
		}
		return nil
	})
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-stopCh
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))

	err = RunWithContextCloser(context.Background(), closerFunc(func() error {
		atomic.AddInt32(&closed, 1)
		return nil
	}), func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&closed))
}
