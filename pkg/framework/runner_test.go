package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerWaitAggregatesErrors(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return nil }),
		NamedRun("failing", RunFunc(func(context.Context) error { return errBoom })),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errBoom))
	require.Equal(t, "boom", err.Error())
}

func TestRunnerWaitIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	cancel()
	require.NoError(t, r.Wait())
}

type closeRecorder struct {
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	t.Run("fn exits", func(t *testing.T) {
		var c closeRecorder
		err := RunWithContextCloser(context.Background(), &c, func() error { return nil })
		require.NoError(t, err)
		require.Equal(t, 1, c.closed)
	})
	t.Run("canceled", func(t *testing.T) {
		var c closeRecorder
		ctx, cancel := context.WithCancel(context.Background())
		stopCh := make(chan struct{})
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
			close(stopCh)
		}()
		err := RunWithContextCloser(ctx, &c, func() error {
			<-stopCh
			return nil
		})
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	})
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}
