package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(time.UTC, 0, zerolog.Nop())
	err := s.Add("delivery-delay", "every hour", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestAddEmptySpecDisables(t *testing.T) {
	s := New(time.UTC, 0, zerolog.Nop())
	require.NoError(t, s.Add("payment-delay", "", func(context.Context) error { return nil }))
	assert.Empty(t, s.Jobs())
}

func TestAddRejectsDuplicateName(t *testing.T) {
	s := New(time.UTC, 0, zerolog.Nop())
	job := func(context.Context) error { return nil }
	require.NoError(t, s.Add("scan", "0 * * * *", job))
	assert.Error(t, s.Add("scan", "0 9 * * *", job))
}

func TestRunNow(t *testing.T) {
	s := New(time.UTC, time.Second, zerolog.Nop())
	var calls atomic.Int32
	require.NoError(t, s.Add("delivery-delay", "0 * * * *", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		calls.Add(1)
		return nil
	}))
	boom := errors.New("db down")
	require.NoError(t, s.Add("payment-delay", "0 9 * * *", func(context.Context) error { return boom }))

	assert.NoError(t, s.RunNow("delivery-delay"))
	assert.ErrorIs(t, s.RunNow("payment-delay"), boom)
	assert.Error(t, s.RunNow("unknown"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"delivery-delay", "payment-delay"}, s.Jobs())
}

func TestScheduledJobFires(t *testing.T) {
	s := New(time.UTC, 0, zerolog.Nop())
	fired := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New(time.UTC, 0, zerolog.Nop())
	started := make(chan struct{})
	require.NoError(t, s.Add("slow", "0 * * * *", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	errc := make(chan error, 1)
	go func() { errc <- s.RunNow("slow") }()
	<-started

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, <-errc, context.Canceled)
}
