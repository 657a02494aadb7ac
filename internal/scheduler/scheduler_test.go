package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	// Wednesday 2026-10-14 10:30 UTC.
	from := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)

	next, err := NextRun("0 18 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC), next)

	next, err = NextRun("0 9 * * 1", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), next)

	_, err = NextRun("every monday", from)
	assert.Error(t, err)
}

func TestAddValidatesAndSkipsEmpty(t *testing.T) {
	s := New(time.UTC)
	require.NoError(t, s.Add("daily", "", func(context.Context, time.Time) {}))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add("daily", "0 18 * * *", func(context.Context, time.Time) {}))
	assert.Equal(t, 1, s.Len())

	assert.Error(t, s.Add("weekly", "61 * * * *", func(context.Context, time.Time) {}))
	assert.Equal(t, 1, s.Len())
}

func TestRunFiresJobAtScheduledTime(t *testing.T) {
	now := time.Date(2026, 10, 14, 17, 59, 0, 0, time.UTC)
	s := New(time.UTC)
	s.now = func() time.Time { return now }

	var mu sync.Mutex
	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- now.Add(d)
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	var fired []time.Time
	require.NoError(t, s.Add("daily", "0 18 * * *", func(_ context.Context, at time.Time) {
		fired = append(fired, at)
		if len(fired) == 2 {
			cancel()
		}
	}))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	require.Len(t, fired, 2)
	assert.Equal(t, time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC), fired[0])
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, time.Minute, waits[0])
}

func TestRunReturnsWithoutJobs(t *testing.T) {
	s := New(nil)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with no jobs should return immediately")
	}
}
