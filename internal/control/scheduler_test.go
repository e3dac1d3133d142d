package control

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/testutil"
)

func mustRoutine(t *testing.T, due time.Time, command CommandFunc) *Routine {
	t.Helper()
	if command == nil {
		command = func(io.Value) error { return nil }
	}
	r, err := NewRoutine(due, testMeta(), io.Binary(true), &recordingSink{}, command)
	require.NoError(t, err)
	return r
}

func TestScheduler_PushAndScheduled(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock)

	assert.Zero(t, s.Len())

	first := mustRoutine(t, clock.Now().Add(time.Second), nil)
	second := mustRoutine(t, clock.Now().Add(2*time.Second), nil)
	s.Push(first)
	s.Push(second)

	scheduled := s.Scheduled()
	require.Len(t, scheduled, 2)
	assert.Same(t, first, scheduled[0], "insertion order is preserved")
	assert.Same(t, second, scheduled[1])
}

func TestScheduler_AttemptRoutines_FutureUntouched(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock)

	calls := 0
	s.Push(mustRoutine(t, clock.Now().Add(time.Minute), func(io.Value) error {
		calls++
		return nil
	}))

	for i := 0; i < 5; i++ {
		failures := s.AttemptRoutines()
		assert.Empty(t, failures)
	}
	assert.Equal(t, 1, s.Len(), "future routines stay queued")
	assert.Zero(t, calls)
}

func TestScheduler_AttemptRoutines_DueRemovedOnce(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock)

	dueCalls := 0
	futureCalls := 0
	s.Push(mustRoutine(t, clock.Now(), func(io.Value) error {
		dueCalls++
		return nil
	}))
	s.Push(mustRoutine(t, clock.Now().Add(time.Hour), func(io.Value) error {
		futureCalls++
		return nil
	}))

	failures := s.AttemptRoutines()
	assert.Empty(t, failures)
	assert.Equal(t, 1, dueCalls)
	assert.Zero(t, futureCalls)
	assert.Equal(t, 1, s.Len(), "only the due routine is removed")

	// Repeated passes can never re-execute a removed routine.
	for i := 0; i < 3; i++ {
		s.AttemptRoutines()
	}
	assert.Equal(t, 1, dueCalls)
}

func TestScheduler_AttemptRoutines_AllDue(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock)

	const n = 25
	var calls atomic.Int64
	for i := 0; i < n; i++ {
		s.Push(mustRoutine(t, clock.Now().Add(-time.Duration(i)*time.Millisecond), func(io.Value) error {
			calls.Add(1)
			return nil
		}))
	}

	failures := s.AttemptRoutines()
	assert.Empty(t, failures)
	assert.EqualValues(t, n, calls.Load(), "every due routine executes in one pass")
	assert.Zero(t, s.Len())
}

func TestScheduler_FailureIsolated(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock)

	boom := errors.New("relay offline")
	okCalls := 0
	failing := mustRoutine(t, clock.Now(), func(io.Value) error { return boom })
	s.Push(failing)
	s.Push(mustRoutine(t, clock.Now(), func(io.Value) error {
		okCalls++
		return nil
	}))

	failures := s.AttemptRoutines()
	require.Len(t, failures, 1)
	assert.Equal(t, failing.ID(), failures[0].RoutineID)
	assert.Equal(t, "pump", failures[0].DeviceName)
	assert.ErrorIs(t, failures[0].Err, boom)
	assert.False(t, failures[0].Requeued)

	assert.Equal(t, 1, okCalls, "one failure does not stop the pass")
	assert.Zero(t, s.Len(), "failed routine is dropped under the default policy")
}

func TestScheduler_RequeueOnFailure(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewScheduler(clock, WithFailurePolicy(RequeueOnFailure))

	attempts := 0
	s.Push(mustRoutine(t, clock.Now(), func(io.Value) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	failures := s.AttemptRoutines()
	require.Len(t, failures, 1)
	assert.True(t, failures[0].Requeued)
	assert.Equal(t, 1, s.Len())

	failures = s.AttemptRoutines()
	require.Len(t, failures, 1)
	assert.Equal(t, 1, s.Len())

	failures = s.AttemptRoutines()
	assert.Empty(t, failures)
	assert.Zero(t, s.Len())
	assert.Equal(t, 3, attempts)
}

// TestScheduler_ConcurrentPushAndAttempt mirrors the race the design is
// required to eliminate: routines pushed with due times in the immediate
// past, concurrently with a tight attempt loop, must each execute exactly
// once and none may be lost.
func TestScheduler_ConcurrentPushAndAttempt(t *testing.T) {
	s := NewScheduler(SystemClock{})

	const n = 1000
	executions := make([]atomic.Int64, n)

	var wg sync.WaitGroup
	wg.Add(2)

	stop := make(chan struct{})
	go func() {
		defer wg.Done()
		for {
			s.AttemptRoutines()
			select {
			case <-stop:
				return
			default:
			}
		}
	}()

	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 0; i < n; i++ {
			i := i
			r, err := NewRoutine(time.Now(), testMeta(), io.Int(int64(i)), &recordingSink{}, func(io.Value) error {
				executions[i].Add(1)
				return nil
			})
			if err != nil {
				t.Error(err)
				return
			}
			s.Push(r)
		}
	}()

	wg.Wait()

	// Drain anything the attempt goroutine did not get to before stopping.
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		s.AttemptRoutines()
	}

	assert.Zero(t, s.Len(), "no routine may be lost")
	for i := 0; i < n; i++ {
		assert.EqualValues(t, 1, executions[i].Load(), "routine %d must execute exactly once", i)
	}
}
