package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/testutil"
)

type orderedEvaluator struct {
	name  string
	order *[]string
	panic bool
}

func (e *orderedEvaluator) Name() string { return e.name }

func (e *orderedEvaluator) Evaluate(*io.Event) {
	*e.order = append(*e.order, e.name)
	if e.panic {
		panic("evaluator blew up")
	}
}

func TestNewPublisher_RequiresScheduler(t *testing.T) {
	_, err := NewPublisher(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilScheduler)
}

func TestPublisher_PropagateInRegistrationOrder(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	pub, err := NewPublisher(NewScheduler(clock))
	require.NoError(t, err)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		pub.Subscribe(&orderedEvaluator{name: name, order: &order})
	}
	require.Len(t, pub.Evaluators(), 3)

	pub.Propagate(inputEvent(io.Float(7), clock.Now()))
	assert.Equal(t, []string{"first", "second", "third"}, order)

	pub.Propagate(inputEvent(io.Float(8), clock.Now()))
	assert.Equal(t, []string{"first", "second", "third", "first", "second", "third"}, order)
}

func TestPublisher_PanicInEvaluatorIsIsolated(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	pub, err := NewPublisher(NewScheduler(clock))
	require.NoError(t, err)

	var order []string
	pub.Subscribe(&orderedEvaluator{name: "volatile", order: &order, panic: true})
	pub.Subscribe(&orderedEvaluator{name: "steady", order: &order})

	assert.NotPanics(t, func() {
		pub.Propagate(inputEvent(io.Float(1), clock.Now()))
	})
	assert.Equal(t, []string{"volatile", "steady"}, order,
		"a panicking evaluator must not starve the ones after it")
}

func TestPublisher_HandlerSharesScheduler(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := NewScheduler(clock)
	pub, err := NewPublisher(sched)
	require.NoError(t, err)

	assert.Same(t, sched, pub.Handler())

	r := mustRoutine(t, clock.Now(), func(io.Value) error { return nil })
	pub.Handler().Push(r)
	failures := pub.AttemptRoutines()
	assert.Empty(t, failures)
	assert.Zero(t, sched.Len())
}
