package device

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setpoint-dev/setpoint/internal/control"
	"github.com/setpoint-dev/setpoint/internal/io"
	"github.com/setpoint-dev/setpoint/internal/testutil"
)

func sensorMeta() io.DeviceMetadata {
	return io.DeviceMetadata{ID: 0, Name: "ph probe", Kind: io.KindPH}
}

func TestNewInput_RequiresCommand(t *testing.T) {
	_, err := NewInput(sensorMeta(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestNewInput_ForcesDirection(t *testing.T) {
	meta := sensorMeta()
	meta.Direction = io.DirectionOutput
	in, err := NewInput(meta, func() (io.Value, error) { return io.Float(7), nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, io.DirectionInput, in.Metadata().Direction)
}

func TestInput_ReadLogsAndPropagates(t *testing.T) {
	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	in, err := NewInput(sensorMeta(), func() (io.Value, error) { return io.Float(6.4), nil }, clock)
	require.NoError(t, err)

	sched := control.NewScheduler(clock)
	pub, err := control.NewPublisher(sched)
	require.NoError(t, err)

	var seen []*io.Event
	pub.Subscribe(evaluatorFunc(func(e *io.Event) { seen = append(seen, e) }))
	require.NoError(t, in.SetPublisher(pub))
	assert.True(t, in.HasPublisher())

	event, err := in.Read()
	require.NoError(t, err)
	assert.Equal(t, io.Float(6.4), event.Value)
	assert.Equal(t, clock.Now(), event.Timestamp)
	assert.Equal(t, io.DirectionInput, event.Direction)

	require.Len(t, seen, 1)
	assert.Same(t, event, seen[0])
	require.Equal(t, 1, in.Log().Len())
	assert.Same(t, event, in.Log().Events()[0])
}

func TestInput_ReadWithoutPublisher(t *testing.T) {
	in, err := NewInput(sensorMeta(), func() (io.Value, error) { return io.Float(6.4), nil }, nil)
	require.NoError(t, err)

	_, err = in.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, in.Log().Len())
}

func TestInput_ReadCommandFailure(t *testing.T) {
	boom := errors.New("sensor offline")
	in, err := NewInput(sensorMeta(), func() (io.Value, error) { return nil, boom }, nil)
	require.NoError(t, err)

	_, err = in.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, in.Log().Len(), "failed reads leave no event behind")
}

func TestInput_SetPublisherRejectsSecond(t *testing.T) {
	in, err := NewInput(sensorMeta(), func() (io.Value, error) { return io.Float(7), nil }, nil)
	require.NoError(t, err)

	clock := testutil.NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	first, err := control.NewPublisher(control.NewScheduler(clock))
	require.NoError(t, err)
	second, err := control.NewPublisher(control.NewScheduler(clock))
	require.NoError(t, err)

	require.NoError(t, in.SetPublisher(first))
	assert.Error(t, in.SetPublisher(second))
	assert.Same(t, first, in.Publisher())
}

// evaluatorFunc adapts a closure into a control.Evaluator for tests.
type evaluatorFunc func(*io.Event)

func (f evaluatorFunc) Name() string             { return "func" }
func (f evaluatorFunc) Evaluate(event *io.Event) { f(event) }
