package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false})
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventActivityRecorded, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewLevelUpEvent("user-1", 1, 2)
	require.NoError(t, bus.Publish(event))
	assert.Empty(t, received, "handler should only see its subscribed type")

	activity := shared.NewActivityRecordedEvent("user-1", "act-1", "hiking", 5.2, 3600, 420, 27)
	require.NoError(t, bus.Publish(activity))
	require.Len(t, received, 1)
	assert.Equal(t, shared.EventActivityRecorded, received[0].EventType())
	assert.Equal(t, "user-1", received[0].AggregateID())
}

func TestInMemoryEventBus_SubscribeAll(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2)))
	require.NoError(t, bus.Publish(shared.NewActivityRecordedEvent("user-1", "act-1", "hiking", 5.2, 3600, 420, 27)))
	assert.Equal(t, 2, count)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	secondRan := false
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		secondRan = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2)))
	assert.True(t, secondRan)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 0.001)
}

func TestInMemoryEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewLevelUpEvent("user-1", 1, 2)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error { return nil }), ErrEventBusClosed)
	assert.NoError(t, bus.Close(), "closing twice is a no-op")
}

func TestInMemoryEventBus_AsyncDeliveryCompletesOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	done := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(shared.EventGoalCompleted, func(e shared.Event) error {
		done <- struct{}{}
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewGoalCompletedEvent("user-1", "goal-1", "distance", 5.0)))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async handler was not invoked")
	}
	require.NoError(t, bus.Close())
}
