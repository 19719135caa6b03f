package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(&PortfolioChangedData{Symbol: "SPY", Reason: "added", Positions: 1})

	select {
	case event := <-ch:
		assert.Equal(t, PortfolioChanged, event.Type)
		data, ok := event.Data.(*PortfolioChangedData)
		require.True(t, ok)
		assert.Equal(t, "SPY", data.Symbol)
		assert.Equal(t, "added", data.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected event not delivered")
	}
}

func TestBusCancelRemovesSubscriber(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	_, cancel := bus.Subscribe()
	assert.Equal(t, 1, bus.SubscriberCount())

	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Cancel is idempotent
	cancel()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	_, cancel := bus.Subscribe()
	defer cancel()

	// Overflow the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			bus.Publish(&SnapshotWrittenData{SnapshotID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestEventDataTypes(t *testing.T) {
	assert.Equal(t, PortfolioChanged, (&PortfolioChangedData{}).EventType())
	assert.Equal(t, SnapshotWritten, (&SnapshotWrittenData{}).EventType())
}
