package events

import (
	"context"
	"testing"
	"time"

	"rafflescout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	received := make(chan RunCompletedEvent, 1)

	bus.Subscribe(EventTypeRunCompleted, func(ctx context.Context, event Event) {
		if e, ok := event.(RunCompletedEvent); ok {
			received <- e
		} else {
			t.Errorf("Expected RunCompletedEvent, got %T", event)
		}
	})

	summary := models.IngestionSummary{RunID: "run-1", Processed: 7}
	bus.Emit(context.Background(), RunCompletedEvent{Summary: summary})

	select {
	case e := <-received:
		assert.Equal(t, "run-1", e.Summary.RunID)
		assert.Equal(t, 7, e.Summary.Processed)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event delivery")
	}
}

func TestEmitOnlyReachesMatchingEventType(t *testing.T) {
	bus := NewBus()
	failed := make(chan Event, 1)

	bus.Subscribe(EventTypeSourceFailed, func(ctx context.Context, event Event) {
		failed <- event
	})

	bus.Emit(context.Background(), RunCompletedEvent{})
	bus.Emit(context.Background(), SourceFailedEvent{RunID: "run-2", Source: "shopify-demo"})

	select {
	case e := <-failed:
		event, ok := e.(SourceFailedEvent)
		require.True(t, ok)
		assert.Equal(t, "shopify-demo", event.Source)
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event delivery")
	}
	assert.Empty(t, failed)
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	received := make(chan struct{}, 1)

	bus.Subscribe(EventTypeRecordsPruned, func(ctx context.Context, event Event) {
		panic("handler bug")
	})
	bus.Subscribe(EventTypeRecordsPruned, func(ctx context.Context, event Event) {
		received <- struct{}{}
	})

	bus.Emit(context.Background(), RecordsPrunedEvent{RunID: "run-3", Pruned: 2})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("Second handler was never invoked")
	}
}
