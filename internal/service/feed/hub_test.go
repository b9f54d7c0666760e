package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/item-service/backend/internal/model/item"
	"github.com/zhouzirui/item-service/backend/internal/service/feed"
)

func TestHubPublishFansOut(t *testing.T) {
	hub := feed.NewHub(4, zaptest.NewLogger(t))

	_, first, cancelFirst, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancelFirst()
	_, second, cancelSecond, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancelSecond()

	event := feed.NewEvent(feed.EventItemCreated, item.Item{ID: 7, Name: "item7"})
	hub.Publish(event)

	assert.Equal(t, event, <-first)
	assert.Equal(t, event, <-second)
}

func TestHubSubscribeAssignsDistinctIDs(t *testing.T) {
	hub := feed.NewHub(1, nil)

	a, _, cancelA, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancelA()
	b, _, cancelB, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancelB()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, hub.Subscribers())
}

func TestHubPublishDropsWhenQueueFull(t *testing.T) {
	hub := feed.NewHub(1, zaptest.NewLogger(t))

	_, events, cancel, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancel()

	hub.Publish(feed.NewEvent(feed.EventItemCreated, item.Item{ID: 0}))
	hub.Publish(feed.NewEvent(feed.EventItemCreated, item.Item{ID: 1}))

	got := <-events
	assert.Equal(t, uint64(0), got.Item.ID)
	select {
	case extra := <-events:
		t.Fatalf("expected dropped event, got %+v", extra)
	default:
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := feed.NewHub(1, nil)

	_, events, cancel, err := hub.Subscribe()
	require.NoError(t, err)

	cancel()
	cancel()

	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHubRunClosesOnContextDone(t *testing.T) {
	hub := feed.NewHub(1, zaptest.NewLogger(t))

	_, events, cancelSub, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- hub.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, ok := <-events
	assert.False(t, ok)

	_, _, _, err = hub.Subscribe()
	assert.ErrorIs(t, err, feed.ErrHubClosed)

	// publishing after close is a no-op
	hub.Publish(feed.NewEvent(feed.EventItemDeleted, item.Item{}))
}

func TestNewHubDefaultsBuffer(t *testing.T) {
	hub := feed.NewHub(0, nil)

	_, events, cancel, err := hub.Subscribe()
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, feed.DefaultBuffer, cap(events))
}
