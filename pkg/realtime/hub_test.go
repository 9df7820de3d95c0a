package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/realtime"
)

func deliveryFor(userID uuid.UUID, title string) notify.DeliveryRequest {
	return notify.DeliveryRequest{
		UserID:   userID,
		Type:     notify.TypeMention,
		Title:    title,
		Body:     "body",
		Priority: notify.PriorityNormal,
	}
}

func receiveOne(t *testing.T, sub *realtime.Subscription) notify.DeliveryRequest {
	t.Helper()
	select {
	case req, ok := <-sub.Receive():
		require.True(t, ok, "channel closed before delivery")
		return req
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return notify.DeliveryRequest{}
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	userID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)
	defer sub.Close()

	ok := hub.Publish(context.Background(), userID, deliveryFor(userID, "hello"))
	assert.True(t, ok)

	got := receiveOne(t, sub)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, userID, got.UserID)
}

func TestPublishToOfflineUser(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	userID := uuid.New()
	assert.False(t, hub.Publish(context.Background(), userID, deliveryFor(userID, "nobody home")))
	assert.Zero(t, hub.TrackedUsers(), "publishing must not create user entries")
}

func TestPublishFansOutToAllSubscriptions(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	userID := uuid.New()
	first, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)
	second, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)

	require.Equal(t, 2, hub.SubscriberCount(userID))
	require.True(t, hub.Publish(context.Background(), userID, deliveryFor(userID, "both")))

	assert.Equal(t, "both", receiveOne(t, first).Title)
	assert.Equal(t, "both", receiveOne(t, second).Title)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub(realtime.WithBufferSize(1))
	defer hub.Close()

	userID := uuid.New()
	_, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)

	ctx := context.Background()
	require.True(t, hub.Publish(ctx, userID, deliveryFor(userID, "fills buffer")))

	// Nothing consumes, so the next publish finds the buffer full.
	assert.False(t, hub.Publish(ctx, userID, deliveryFor(userID, "dropped")))

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(userID) == 0
	}, time.Second, 5*time.Millisecond, "slow subscriber should be unsubscribed")
}

func TestSubscriptionClosesOnContextCancel(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	userID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, userID)
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(userID) == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-sub.Receive()
	assert.False(t, open, "receive channel should be closed")
}

func TestIsOnline(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	userID := uuid.New()
	ctx := context.Background()

	online, err := hub.IsOnline(ctx, userID)
	require.NoError(t, err)
	assert.False(t, online)

	sub, err := hub.Subscribe(ctx, userID)
	require.NoError(t, err)

	online, err = hub.IsOnline(ctx, userID)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, sub.Close())

	online, err = hub.IsOnline(ctx, userID)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestSubscribeRejectsNilUser(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	defer hub.Close()

	_, err := hub.Subscribe(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, realtime.ErrNilUser)
}

func TestHubClose(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub()
	userID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close(), "close must be idempotent")

	_, open := <-sub.Receive()
	assert.False(t, open)

	_, err = hub.Subscribe(context.Background(), userID)
	assert.ErrorIs(t, err, realtime.ErrHubClosed)

	assert.False(t, hub.Publish(context.Background(), userID, deliveryFor(userID, "late")))
}

func TestIdleUsersAreEvicted(t *testing.T) {
	t.Parallel()

	hub := realtime.NewHub(realtime.WithMaxTrackedUsers(2))
	defer hub.Close()

	ctx := context.Background()
	active1, active2 := uuid.New(), uuid.New()

	sub1, err := hub.Subscribe(ctx, active1)
	require.NoError(t, err)
	defer sub1.Close()
	sub2, err := hub.Subscribe(ctx, active2)
	require.NoError(t, err)
	defer sub2.Close()

	// An idle entry: subscribed once, then gone.
	idle := uuid.New()
	idleSub, err := hub.Subscribe(ctx, idle)
	require.NoError(t, err)
	require.NoError(t, idleSub.Close())
	require.Equal(t, 3, hub.TrackedUsers())

	// The next subscribe pushes the set over the bound; only the idle
	// entry may go.
	fresh := uuid.New()
	freshSub, err := hub.Subscribe(ctx, fresh)
	require.NoError(t, err)
	defer freshSub.Close()

	assert.Equal(t, 3, hub.TrackedUsers())
	assert.Equal(t, 1, hub.SubscriberCount(active1))
	assert.Equal(t, 1, hub.SubscriberCount(active2))
	assert.Equal(t, 1, hub.SubscriberCount(fresh))
	assert.Zero(t, hub.SubscriberCount(idle))
}

func TestConcurrentPublishes(t *testing.T) {
	t.Parallel()

	const publishers = 10
	const perPublisher = 20

	hub := realtime.NewHub(realtime.WithBufferSize(publishers * perPublisher))
	defer hub.Close()

	userID := uuid.New()
	sub, err := hub.Subscribe(context.Background(), userID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(publishers)
	for i := 0; i < publishers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				hub.Publish(context.Background(), userID, deliveryFor(userID, "burst"))
			}
		}()
	}
	wg.Wait()

	received := 0
	for {
		select {
		case <-sub.Receive():
			received++
			if received == publishers*perPublisher {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d deliveries", received, publishers*perPublisher)
		}
	}
}
