package notifier_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify"
	"github.com/yapplr/notify/pkg/notifier"
)

func seedRecord(t *testing.T, storage *notifier.MemoryStorage, userID uuid.UUID, notificationType string, createdAt time.Time) notifier.Notification {
	t.Helper()

	n := notifier.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notificationType,
		Message:   "test message",
		CreatedAt: createdAt,
	}
	require.NoError(t, storage.Create(context.Background(), &n))
	return n
}

func TestMemoryStorageListExcludesMessagesNewestFirst(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	userID := uuid.New()
	base := time.Now()

	older := seedRecord(t, storage, userID, notify.TypeLike, base)
	newer := seedRecord(t, storage, userID, notify.TypeFollow, base.Add(time.Minute))
	seedRecord(t, storage, userID, notify.TypeMessage, base.Add(2*time.Minute))
	seedRecord(t, storage, uuid.New(), notify.TypeLike, base)

	items, err := storage.List(context.Background(), userID, notifier.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 2, "message-type and other users' records are excluded")
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
}

func TestMemoryStorageListPaging(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	userID := uuid.New()
	base := time.Now()
	for i := range 5 {
		seedRecord(t, storage, userID, notify.TypeLike, base.Add(time.Duration(i)*time.Second))
	}

	page1, err := storage.List(context.Background(), userID, notifier.Page{Limit: 2})
	require.NoError(t, err)
	page2, err := storage.List(context.Background(), userID, notifier.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)

	empty, err := storage.List(context.Background(), userID, notifier.Page{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStorageCountUnreadExcludesMessages(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	userID := uuid.New()
	now := time.Now()

	read := seedRecord(t, storage, userID, notify.TypeLike, now)
	seedRecord(t, storage, userID, notify.TypeFollow, now)
	seedRecord(t, storage, userID, notify.TypeMessage, now)
	require.NoError(t, storage.MarkRead(context.Background(), read.ID))

	count, err := storage.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStorageMarkReadSingleRecord(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	n := seedRecord(t, storage, uuid.New(), notify.TypeLike, time.Now())

	require.NoError(t, storage.MarkRead(context.Background(), n.ID))

	got, ok := storage.Get(n.ID)
	require.True(t, ok)
	assert.True(t, got.Read)
	require.NotNil(t, got.ReadAt)
	first := *got.ReadAt

	// A second stamp keeps the original timestamp.
	require.NoError(t, storage.MarkRead(context.Background(), n.ID))
	got, _ = storage.Get(n.ID)
	assert.True(t, got.ReadAt.Equal(first))

	assert.ErrorIs(t, storage.MarkRead(context.Background(), uuid.New()), notifier.ErrNotFound)
}

func TestMemoryStorageMarkAllReadExcludesMessages(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	userID := uuid.New()
	now := time.Now()

	seedRecord(t, storage, userID, notify.TypeLike, now)
	seedRecord(t, storage, userID, notify.TypeFollow, now)
	message := seedRecord(t, storage, userID, notify.TypeMessage, now)

	changed, err := storage.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	got, _ := storage.Get(message.ID)
	assert.False(t, got.Read, "message-type records keep their own read state")

	count, err := storage.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStorageMarkAllSeenExcludesMessages(t *testing.T) {
	t.Parallel()

	storage := notifier.NewMemoryStorage()
	userID := uuid.New()
	now := time.Now()

	seen := seedRecord(t, storage, userID, notify.TypeLike, now)
	seedRecord(t, storage, userID, notify.TypeRepost, now)
	seedRecord(t, storage, userID, notify.TypeMessage, now)
	require.NoError(t, storage.MarkSeen(context.Background(), seen.ID))

	changed, err := storage.MarkAllSeen(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed, "already-seen and message-type records are skipped")
}
