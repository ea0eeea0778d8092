package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	pa := &entity.PermissionApproval{
		Permission:   "User.Read",
		Status:       entity.StatusPending,
		CurrentStage: "business-approver",
		History:      []entity.HistoryEntry{entity.NewSystemEntry(entity.HistoryPending, "")},
	}
	c.Put(ctx, "req-1", "User.Read", NewSnapshot(pa))

	snap, ok := c.Get(ctx, "req-1", "User.Read")
	require.True(t, ok)
	assert.Equal(t, entity.StatusPending, snap.Status)
	assert.Equal(t, "business-approver", snap.CurrentStage)
	assert.Len(t, snap.History, 1)
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	_, ok := c.Get(context.Background(), "req-1", "User.Read")
	assert.False(t, ok)
}

func TestMemoryCache_ExpiryIsMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put(ctx, "req-1", "User.Read", &Snapshot{Status: entity.StatusPending, LastUpdated: now.UnixMilli()})

	_, ok := c.Get(ctx, "req-1", "User.Read")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "req-1", "User.Read")
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	c.Put(ctx, "req-1", "User.Read", &Snapshot{Status: entity.StatusPending})
	c.Put(ctx, "req-1", "Mail.Read", &Snapshot{Status: entity.StatusPending})

	c.Invalidate(ctx, "req-1", []string{"User.Read"})

	_, ok := c.Get(ctx, "req-1", "User.Read")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "req-1", "Mail.Read")
	assert.True(t, ok)
}

func TestMemoryCache_SnapshotIsolation(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	c.Put(ctx, "req-1", "User.Read", &Snapshot{Status: entity.StatusPending})

	first, ok := c.Get(ctx, "req-1", "User.Read")
	require.True(t, ok)
	first.Status = entity.StatusDenied

	second, ok := c.Get(ctx, "req-1", "User.Read")
	require.True(t, ok)
	assert.Equal(t, entity.StatusPending, second.Status, "callers must not be able to mutate the cached copy")
}
