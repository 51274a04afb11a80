package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/models"
)

type memoryEntry struct {
	view      *models.ItemView
	expiresAt time.Time
}

type MemoryViewCache struct {
	views sync.Map
	ttl   time.Duration
}

func NewMemoryViewCache(ttl time.Duration) *MemoryViewCache {
	return &MemoryViewCache{
		ttl: ttl,
	}
}

type memoryKey struct {
	itemID   int64
	viewerID int64
}

func (r *MemoryViewCache) GetItemView(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	val, ok := r.views.Load(memoryKey{itemID: itemID, viewerID: viewerID})
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		r.views.Delete(memoryKey{itemID: itemID, viewerID: viewerID})
		return nil, nil
	}
	return entry.view, nil
}

func (r *MemoryViewCache) SetItemView(ctx context.Context, viewerID int64, view *models.ItemView) error {
	r.views.Store(memoryKey{itemID: view.ID, viewerID: viewerID}, &memoryEntry{
		view:      view,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryViewCache) InvalidateItem(ctx context.Context, itemID int64) error {
	r.views.Range(func(key, _ any) bool {
		if key.(memoryKey).itemID == itemID {
			r.views.Delete(key)
		}
		return true
	})
	return nil
}
