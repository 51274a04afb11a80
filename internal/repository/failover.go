package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type FailoverViewCache struct {
	primary   domain.ViewCache
	fallback  domain.ViewCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverViewCache(primary, fallback domain.ViewCache, logger *zerolog.Logger) *FailoverViewCache {
	return &FailoverViewCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverViewCache) GetItemView(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	if !r.isDown.Load() {
		view, err := r.primary.GetItemView(ctx, viewerID, itemID)
		if err == nil {
			return view, nil
		}
		r.logger.Error().Err(err).Msg("Primary view cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		view, err := r.primary.GetItemView(ctx, viewerID, itemID)
		if err == nil {
			r.isDown.Store(false)
			return view, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetItemView(ctx, viewerID, itemID)
}

func (r *FailoverViewCache) SetItemView(ctx context.Context, viewerID int64, view *models.ItemView) error {
	if !r.isDown.Load() {
		err := r.primary.SetItemView(ctx, viewerID, view)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary view cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetItemView(ctx, viewerID, view)
}

func (r *FailoverViewCache) InvalidateItem(ctx context.Context, itemID int64) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateItem(ctx, itemID)
		if err == nil {
			// Запись могла успеть попасть в fallback во время сбоя
			return r.fallback.InvalidateItem(ctx, itemID)
		}
		r.logger.Error().Err(err).Msg("Primary view cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.InvalidateItem(ctx, itemID)
}
