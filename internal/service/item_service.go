package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shareit/internal/access"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService owns item CRUD, search, comments and the read-side enrichment
// of items with their last and next approved booking.
type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	cache    domain.ViewCache
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, cache domain.ViewCache, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		cache:    cache,
		logger:   logger,
	}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: item name is required", database.ErrInvalidArgument)
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, itemID, callerID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !access.CanModifyItem(callerID, item) {
		return nil, fmt.Errorf("%w: user %d is not the owner of item %d", database.ErrForbidden, callerID, itemID)
	}

	updated, err := s.repo.UpdateItem(ctx, itemID, patch)
	if err != nil {
		return nil, err
	}
	s.invalidateItem(ctx, itemID)
	return updated, nil
}

// GetByID returns the item view. Last/next booking data is attached only
// when the viewer owns the item; comments are attached for everyone.
func (s *ItemService) GetByID(ctx context.Context, itemID, viewerID int64) (*models.ItemView, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID == viewerID && s.cache != nil {
		if view, err := s.cache.GetItemView(ctx, viewerID, itemID); err != nil {
			metrics.IncViewCache("error")
			s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("view cache read failed")
		} else if view != nil {
			metrics.IncViewCache("hit")
			return view, nil
		} else {
			metrics.IncViewCache("miss")
		}
	}

	view, err := s.buildView(ctx, item, viewerID, time.Now())
	if err != nil {
		return nil, err
	}

	if item.OwnerID == viewerID && s.cache != nil {
		if err := s.cache.SetItemView(ctx, viewerID, view); err != nil {
			s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("view cache write failed")
		}
	}
	return view, nil
}

// ListByOwner returns the owner's items, each enriched, ordered by the start
// of their last booking (items never booked go last).
func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.ItemView, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]*models.ItemView, 0, len(items))
	for _, item := range items {
		view, err := s.buildView(ctx, item, ownerID, now)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].LastBooking, views[j].LastBooking
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Start.After(b.Start)
		}
	})
	return views, nil
}

// Search scans available items by substring over name and description.
func (s *ItemService) Search(ctx context.Context, viewerID int64, text string) ([]*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, viewerID); err != nil {
		return nil, err
	}
	return s.repo.SearchItems(ctx, text)
}

// AddComment stores free-text feedback. Only a user with an approved booking
// on the item that already ended may comment.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", database.ErrInvalidArgument)
	}

	bookings, err := s.repo.ListApprovedByBookerAndItem(ctx, authorID, itemID)
	if err != nil {
		return nil, err
	}
	if !access.CanComment(authorID, itemID, bookings, time.Now()) {
		return nil, fmt.Errorf("%w: user %d has no finished booking on item %d", database.ErrInvalidArgument, authorID, itemID)
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   authorID,
		AuthorName: author.Name,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidateItem(ctx, itemID)
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, comment); err != nil {
			s.logger.Error().Err(err).Int64("item_id", itemID).Msg("publish event error")
		}
	}
	return comment, nil
}

// buildView assembles the read projection. When only a next booking exists
// it stays in nextBooking; a sole booking is never promoted into lastBooking.
func (s *ItemService) buildView(ctx context.Context, item *models.Item, viewerID int64, now time.Time) (*models.ItemView, error) {
	comments, err := s.repo.ListCommentsForItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	view := &models.ItemView{Item: *item, Comments: comments}
	if item.OwnerID != viewerID {
		return view, nil
	}

	last, err := s.repo.FindLastBooking(ctx, item.ID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.FindNextBooking(ctx, item.ID, now)
	if err != nil {
		return nil, err
	}

	view.LastBooking = last.Brief()
	view.NextBooking = next.Brief()
	return view, nil
}

func (s *ItemService) invalidateItem(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("view cache invalidation failed")
	}
}
