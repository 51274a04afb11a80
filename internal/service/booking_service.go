package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/access"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/worker"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle and the temporal query engine.
type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	cache      domain.ViewCache
	logger     *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, cache domain.ViewCache, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		cache:      cache,
		logger:     logger,
	}
}

// Create places a new booking in WAITING. The item stays in the pool:
// availability is a listing gate, not a calendar, and overlapping bookings
// are not rejected here.
func (s *BookingService) Create(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error) {
	booker, err := s.repo.GetUserByID(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID == bookerID {
		return nil, fmt.Errorf("%w: user %d can't book their own item", database.ErrForbidden, bookerID)
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: item %d is not available", database.ErrInvalidArgument, itemID)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: booking end must be after start", database.ErrInvalidArgument)
	}

	booking := &models.Booking{
		ItemID:      itemID,
		BookerID:    bookerID,
		Start:       start,
		End:         end,
		Status:      models.StatusWaiting,
		ItemName:    item.Name,
		BookerName:  booker.Name,
		ItemOwnerID: item.OwnerID,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBooking(booking.Status)
	s.publishEvent(booking, item.OwnerID)
	s.enqueueSync(ctx, booking, worker.TaskUpsert)
	s.invalidateItem(ctx, itemID)

	return booking, nil
}

// Approve finalizes a waiting booking. The status guard in the store makes
// this safe against two concurrent decisions: the loser sees the booking as
// already decided.
func (s *BookingService) Approve(ctx context.Context, bookingID, callerID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !access.CanApprove(callerID, booking) {
		return nil, fmt.Errorf("%w: user %d is not the owner of item %d", database.ErrForbidden, callerID, booking.ItemID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, fmt.Errorf("%w: booking %d is already decided", database.ErrInvalidArgument, bookingID)
	}

	status := models.StatusRejected
	if approved {
		status = models.StatusApproved
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, booking.Version, status)
	if errors.Is(err, database.ErrConcurrentModification) {
		return nil, fmt.Errorf("%w: booking %d is already decided", database.ErrInvalidArgument, bookingID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.IncBooking(updated.Status)
	s.publishEvent(updated, updated.ItemOwnerID)
	s.enqueueSync(ctx, updated, worker.TaskUpdateStatus)
	s.invalidateItem(ctx, updated.ItemID)

	return updated, nil
}

// GetByID returns the booking to its booker or to the item owner.
func (s *BookingService) GetByID(ctx context.Context, bookingID, callerID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !access.CanViewBooking(callerID, booking) {
		return nil, fmt.Errorf("%w: user %d may not view booking %d", database.ErrForbidden, callerID, bookingID)
	}
	return booking, nil
}

// ListForBooker returns the user's own bookings in the requested temporal
// bucket, newest start first.
func (s *BookingService) ListForBooker(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	st, page, err := s.listArgs(ctx, userID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByBooker(ctx, userID, st, page, time.Now())
}

// ListForOwner returns bookings on the user's items in the requested
// temporal bucket, newest start first.
func (s *BookingService) ListForOwner(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error) {
	st, page, err := s.listArgs(ctx, userID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, userID, st, page, time.Now())
}

func (s *BookingService) listArgs(ctx context.Context, userID int64, state string, from, size int) (database.BookingState, database.Page, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return database.BookingState{}, database.Page{}, err
	}
	st, err := database.ParseState(state)
	if err != nil {
		return database.BookingState{}, database.Page{}, err
	}
	page := database.Page{From: from, Size: size}
	if err := page.Validate(); err != nil {
		return database.BookingState{}, database.Page{}, err
	}
	return st, page, nil
}

func (s *BookingService) publishEvent(booking *models.Booking, ownerID int64) {
	if s.eventBus == nil {
		return
	}

	eventType := eventTypeForStatus(booking.Status)
	payload := bookingPayload(booking, ownerID)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.syncWorker == nil {
		return
	}

	var status string
	if taskType == worker.TaskUpdateStatus {
		status = booking.Status
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking.ID, booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}

func (s *BookingService) invalidateItem(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("view cache invalidation failed")
	}
}
