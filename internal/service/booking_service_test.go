package service

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) UpdateUser(ctx context.Context, id int64, p models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) CreateItem(ctx context.Context, i *models.Item) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *mockRepo) UpdateItem(ctx context.Context, id int64, p models.ItemPatch) (*models.Item, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *mockRepo) GetItemsByOwner(ctx context.Context, oid int64) ([]*models.Item, error) {
	args := m.Called(ctx, oid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) GetItemsByRequest(ctx context.Context, rid int64) ([]*models.Item, error) {
	args := m.Called(ctx, rid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) SearchItems(ctx context.Context, text string) ([]*models.Item, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) ListByBooker(ctx context.Context, bid int64, st database.BookingState, p database.Page, now time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, bid, st, p, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListByOwner(ctx context.Context, oid int64, st database.BookingState, p database.Page, now time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, oid, st, p, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) FindLastBooking(ctx context.Context, iid int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, iid, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) FindNextBooking(ctx context.Context, iid int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, iid, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListApprovedByBookerAndItem(ctx context.Context, bid, iid int64) ([]*models.Booking, error) {
	args := m.Called(ctx, bid, iid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) ListCommentsForItem(ctx context.Context, iid int64) ([]models.Comment, error) {
	args := m.Called(ctx, iid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}
func (m *mockRepo) CreateRequest(ctx context.Context, r *models.ItemRequest) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemRequest), args.Error(1)
}
func (m *mockRepo) ListRequestsByRequestor(ctx context.Context, rid int64) ([]*models.ItemRequest, error) {
	args := m.Called(ctx, rid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ItemRequest), args.Error(1)
}
func (m *mockRepo) ListRequestsFromOthers(ctx context.Context, uid int64, from, size int) ([]*models.ItemRequest, error) {
	args := m.Called(ctx, uid, from, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ItemRequest), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, bid int64, b *models.Booking, s string) error {
	return m.Called(ctx, tt, bid, b, s).Error(0)
}

type mockViewCache struct {
	mock.Mock
}

func (m *mockViewCache) GetItemView(ctx context.Context, vid, iid int64) (*models.ItemView, error) {
	args := m.Called(ctx, vid, iid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemView), args.Error(1)
}
func (m *mockViewCache) SetItemView(ctx context.Context, vid int64, v *models.ItemView) error {
	return m.Called(ctx, vid, v).Error(0)
}
func (m *mockViewCache) InvalidateItem(ctx context.Context, iid int64) error {
	return m.Called(ctx, iid).Error(0)
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestBookingServiceCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	booker := &models.User{ID: 2, Name: "Booker"}
	item := &models.Item{ID: 5, Name: "Drill", OwnerID: 1, Available: true}

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		worker := new(mockWorker)
		cache := new(mockViewCache)
		svc := NewBookingService(repo, bus, worker, cache, testLogger())

		repo.On("GetUserByID", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItemByID", ctx, int64(5)).Return(item, nil).Once()
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", "booking_created", mock.Anything).Return(nil).Once()
		worker.On("EnqueueTask", ctx, "upsert", mock.Anything, mock.Anything, "").Return(nil).Once()
		cache.On("InvalidateItem", ctx, int64(5)).Return(nil).Once()

		booking, err := svc.Create(ctx, 2, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, booking.Status)
		assert.Equal(t, "Drill", booking.ItemName)
		assert.Equal(t, "Booker", booking.BookerName)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
		worker.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("OwnItem", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1}, nil).Once()
		repo.On("GetItemByID", ctx, int64(5)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 1, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("Unavailable", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		unavailable := &models.Item{ID: 5, OwnerID: 1, Available: false}
		repo.On("GetUserByID", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItemByID", ctx, int64(5)).Return(unavailable, nil).Once()

		_, err := svc.Create(ctx, 2, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItemByID", ctx, int64(5)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 2, 5, now.Add(2*time.Hour), now.Add(time.Hour))
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})

	t.Run("EndEqualsStart", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItemByID", ctx, int64(5)).Return(item, nil).Once()

		start := now.Add(time.Hour)
		_, err := svc.Create(ctx, 2, 5, start, start)
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})

	t.Run("UnknownBooker", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(99)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.Create(ctx, 99, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestBookingServiceApprove(t *testing.T) {
	ctx := context.Background()
	waiting := func() *models.Booking {
		return &models.Booking{ID: 10, ItemID: 5, BookerID: 2, ItemOwnerID: 1, Status: models.StatusWaiting, Version: 1}
	}

	t.Run("Approved", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		worker := new(mockWorker)
		cache := new(mockViewCache)
		svc := NewBookingService(repo, bus, worker, cache, testLogger())

		decided := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, ItemOwnerID: 1, Status: models.StatusApproved, Version: 2}
		repo.On("GetBooking", ctx, int64(10)).Return(waiting(), nil).Once()
		repo.On("UpdateBookingStatusWithVersion", ctx, int64(10), int64(1), models.StatusApproved).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(10)).Return(decided, nil).Once()
		bus.On("PublishJSON", "booking_approved", mock.Anything).Return(nil).Once()
		worker.On("EnqueueTask", ctx, "update_status", int64(10), decided, models.StatusApproved).Return(nil).Once()
		cache.On("InvalidateItem", ctx, int64(5)).Return(nil).Once()

		updated, err := svc.Approve(ctx, 10, 1, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, updated.Status)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
		worker.AssertExpectations(t)
	})

	t.Run("Rejected", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := NewBookingService(repo, bus, nil, nil, testLogger())

		decided := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, ItemOwnerID: 1, Status: models.StatusRejected, Version: 2}
		repo.On("GetBooking", ctx, int64(10)).Return(waiting(), nil).Once()
		repo.On("UpdateBookingStatusWithVersion", ctx, int64(10), int64(1), models.StatusRejected).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(10)).Return(decided, nil).Once()
		bus.On("PublishJSON", "booking_rejected", mock.Anything).Return(nil).Once()

		updated, err := svc.Approve(ctx, 10, 1, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, updated.Status)
	})

	t.Run("NotOwner", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetBooking", ctx, int64(10)).Return(waiting(), nil).Once()

		_, err := svc.Approve(ctx, 10, 2, true)
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("AlreadyDecided", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		decided := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, ItemOwnerID: 1, Status: models.StatusApproved, Version: 2}
		repo.On("GetBooking", ctx, int64(10)).Return(decided, nil).Once()

		_, err := svc.Approve(ctx, 10, 1, true)
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})

	t.Run("LostRace", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetBooking", ctx, int64(10)).Return(waiting(), nil).Once()
		repo.On("UpdateBookingStatusWithVersion", ctx, int64(10), int64(1), models.StatusApproved).
			Return(database.ErrConcurrentModification).Once()

		// Проигравший видит бронь уже решённой
		_, err := svc.Approve(ctx, 10, 1, true)
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
		assert.NotErrorIs(t, err, database.ErrConcurrentModification)
	})
}

func TestBookingServiceGetByID(t *testing.T) {
	ctx := context.Background()
	booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, ItemOwnerID: 1, Status: models.StatusWaiting}

	repo := new(mockRepo)
	svc := NewBookingService(repo, nil, nil, nil, testLogger())
	repo.On("GetBooking", ctx, int64(10)).Return(booking, nil)

	got, err := svc.GetByID(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = svc.GetByID(ctx, 10, 1)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, 10, 7)
	assert.ErrorIs(t, err, database.ErrForbidden)
}

func TestBookingServiceLists(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 2, Name: "Booker"}

	t.Run("ForBooker", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		expected := []*models.Booking{{ID: 1}, {ID: 2}}
		repo.On("GetUserByID", ctx, int64(2)).Return(user, nil).Once()
		repo.On("ListByBooker", ctx, int64(2), mock.Anything, database.Page{From: 0, Size: 10}, mock.Anything).
			Return(expected, nil).Once()

		bookings, err := svc.ListForBooker(ctx, 2, "FUTURE", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, expected, bookings)
		repo.AssertExpectations(t)
	})

	t.Run("ForOwner", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1}, nil).Once()
		repo.On("ListByOwner", ctx, int64(1), mock.Anything, database.Page{From: 0, Size: 10}, mock.Anything).
			Return([]*models.Booking{}, nil).Once()

		bookings, err := svc.ListForOwner(ctx, 1, "", 0, 10)
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(99)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.ListForBooker(ctx, 99, "ALL", 0, 10)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("UnknownState", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(2)).Return(user, nil).Once()

		_, err := svc.ListForBooker(ctx, 2, "BOGUS", 0, 10)
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})

	t.Run("BadPage", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewBookingService(repo, nil, nil, nil, testLogger())

		repo.On("GetUserByID", ctx, int64(2)).Return(user, nil).Once()

		_, err := svc.ListForBooker(ctx, 2, "ALL", -1, 10)
		assert.ErrorIs(t, err, database.ErrInvalidArgument)
	})
}
