package domain

import (
	"context"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"
)

// Repository is the entity store contract the services are built on.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	GetItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string) ([]*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	ListByBooker(ctx context.Context, bookerID int64, state database.BookingState, page database.Page, now time.Time) ([]*models.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64, state database.BookingState, page database.Page, now time.Time) ([]*models.Booking, error)
	FindLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	FindNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	ListApprovedByBookerAndItem(ctx context.Context, bookerID, itemID int64) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsForItem(ctx context.Context, itemID int64) ([]models.Comment, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	ListRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	ListRequestsFromOthers(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error)
}

// EventPublisher pushes lifecycle events to whoever listens.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts spreadsheet mirror tasks.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

// ViewCache holds enriched item views on the read side. A nil result with a
// nil error means cache miss.
type ViewCache interface {
	GetItemView(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error)
	SetItemView(ctx context.Context, viewerID int64, view *models.ItemView) error
	InvalidateItem(ctx context.Context, itemID int64) error
}

// SheetsWriter mirrors the bookings ledger into a spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
}

type BookingService interface {
	Create(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error)
	Approve(ctx context.Context, bookingID, callerID int64, approved bool) (*models.Booking, error)
	GetByID(ctx context.Context, bookingID, callerID int64) (*models.Booking, error)
	ListForBooker(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error)
	ListForOwner(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error)
}

type ItemService interface {
	Create(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	Update(ctx context.Context, itemID, callerID int64, patch models.ItemPatch) (*models.Item, error)
	GetByID(ctx context.Context, itemID, viewerID int64) (*models.ItemView, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.ItemView, error)
	Search(ctx context.Context, viewerID int64, text string) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error)
}

type UserService interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type RequestService interface {
	Create(ctx context.Context, userID int64, description string) (*models.ItemRequest, error)
	ListOwn(ctx context.Context, userID int64) ([]*models.RequestView, error)
	ListFromOthers(ctx context.Context, userID int64, from, size int) ([]*models.RequestView, error)
	GetByID(ctx context.Context, requestID, userID int64) (*models.RequestView, error)
}
