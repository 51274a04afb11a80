// Package access holds the authorization predicates. Every function here is
// a pure check over already-loaded records; violations are reported by the
// calling service, never from here.
package access

import (
	"time"

	"shareit/internal/models"
)

// CanApprove reports whether the caller may decide the booking: only the
// owner of the booked item may.
func CanApprove(callerID int64, booking *models.Booking) bool {
	return callerID == booking.ItemOwnerID
}

// CanViewBooking reports whether the caller may read the booking: the booker
// and the item owner may, nobody else.
func CanViewBooking(callerID int64, booking *models.Booking) bool {
	return callerID == booking.BookerID || callerID == booking.ItemOwnerID
}

// CanModifyItem reports whether the caller may change the item.
func CanModifyItem(callerID int64, item *models.Item) bool {
	return callerID == item.OwnerID
}

// CanComment reports whether the caller may leave a comment on the item:
// there must be an approved booking by the caller on that item that already
// ended. Evaluated over the caller's approved bookings for the item.
func CanComment(callerID, itemID int64, bookings []*models.Booking, now time.Time) bool {
	for _, b := range bookings {
		if b.BookerID != callerID || b.ItemID != itemID {
			continue
		}
		if b.Status == models.StatusApproved && b.End.Before(now) {
			return true
		}
	}
	return false
}
