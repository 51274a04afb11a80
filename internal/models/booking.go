package models

import "time"

type Booking struct {
	ID       int64     `json:"id"`
	ItemID   int64     `json:"itemId"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"` // WAITING, APPROVED, REJECTED

	// Denormalized for read views; filled by store joins.
	ItemName    string `json:"itemName,omitempty"`
	BookerName  string `json:"bookerName,omitempty"`
	ItemOwnerID int64  `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Version   int64     `json:"-"`
}

// BookingBrief is the minimal projection attached to enriched item views.
type BookingBrief struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Brief returns the minimal projection of the booking.
func (b *Booking) Brief() *BookingBrief {
	if b == nil {
		return nil
	}
	return &BookingBrief{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}
