package models

import "time"

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	OwnerID     int64     `json:"ownerId"`
	RequestID   int64     `json:"requestId,omitempty"` // 0 = not created for a request
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ItemPatch carries a partial item update. Nil fields stay untouched.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// ItemView is the read-side projection of an item. LastBooking and
// NextBooking are filled only when the viewer owns the item; comments are
// attached for every viewer.
type ItemView struct {
	Item
	LastBooking *BookingBrief `json:"lastBooking,omitempty"`
	NextBooking *BookingBrief `json:"nextBooking,omitempty"`
	Comments    []Comment     `json:"comments"`
}
