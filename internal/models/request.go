package models

import "time"

// ItemRequest is a wish for an item that nobody listed yet. Items created
// to fulfill it reference the request by id.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"-"`
	Created     time.Time `json:"created"`
}

// RequestView attaches the items created in answer to the request.
type RequestView struct {
	ItemRequest
	Items []Item `json:"items"`
}
