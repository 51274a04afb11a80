package service

import (
	"shareit/internal/events"
	"shareit/internal/models"
)

func eventTypeForStatus(status string) string {
	switch status {
	case models.StatusApproved:
		return events.EventBookingApproved
	case models.StatusRejected:
		return events.EventBookingRejected
	default:
		return events.EventBookingCreated
	}
}

func bookingPayload(b *models.Booking, ownerID int64) events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID:  b.ID,
		ItemID:     b.ItemID,
		ItemName:   b.ItemName,
		BookerID:   b.BookerID,
		BookerName: b.BookerName,
		OwnerID:    ownerID,
		Status:     b.Status,
		Start:      b.Start,
		End:        b.End,
	}
}
