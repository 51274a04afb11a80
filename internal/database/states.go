package database

import (
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

// BookingState is a temporal bucket used to filter booking lists. Each value
// carries exactly the SQL predicate it needs, so the scan code has no state
// switch and no default branch.
type BookingState struct {
	name  string
	where func(now time.Time) (string, []any)
}

func (s BookingState) String() string { return s.name }

func StateAll() BookingState {
	return BookingState{name: "ALL", where: func(time.Time) (string, []any) {
		return "", nil
	}}
}

// StateCurrent matches bookings with start <= now < end.
func StateCurrent() BookingState {
	return BookingState{name: "CURRENT", where: func(now time.Time) (string, []any) {
		return "b.start_time <= ? AND b.end_time > ?", []any{now, now}
	}}
}

func StatePast() BookingState {
	return BookingState{name: "PAST", where: func(now time.Time) (string, []any) {
		return "b.end_time < ?", []any{now}
	}}
}

func StateFuture() BookingState {
	return BookingState{name: "FUTURE", where: func(now time.Time) (string, []any) {
		return "b.start_time > ?", []any{now}
	}}
}

func StateWaiting() BookingState {
	return BookingState{name: "WAITING", where: func(time.Time) (string, []any) {
		return "b.status = ?", []any{models.StatusWaiting}
	}}
}

func StateRejected() BookingState {
	return BookingState{name: "REJECTED", where: func(time.Time) (string, []any) {
		return "b.status = ?", []any{models.StatusRejected}
	}}
}

// ParseState maps a raw state symbol to its bucket. An empty string means ALL;
// anything unknown fails with ErrInvalidArgument.
func ParseState(raw string) (BookingState, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "ALL":
		return StateAll(), nil
	case "CURRENT":
		return StateCurrent(), nil
	case "PAST":
		return StatePast(), nil
	case "FUTURE":
		return StateFuture(), nil
	case "WAITING":
		return StateWaiting(), nil
	case "REJECTED":
		return StateRejected(), nil
	default:
		return BookingState{}, fmt.Errorf("%w: unknown state: %s", ErrInvalidArgument, raw)
	}
}

// Page is a list window. From is NOT a raw row offset: the effective page
// index is from/size, so offsets that are not multiples of size land on the
// nearest page boundary below. Callers depend on this, keep it.
type Page struct {
	From int
	Size int
}

func (p Page) Validate() error {
	if p.From < 0 || p.Size <= 0 {
		return fmt.Errorf("%w: bad page window from=%d size=%d", ErrInvalidArgument, p.From, p.Size)
	}
	return nil
}

func (p Page) offset() int {
	return (p.From / p.Size) * p.Size
}
