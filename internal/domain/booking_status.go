package domain

import (
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingAction is an actor's request to move a booking.
type BookingAction string

const (
	ActionApprove BookingAction = "approve"
	ActionReject  BookingAction = "reject"
	ActionCancel  BookingAction = "cancel"
	ActionRevoke  BookingAction = "revoke"
	ActionEdit    BookingAction = "edit"
)

var bookingTransitions = map[BookingStatus]map[BookingAction]BookingStatus{
	BookingPending: {
		ActionApprove: BookingConfirmed,
		ActionReject:  BookingRejected,
		ActionCancel:  BookingCancelled,
		ActionRevoke:  BookingCancelled,
		ActionEdit:    BookingPending,
	},
	BookingConfirmed: {
		ActionCancel: BookingCancelled,
		ActionRevoke: BookingCancelled,
	},
	BookingRejected:  {},
	BookingCancelled: {},
}

// Next returns the status reached by applying action, or a *TransitionError.
func (s BookingStatus) Next(action BookingAction) (BookingStatus, error) {
	to, ok := bookingTransitions[s][action]
	if !ok {
		return s, &TransitionError{From: s, Action: action}
	}
	return to, nil
}

func (s BookingStatus) Can(action BookingAction) bool {
	_, ok := bookingTransitions[s][action]
	return ok
}

// IsTerminal reports whether no further transition exists.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// HoldsCottage reports whether the booking still occupies its dates.
func (s BookingStatus) HoldsCottage() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", s)
	}
	return st, nil
}

// ActiveStatuses are the statuses that block a cottage's dates.
var ActiveStatuses = []BookingStatus{BookingPending, BookingConfirmed}
