// Package notifications informs owners about booking decisions. Delivery
// happens after the ledger transaction commits and never undoes it.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	BookingApproved EventKind = "booking.approved"
	BookingRejected EventKind = "booking.rejected"
	BookingRevoked  EventKind = "booking.revoked"
)

type Event struct {
	Kind           EventKind `json:"kind"`
	BookingID      uuid.UUID `json:"booking_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	OwnerEmail     string    `json:"owner_email,omitempty"`
	OwnerName      string    `json:"owner_name,omitempty"`
	CottageID      uuid.UUID `json:"cottage_id"`
	CottageCode    string    `json:"cottage_code,omitempty"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	WeekdayCredits int       `json:"weekday_credits"`
	WeekendCredits int       `json:"weekend_credits"`
	Notes          string    `json:"notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier delivers one event. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
