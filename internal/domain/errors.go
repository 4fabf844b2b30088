package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidDateRange        = errors.New("Check-out date must be after check-in date")
	ErrCottageUnavailable      = errors.New("Cottage is not available for the selected dates")
	ErrInsufficientCredits     = errors.New("Insufficient credits")
	ErrInvalidTransition       = errors.New("Invalid booking status transition")
	ErrUnknownBooking          = errors.New("Booking not found")
	ErrUnknownOwner            = errors.New("Owner account not found")
	ErrUnknownCottage          = errors.New("Cottage not found")
	ErrUnknownMaintenanceBlock = errors.New("Maintenance block not found")
	ErrAlreadyReleased         = errors.New("Escrow already released for this booking")
	ErrReasonRequired          = errors.New("A reason is required")
	ErrForbidden               = errors.New("User is Forbidden from performing this action")
	ErrOwnerInactive           = errors.New("Owner account is not active")
	ErrAccountExists           = errors.New("Owner account already exists")
	ErrImmutableTransaction    = errors.New("Quota transactions are append-only")
	ErrInvalidAmount           = errors.New("Credit amounts must not be negative")
	ErrEmptyAdjustment         = errors.New("Adjustment must change at least one credit bucket")
	ErrEscrowHeld              = errors.New("Booking already holds escrowed credits")
	ErrInvalidDecision         = errors.New("Decision must be approve or reject")
)

// InsufficientCreditsError carries required and available amounts for both buckets.
type InsufficientCreditsError struct {
	RequiredWeekday  int `json:"required_weekday"`
	AvailableWeekday int `json:"available_weekday"`
	RequiredWeekend  int `json:"required_weekend"`
	AvailableWeekend int `json:"available_weekend"`
}

func (e *InsufficientCreditsError) Error() string {
	var parts []string
	if e.RequiredWeekday > e.AvailableWeekday {
		parts = append(parts, fmt.Sprintf("Insufficient weekday credits. Required: %d, Available: %d", e.RequiredWeekday, e.AvailableWeekday))
	}
	if e.RequiredWeekend > e.AvailableWeekend {
		parts = append(parts, fmt.Sprintf("Insufficient weekend credits. Required: %d, Available: %d", e.RequiredWeekend, e.AvailableWeekend))
	}
	if len(parts) == 0 {
		return ErrInsufficientCredits.Error()
	}
	return strings.Join(parts, " ")
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// Conflict is one reservation or maintenance window blocking a range.
type Conflict struct {
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Range  DateRange `json:"range"`
	Status string    `json:"status,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

const (
	ConflictBooking     = "booking"
	ConflictMaintenance = "maintenance"
)

// UnavailableError lists what blocks the requested range.
type UnavailableError struct {
	CottageID uuid.UUID  `json:"cottage_id"`
	Conflicts []Conflict `json:"conflicts"`
}

func (e *UnavailableError) Error() string {
	for _, c := range e.Conflicts {
		if c.Kind == ConflictMaintenance {
			return "Cottage is under maintenance during the selected dates"
		}
	}
	return ErrCottageUnavailable.Error()
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrCottageUnavailable
}

// TransitionError is returned when an action is not allowed from the current status.
type TransitionError struct {
	From   BookingStatus `json:"from"`
	Action BookingAction `json:"action"`
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot %s a booking that is %s", e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
