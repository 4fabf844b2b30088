package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Booking struct {
	BookingID          uuid.UUID     `gorm:"column:booking_id;type:uuid;primaryKey" json:"booking_id"`
	OwnerID            uuid.UUID     `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	CottageID          uuid.UUID     `gorm:"column:cottage_id;type:uuid;not null;index" json:"cottage_id"`
	CheckIn            time.Time     `gorm:"column:check_in;type:date;not null" json:"check_in"`
	CheckOut           time.Time     `gorm:"column:check_out;type:date;not null" json:"check_out"`
	Status             BookingStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	WeekdayCreditsUsed int           `gorm:"column:weekday_credits_used;not null;default:0" json:"weekday_credits_used"`
	WeekendCreditsUsed int           `gorm:"column:weekend_credits_used;not null;default:0" json:"weekend_credits_used"`
	DecisionNotes      *string       `gorm:"column:decision_notes;type:text" json:"decision_notes"`
	DecidedBy          *uuid.UUID    `gorm:"column:decided_by;type:uuid" json:"decided_by"`
	DecidedAt          *time.Time    `gorm:"column:decided_at" json:"decided_at"`
	CancelledBy        *uuid.UUID    `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by"`
	CancellationReason *string       `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason"`
	CancelledAt        *time.Time    `gorm:"column:cancelled_at" json:"cancelled_at"`
	CreatedAt          time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == uuid.Nil {
		b.BookingID = uuid.New()
	}
	return nil
}

// Range returns the booked nights.
func (b *Booking) Range() DateRange {
	return DateRange{Start: NormalizeDate(b.CheckIn), End: NormalizeDate(b.CheckOut)}
}

func (b *Booking) TotalCredits() int {
	return b.WeekdayCreditsUsed + b.WeekendCreditsUsed
}

const (
	EventCreated     = "CREATED"
	EventApproved    = "APPROVED"
	EventRejected    = "REJECTED"
	EventCancelled   = "CANCELLED"
	EventRevoked     = "REVOKED"
	EventDatesEdited = "DATES_EDITED"
)

// BookingEvent is one recorded transition of a booking.
type BookingEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	BookingID uuid.UUID      `gorm:"column:booking_id;type:uuid;not null;index" json:"booking_id"`
	OwnerID   uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	EventType string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	ActorID   *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	ActorRole string         `gorm:"column:actor_role;type:varchar(20)" json:"actor_role"`
	EventData datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (BookingEvent) TableName() string {
	return "booking_events"
}

func (e *BookingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
