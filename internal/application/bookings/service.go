// Package bookings drives the booking lifecycle. Every transition that moves
// credits holds the owner and cottage locks and runs in one transaction with
// the matching ledger operation.
package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cottage-ledger/internal/application/availability"
	"cottage-ledger/internal/application/ledger"
	"cottage-ledger/internal/application/notifications"
	"cottage-ledger/internal/application/pricing"
	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/infrastructure/lock"
	"cottage-ledger/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	RoleOwner = constants.Owner
	RoleAdmin = constants.Admin
)

// Actor is whoever requests a transition.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Service struct {
	DB       *gorm.DB
	Ledger   *ledger.Service
	Notifier notifications.Notifier
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// withLocks holds the owner and cottage locks for the duration of one transaction.
func (s *Service) withLocks(ctx context.Context, ownerID, cottageID uuid.UUID, fn func(tx *gorm.DB) error) error {
	unlock, err := s.Ledger.Locker().Lock(ctx, lock.OwnerKey(ownerID), lock.CottageKey(cottageID))
	if err != nil {
		return err
	}
	defer unlock()
	return s.DB.WithContext(ctx).Transaction(fn)
}

func lockBooking(tx *gorm.DB, bookingID uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("booking_id = ?", bookingID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownBooking
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func findBooking(db *gorm.DB, bookingID uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := db.Where("booking_id = ?", bookingID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownBooking
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func recordEvent(tx *gorm.DB, b *domain.Booking, eventType string, actor Actor, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := &domain.BookingEvent{
		BookingID: b.BookingID,
		OwnerID:   b.OwnerID,
		EventType: eventType,
		ActorRole: actor.Role,
		EventData: datatypes.JSON(raw),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		ev.ActorID = &id
	}
	return tx.Create(ev).Error
}

// contact loads what a notification needs. Closed accounts and retired
// cottages still resolve; a missing row yields nil.
func contact(tx *gorm.DB, b *domain.Booking) (*domain.OwnerAccount, *domain.Cottage, error) {
	var acc domain.OwnerAccount
	var cottage domain.Cottage
	var accOut *domain.OwnerAccount
	var cottageOut *domain.Cottage

	err := tx.Unscoped().Where("owner_id = ?", b.OwnerID).First(&acc).Error
	switch {
	case err == nil:
		accOut = &acc
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}
	err = tx.Where("cottage_id = ?", b.CottageID).First(&cottage).Error
	switch {
	case err == nil:
		cottageOut = &cottage
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}
	return accOut, cottageOut, nil
}

type CreateInput struct {
	OwnerID   uuid.UUID
	CottageID uuid.UUID
	CheckIn   time.Time
	CheckOut  time.Time
}

// Create prices the stay, reserves its credits and stores a pending booking.
// Nothing is written unless every step succeeds.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Booking, error) {
	r, err := domain.NewDateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		BookingID: uuid.New(),
		OwnerID:   in.OwnerID,
		CottageID: in.CottageID,
		CheckIn:   r.Start,
		CheckOut:  r.End,
		Status:    domain.BookingPending,
	}
	err = s.withLocks(ctx, in.OwnerID, in.CottageID, func(tx *gorm.DB) error {
		ops := ledger.Within(tx)
		acc, err := ops.Account(in.OwnerID)
		if err != nil {
			return err
		}
		if acc.Status != domain.AccountActive {
			return domain.ErrOwnerInactive
		}
		cottage, err := availability.RequireCottage(tx, in.CottageID)
		if err != nil {
			return err
		}
		if cottage.PropertyID != acc.PropertyID {
			return domain.ErrForbidden
		}
		if err := availability.Check(tx, in.CottageID, r, nil); err != nil {
			return err
		}
		quote, err := pricing.PriceWith(tx, in.CottageID, r.Start, r.End)
		if err != nil {
			return err
		}

		booking.WeekdayCreditsUsed = quote.WeekdayCredits
		booking.WeekendCreditsUsed = quote.WeekendCredits
		if err := tx.Create(booking).Error; err != nil {
			return err
		}
		if _, err := ops.Reserve(in.OwnerID, booking.BookingID, quote.WeekdayCredits, quote.WeekendCredits); err != nil {
			return err
		}
		return recordEvent(tx, booking, domain.EventCreated, Actor{ID: in.OwnerID, Role: RoleOwner}, map[string]interface{}{
			"check_in":        quote.CheckIn,
			"check_out":       quote.CheckOut,
			"weekday_credits": quote.WeekdayCredits,
			"weekend_credits": quote.WeekendCredits,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", booking.BookingID.String()).
		Str("owner_id", booking.OwnerID.String()).
		Str("cottage_id", booking.CottageID.String()).
		Str("range", r.String()).
		Msg("booking created")
	return booking, nil
}

// Decide approves or rejects a pending booking. Approval consumes the escrow,
// rejection refunds it.
func (s *Service) Decide(ctx context.Context, bookingID uuid.UUID, action domain.BookingAction, notes string, admin Actor) (*domain.Booking, error) {
	if action != domain.ActionApprove && action != domain.ActionReject {
		return nil, domain.ErrInvalidDecision
	}
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	current, err := findBooking(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}

	var (
		booking *domain.Booking
		acc     *domain.OwnerAccount
		cottage *domain.Cottage
	)
	err = s.withLocks(ctx, current.OwnerID, current.CottageID, func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		next, err := b.Status.Next(action)
		if err != nil {
			return err
		}
		ops := ledger.Within(tx)
		eventType := domain.EventApproved
		if action == domain.ActionApprove {
			if _, err := ops.Commit(bookingID); err != nil {
				return err
			}
		} else {
			eventType = domain.EventRejected
			if _, err := ops.Release(bookingID, "Booking rejected"); err != nil {
				return err
			}
		}

		now := s.now()
		decidedBy := admin.ID
		b.Status = next
		b.DecidedBy = &decidedBy
		b.DecidedAt = &now
		if notes != "" {
			b.DecisionNotes = &notes
		}
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		if err := recordEvent(tx, b, eventType, admin, map[string]interface{}{"notes": notes}); err != nil {
			return err
		}

		if acc, cottage, err = contact(tx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("booking_id", bookingID.String()).Str("status", string(booking.Status)).Msg("booking decided")
	kind := notifications.BookingApproved
	if action == domain.ActionReject {
		kind = notifications.BookingRejected
	}
	s.notify(ctx, kind, booking, acc, cottage, notes)
	return booking, nil
}

// Cancel ends a pending or confirmed booking and refunds its credits.
// Owners may only cancel their own bookings. An admin cancellation is a
// revocation and needs a reason.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, actor Actor, reason string) (*domain.Booking, error) {
	reason = strings.TrimSpace(reason)
	action := domain.ActionCancel
	eventType := domain.EventCancelled
	if actor.IsAdmin() {
		if reason == "" {
			return nil, domain.ErrReasonRequired
		}
		action = domain.ActionRevoke
		eventType = domain.EventRevoked
	}

	current, err := findBooking(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.OwnerID != actor.ID {
		return nil, domain.ErrForbidden
	}

	var (
		booking *domain.Booking
		acc     *domain.OwnerAccount
		cottage *domain.Cottage
		refund  *domain.QuotaTransaction
	)
	err = s.withLocks(ctx, current.OwnerID, current.CottageID, func(tx *gorm.DB) error {
		b, err := lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		next, err := b.Status.Next(action)
		if err != nil {
			return err
		}
		ops := ledger.Within(tx)
		description := "Booking cancelled by owner"
		if actor.IsAdmin() {
			description = "Booking revoked: " + reason
		}
		if refund, err = ops.Release(bookingID, description); err != nil {
			return err
		}

		now := s.now()
		by := actor.ID
		b.Status = next
		b.CancelledBy = &by
		b.CancelledAt = &now
		if reason != "" {
			b.CancellationReason = &reason
		}
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		if err := recordEvent(tx, b, eventType, actor, map[string]interface{}{
			"reason":          reason,
			"weekday_refund":  refund.WeekdayDelta,
			"weekend_refund":  refund.WeekendDelta,
			"previous_status": current.Status,
		}); err != nil {
			return err
		}

		if actor.IsAdmin() {
			if acc, cottage, err = contact(tx, b); err != nil {
				return err
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", bookingID.String()).
		Str("action", string(action)).
		Int("weekday_refund", refund.WeekdayDelta).
		Int("weekend_refund", refund.WeekendDelta).
		Msg("booking cancelled")
	if actor.IsAdmin() {
		s.notify(ctx, notifications.BookingRevoked, booking, acc, cottage, reason)
	}
	return booking, nil
}

// Revoke is an admin cancellation with a mandatory reason.
func (s *Service) Revoke(ctx context.Context, bookingID uuid.UUID, admin Actor, reason string) (*domain.Booking, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Cancel(ctx, bookingID, admin, reason)
}

type EditInput struct {
	BookingID uuid.UUID
	CheckIn   time.Time
	CheckOut  time.Time
}

// EditDates moves a pending booking. The old escrow is released and a new one
// reserved in the same transaction, so a failure at any step leaves the
// booking and the ledger exactly as they were.
func (s *Service) EditDates(ctx context.Context, in EditInput, actor Actor) (*domain.Booking, error) {
	r, err := domain.NewDateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	current, err := findBooking(s.DB.WithContext(ctx), in.BookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.OwnerID != actor.ID {
		return nil, domain.ErrForbidden
	}

	var booking *domain.Booking
	err = s.withLocks(ctx, current.OwnerID, current.CottageID, func(tx *gorm.DB) error {
		b, err := lockBooking(tx, in.BookingID)
		if err != nil {
			return err
		}
		if _, err := b.Status.Next(domain.ActionEdit); err != nil {
			return err
		}
		old := b.Range()

		ops := ledger.Within(tx)
		if _, err := ops.Release(b.BookingID, "Dates changed from "+old.String()); err != nil {
			return err
		}
		if _, err := availability.RequireCottage(tx, b.CottageID); err != nil {
			return err
		}
		exclude := b.BookingID
		if err := availability.Check(tx, b.CottageID, r, &exclude); err != nil {
			return err
		}
		quote, err := pricing.PriceWith(tx, b.CottageID, r.Start, r.End)
		if err != nil {
			return err
		}
		if _, err := ops.Reserve(b.OwnerID, b.BookingID, quote.WeekdayCredits, quote.WeekendCredits); err != nil {
			return err
		}

		oldWeekday, oldWeekend := b.WeekdayCreditsUsed, b.WeekendCreditsUsed
		b.CheckIn = r.Start
		b.CheckOut = r.End
		b.WeekdayCreditsUsed = quote.WeekdayCredits
		b.WeekendCreditsUsed = quote.WeekendCredits
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		if err := recordEvent(tx, b, domain.EventDatesEdited, actor, map[string]interface{}{
			"old_check_in":        old.Start.Format(domain.DateLayout),
			"old_check_out":       old.End.Format(domain.DateLayout),
			"new_check_in":        quote.CheckIn,
			"new_check_out":       quote.CheckOut,
			"old_weekday_credits": oldWeekday,
			"old_weekend_credits": oldWeekend,
			"new_weekday_credits": quote.WeekdayCredits,
			"new_weekend_credits": quote.WeekendCredits,
		}); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("booking_id", in.BookingID.String()).Str("range", r.String()).Msg("booking dates edited")
	return booking, nil
}

type RevokeFailure struct {
	BookingID uuid.UUID `json:"booking_id"`
	Error     string    `json:"error"`
}

type MaintenanceRevokeReport struct {
	BlockID   uuid.UUID       `json:"block_id"`
	CottageID uuid.UUID       `json:"cottage_id"`
	Revoked   []uuid.UUID     `json:"revoked"`
	Failed    []RevokeFailure `json:"failed"`
}

// ConflictsForMaintenance lists active bookings overlapping a maintenance block.
func (s *Service) ConflictsForMaintenance(ctx context.Context, blockID uuid.UUID) ([]domain.Booking, error) {
	_, out, err := availability.BlockBookings(s.DB.WithContext(ctx), blockID)
	return out, err
}

// RevokeForMaintenance revokes every active booking overlapping the block.
// Each booking is revoked on its own; one failure does not stop the rest.
func (s *Service) RevokeForMaintenance(ctx context.Context, blockID uuid.UUID, admin Actor, reason string) (*MaintenanceRevokeReport, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrReasonRequired
	}
	block, affected, err := availability.BlockBookings(s.DB.WithContext(ctx), blockID)
	if err != nil {
		return nil, err
	}

	report := &MaintenanceRevokeReport{
		BlockID:   block.BlockID,
		CottageID: block.CottageID,
		Revoked:   []uuid.UUID{},
		Failed:    []RevokeFailure{},
	}
	for _, b := range affected {
		if _, err := s.Revoke(ctx, b.BookingID, admin, reason); err != nil {
			log.Warn().Err(err).Str("booking_id", b.BookingID.String()).Str("block_id", blockID.String()).Msg("maintenance revoke failed")
			report.Failed = append(report.Failed, RevokeFailure{BookingID: b.BookingID, Error: err.Error()})
			continue
		}
		report.Revoked = append(report.Revoked, b.BookingID)
	}
	log.Info().
		Str("block_id", blockID.String()).
		Int("revoked", len(report.Revoked)).
		Int("failed", len(report.Failed)).
		Msg("maintenance revoke finished")
	return report, nil
}

// notify runs after the transaction has committed. A delivery failure is
// logged and otherwise ignored.
func (s *Service) notify(ctx context.Context, kind notifications.EventKind, b *domain.Booking, acc *domain.OwnerAccount, cottage *domain.Cottage, notes string) {
	if s.Notifier == nil || b == nil {
		return
	}
	ev := notifications.Event{
		Kind:           kind,
		BookingID:      b.BookingID,
		OwnerID:        b.OwnerID,
		CottageID:      b.CottageID,
		CheckIn:        b.CheckIn.Format(domain.DateLayout),
		CheckOut:       b.CheckOut.Format(domain.DateLayout),
		WeekdayCredits: b.WeekdayCreditsUsed,
		WeekendCredits: b.WeekendCreditsUsed,
		Notes:          notes,
		OccurredAt:     s.now(),
	}
	if acc != nil {
		ev.OwnerEmail = acc.Email
		ev.OwnerName = acc.FullName
	}
	if cottage != nil {
		ev.CottageCode = cottage.Code
	}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).Str("booking_id", b.BookingID.String()).Str("kind", string(kind)).Msg("booking notification failed")
	}
}
