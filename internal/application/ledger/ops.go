package ledger

import (
	"errors"
	"fmt"

	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ops applies ledger mutations against an open database transaction.
// The caller must hold the owner's lock for the lifetime of the transaction.
type Ops struct {
	tx *gorm.DB
}

func Within(tx *gorm.DB) *Ops {
	return &Ops{tx: tx}
}

func (o *Ops) lockAccount(ownerID uuid.UUID) (*domain.OwnerAccount, error) {
	var acc domain.OwnerAccount
	err := o.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownOwner
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (o *Ops) lockEscrow(bookingID uuid.UUID) (*domain.Escrow, error) {
	var esc domain.Escrow
	err := o.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ?", bookingID).
		First(&esc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownBooking
	}
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

func (o *Ops) record(t *domain.QuotaTransaction) error {
	return o.tx.Create(t).Error
}

// Account returns the owner's account with its row locked.
func (o *Ops) Account(ownerID uuid.UUID) (*domain.OwnerAccount, error) {
	return o.lockAccount(ownerID)
}

// Reserve moves credits from the owner's balance into escrow for bookingID.
// Either both buckets are reserved or nothing changes.
func (o *Ops) Reserve(ownerID, bookingID uuid.UUID, weekday, weekend int) (*domain.QuotaTransaction, error) {
	if weekday < 0 || weekend < 0 {
		return nil, domain.ErrInvalidAmount
	}
	acc, err := o.lockAccount(ownerID)
	if err != nil {
		return nil, err
	}

	var existing domain.Escrow
	err = o.tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("booking_id = ?", bookingID).First(&existing).Error
	hasEscrow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if hasEscrow && existing.State != domain.EscrowReleased {
		return nil, domain.ErrEscrowHeld
	}

	short := &domain.InsufficientCreditsError{
		RequiredWeekday:  weekday,
		AvailableWeekday: acc.WeekdayBalance,
		RequiredWeekend:  weekend,
		AvailableWeekend: acc.WeekendBalance,
	}
	if acc.WeekdayBalance < weekday || acc.WeekendBalance < weekend {
		return nil, short
	}

	res := o.tx.Model(&domain.OwnerAccount{}).
		Where("owner_id = ? AND weekday_balance >= ? AND weekend_balance >= ?", ownerID, weekday, weekend).
		Updates(map[string]interface{}{
			"weekday_balance": gorm.Expr("weekday_balance - ?", weekday),
			"weekend_balance": gorm.Expr("weekend_balance - ?", weekend),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, short
	}

	bid := bookingID
	t := &domain.QuotaTransaction{
		OwnerID:      ownerID,
		Type:         domain.TxReservation,
		WeekdayDelta: -weekday,
		WeekendDelta: -weekend,
		Description:  fmt.Sprintf("Reserved %d weekday and %d weekend credits", weekday, weekend),
		BookingID:    &bid,
	}
	if err := o.record(t); err != nil {
		return nil, err
	}

	esc := domain.Escrow{
		BookingID:       bookingID,
		OwnerID:         ownerID,
		WeekdayCredits:  weekday,
		WeekendCredits:  weekend,
		State:           domain.EscrowHeld,
		ReservationTxID: t.TxID,
	}
	if hasEscrow {
		esc.CreatedAt = existing.CreatedAt
		err = o.tx.Save(&esc).Error
	} else {
		err = o.tx.Create(&esc).Error
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Commit marks a held escrow as consumed. Balances do not move.
// Committing an already consumed escrow returns (nil, nil).
func (o *Ops) Commit(bookingID uuid.UUID) (*domain.QuotaTransaction, error) {
	esc, err := o.lockEscrow(bookingID)
	if err != nil {
		return nil, err
	}
	switch esc.State {
	case domain.EscrowReleased:
		return nil, domain.ErrAlreadyReleased
	case domain.EscrowConsumed:
		return nil, nil
	}

	bid := bookingID
	t := &domain.QuotaTransaction{
		OwnerID:     esc.OwnerID,
		Type:        domain.TxCommit,
		Description: fmt.Sprintf("Committed %d weekday and %d weekend credits", esc.WeekdayCredits, esc.WeekendCredits),
		BookingID:   &bid,
	}
	if err := o.record(t); err != nil {
		return nil, err
	}
	if err := o.tx.Model(esc).Update("state", domain.EscrowConsumed).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// Release refunds exactly what the booking's reservation took.
func (o *Ops) Release(bookingID uuid.UUID, description string) (*domain.QuotaTransaction, error) {
	esc, err := o.lockEscrow(bookingID)
	if err != nil {
		return nil, err
	}
	if esc.State == domain.EscrowReleased {
		return nil, domain.ErrAlreadyReleased
	}

	var reservation domain.QuotaTransaction
	err = o.tx.Where("tx_id = ? AND type = ?", esc.ReservationTxID, domain.TxReservation).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownBooking
	}
	if err != nil {
		return nil, err
	}
	weekday, weekend := -reservation.WeekdayDelta, -reservation.WeekendDelta

	res := o.tx.Unscoped().Model(&domain.OwnerAccount{}).
		Where("owner_id = ?", esc.OwnerID).
		Updates(map[string]interface{}{
			"weekday_balance": gorm.Expr("weekday_balance + ?", weekday),
			"weekend_balance": gorm.Expr("weekend_balance + ?", weekend),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUnknownOwner
	}

	if description == "" {
		description = fmt.Sprintf("Released %d weekday and %d weekend credits", weekday, weekend)
	}
	bid := bookingID
	t := &domain.QuotaTransaction{
		OwnerID:      esc.OwnerID,
		Type:         domain.TxRelease,
		WeekdayDelta: weekday,
		WeekendDelta: weekend,
		Description:  description,
		BookingID:    &bid,
	}
	if err := o.record(t); err != nil {
		return nil, err
	}
	if err := o.tx.Model(esc).Update("state", domain.EscrowReleased).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// Adjust applies a signed correction. The balance may go negative.
func (o *Ops) Adjust(ownerID uuid.UUID, weekdayDelta, weekendDelta int, description string, actorID *uuid.UUID) (*domain.QuotaTransaction, error) {
	if weekdayDelta == 0 && weekendDelta == 0 {
		return nil, domain.ErrEmptyAdjustment
	}
	acc, err := o.lockAccount(ownerID)
	if err != nil {
		return nil, err
	}
	err = o.tx.Model(acc).Updates(map[string]interface{}{
		"weekday_balance": gorm.Expr("weekday_balance + ?", weekdayDelta),
		"weekend_balance": gorm.Expr("weekend_balance + ?", weekendDelta),
	}).Error
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = "Manual adjustment"
	}
	t := &domain.QuotaTransaction{
		OwnerID:      ownerID,
		Type:         domain.TxManualAdjustment,
		WeekdayDelta: weekdayDelta,
		WeekendDelta: weekendDelta,
		Description:  description,
		ActorID:      actorID,
	}
	if err := o.record(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ResetToQuota sets both balances to the configured quota and logs the difference.
func (o *Ops) ResetToQuota(ownerID uuid.UUID, actorID *uuid.UUID) (*domain.QuotaTransaction, *domain.OwnerAccount, error) {
	acc, err := o.lockAccount(ownerID)
	if err != nil {
		return nil, nil, err
	}
	t := &domain.QuotaTransaction{
		OwnerID:      ownerID,
		Type:         domain.TxAnnualReset,
		WeekdayDelta: acc.WeekdayQuota - acc.WeekdayBalance,
		WeekendDelta: acc.WeekendQuota - acc.WeekendBalance,
		Description:  fmt.Sprintf("Annual reset to %d weekday and %d weekend credits", acc.WeekdayQuota, acc.WeekendQuota),
		ActorID:      actorID,
	}
	err = o.tx.Model(acc).Updates(map[string]interface{}{
		"weekday_balance": acc.WeekdayQuota,
		"weekend_balance": acc.WeekendQuota,
	}).Error
	if err != nil {
		return nil, nil, err
	}
	if err := o.record(t); err != nil {
		return nil, nil, err
	}
	acc.WeekdayBalance = acc.WeekdayQuota
	acc.WeekendBalance = acc.WeekendQuota
	return t, acc, nil
}
