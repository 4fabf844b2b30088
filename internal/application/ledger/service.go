// Package ledger owns owner credit balances. Every mutation runs under the
// owner's lock inside one database transaction and appends exactly one
// quota transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/infrastructure/lock"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB    *gorm.DB
	Locks lock.Locker

	once     sync.Once
	fallback lock.Locker
}

func (s *Service) locker() lock.Locker {
	if s.Locks != nil {
		return s.Locks
	}
	s.once.Do(func() { s.fallback = lock.NewMemoryLocker() })
	return s.fallback
}

// Locker is shared with services that must hold owner locks together with other keys.
func (s *Service) Locker() lock.Locker {
	return s.locker()
}

// WithOwner runs fn in a transaction while holding the owner's lock.
func (s *Service) WithOwner(ctx context.Context, ownerID uuid.UUID, fn func(ops *Ops) error) error {
	unlock, err := s.locker().Lock(ctx, lock.OwnerKey(ownerID))
	if err != nil {
		return err
	}
	defer unlock()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Within(tx))
	})
}

type OpenAccountInput struct {
	OwnerID      uuid.UUID
	PropertyID   uuid.UUID
	Email        string
	FullName     string
	WeekdayQuota int
	WeekendQuota int
	ActorID      *uuid.UUID
}

// OpenAccount activates an owner with balance equal to quota. The activation
// transaction carries the opening balance so replay starts from zero.
func (s *Service) OpenAccount(ctx context.Context, in OpenAccountInput) (*domain.OwnerAccount, error) {
	if in.WeekdayQuota < 0 || in.WeekendQuota < 0 {
		return nil, domain.ErrInvalidAmount
	}
	var acc *domain.OwnerAccount
	err := s.WithOwner(ctx, in.OwnerID, func(ops *Ops) error {
		var count int64
		if err := ops.tx.Unscoped().Model(&domain.OwnerAccount{}).Where("owner_id = ?", in.OwnerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAccountExists
		}
		acc = &domain.OwnerAccount{
			OwnerID:        in.OwnerID,
			PropertyID:     in.PropertyID,
			Email:          in.Email,
			FullName:       in.FullName,
			Status:         domain.AccountActive,
			WeekdayQuota:   in.WeekdayQuota,
			WeekendQuota:   in.WeekendQuota,
			WeekdayBalance: in.WeekdayQuota,
			WeekendBalance: in.WeekendQuota,
		}
		if err := ops.tx.Create(acc).Error; err != nil {
			return err
		}
		return ops.record(&domain.QuotaTransaction{
			OwnerID:      in.OwnerID,
			Type:         domain.TxActivation,
			WeekdayDelta: in.WeekdayQuota,
			WeekendDelta: in.WeekendQuota,
			Description:  fmt.Sprintf("Account activated with %d weekday and %d weekend credits", in.WeekdayQuota, in.WeekendQuota),
			ActorID:      in.ActorID,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", in.OwnerID.String()).Int("weekday_quota", in.WeekdayQuota).Int("weekend_quota", in.WeekendQuota).Msg("owner account opened")
	return acc, nil
}

// SetQuota changes the annual entitlement. Balances move only on the next reset.
func (s *Service) SetQuota(ctx context.Context, ownerID uuid.UUID, weekdayQuota, weekendQuota int) (*domain.OwnerAccount, error) {
	if weekdayQuota < 0 || weekendQuota < 0 {
		return nil, domain.ErrInvalidAmount
	}
	var acc *domain.OwnerAccount
	err := s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		a, err := ops.lockAccount(ownerID)
		if err != nil {
			return err
		}
		if err := ops.tx.Model(a).Updates(map[string]interface{}{
			"weekday_quota": weekdayQuota,
			"weekend_quota": weekendQuota,
		}).Error; err != nil {
			return err
		}
		acc = a
		return nil
	})
	return acc, err
}

func (s *Service) SetStatus(ctx context.Context, ownerID uuid.UUID, status domain.AccountStatus) (*domain.OwnerAccount, error) {
	if status != domain.AccountActive && status != domain.AccountSuspended {
		return nil, fmt.Errorf("invalid account status: %q", status)
	}
	var acc *domain.OwnerAccount
	err := s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		a, err := ops.lockAccount(ownerID)
		if err != nil {
			return err
		}
		if err := ops.tx.Model(a).Update("status", status).Error; err != nil {
			return err
		}
		acc = a
		return nil
	})
	return acc, err
}

// CloseAccount soft-deletes the account. Its transaction history stays.
func (s *Service) CloseAccount(ctx context.Context, ownerID uuid.UUID) error {
	return s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		a, err := ops.lockAccount(ownerID)
		if err != nil {
			return err
		}
		return ops.tx.Delete(a).Error
	})
}

func (s *Service) Reserve(ctx context.Context, ownerID, bookingID uuid.UUID, weekday, weekend int) (*domain.QuotaTransaction, error) {
	var t *domain.QuotaTransaction
	err := s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		var err error
		t, err = ops.Reserve(ownerID, bookingID, weekday, weekend)
		return err
	})
	return t, err
}

func (s *Service) Commit(ctx context.Context, bookingID uuid.UUID) (*domain.QuotaTransaction, error) {
	ownerID, err := s.escrowOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var t *domain.QuotaTransaction
	err = s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		var err error
		t, err = ops.Commit(bookingID)
		return err
	})
	return t, err
}

func (s *Service) Release(ctx context.Context, bookingID uuid.UUID, description string) (*domain.QuotaTransaction, error) {
	ownerID, err := s.escrowOwner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var t *domain.QuotaTransaction
	err = s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		var err error
		t, err = ops.Release(bookingID, description)
		return err
	})
	return t, err
}

func (s *Service) Adjust(ctx context.Context, ownerID uuid.UUID, weekdayDelta, weekendDelta int, description string, actorID *uuid.UUID) (*domain.QuotaTransaction, error) {
	var t *domain.QuotaTransaction
	err := s.WithOwner(ctx, ownerID, func(ops *Ops) error {
		var err error
		t, err = ops.Adjust(ownerID, weekdayDelta, weekendDelta, description, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", ownerID.String()).Int("weekday_delta", weekdayDelta).Int("weekend_delta", weekendDelta).Msg("quota adjusted")
	return t, nil
}

func (s *Service) escrowOwner(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error) {
	var esc domain.Escrow
	err := s.DB.WithContext(ctx).Select("owner_id").Where("booking_id = ?", bookingID).First(&esc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, domain.ErrUnknownBooking
	}
	if err != nil {
		return uuid.Nil, err
	}
	return esc.OwnerID, nil
}

type OwnerResetResult struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	WeekdayDelta   int       `json:"weekday_delta"`
	WeekendDelta   int       `json:"weekend_delta"`
	WeekdayBalance int       `json:"weekday_balance"`
	WeekendBalance int       `json:"weekend_balance"`
}

type ResetReport struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []OwnerResetResult `json:"results"`
}

// ResetAll restores every active owner's balance to quota. Each owner is reset
// in its own lock and transaction; failures are reported, not propagated.
func (s *Service) ResetAll(ctx context.Context, actorID *uuid.UUID) (*ResetReport, error) {
	var owners []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&domain.OwnerAccount{}).
		Where("status = ?", domain.AccountActive).
		Order("created_at ASC").
		Pluck("owner_id", &owners).Error; err != nil {
		return nil, err
	}

	report := &ResetReport{Total: len(owners), Results: make([]OwnerResetResult, 0, len(owners))}
	for _, ownerID := range owners {
		r := OwnerResetResult{OwnerID: ownerID}
		err := s.WithOwner(ctx, ownerID, func(ops *Ops) error {
			t, acc, err := ops.ResetToQuota(ownerID, actorID)
			if err != nil {
				return err
			}
			r.WeekdayDelta, r.WeekendDelta = t.WeekdayDelta, t.WeekendDelta
			r.WeekdayBalance, r.WeekendBalance = acc.WeekdayBalance, acc.WeekendBalance
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("annual reset failed for owner")
			r.Error = err.Error()
			report.Failed++
		} else {
			r.Success = true
			report.Succeeded++
		}
		report.Results = append(report.Results, r)
	}
	log.Info().Int("total", report.Total).Int("succeeded", report.Succeeded).Int("failed", report.Failed).Msg("annual quota reset finished")
	return report, nil
}
