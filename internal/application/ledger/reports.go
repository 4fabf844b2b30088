package ledger

import (
	"context"
	"errors"

	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Buckets struct {
	Weekday int `json:"weekday"`
	Weekend int `json:"weekend"`
}

// QuotaStatus is an owner's position. Available equals balance because
// escrowed credits have already left the balance.
type QuotaStatus struct {
	OwnerID       uuid.UUID            `json:"owner_id"`
	Status        domain.AccountStatus `json:"status"`
	Quota         Buckets              `json:"quota"`
	Balance       Buckets              `json:"balance"`
	PendingEscrow Buckets              `json:"pending_escrow"`
	Consumed      Buckets              `json:"consumed"`
	Available     Buckets              `json:"available"`
}

type escrowTotals struct {
	State   domain.EscrowState
	Weekday int
	Weekend int
}

func (s *Service) account(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerAccount, error) {
	var acc domain.OwnerAccount
	err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownOwner
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Service) Account(ctx context.Context, ownerID uuid.UUID) (*domain.OwnerAccount, error) {
	return s.account(ctx, ownerID)
}

func (s *Service) Status(ctx context.Context, ownerID uuid.UUID) (*QuotaStatus, error) {
	acc, err := s.account(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var totals []escrowTotals
	if err := s.DB.WithContext(ctx).Model(&domain.Escrow{}).
		Select("state, COALESCE(SUM(weekday_credits), 0) AS weekday, COALESCE(SUM(weekend_credits), 0) AS weekend").
		Where("owner_id = ? AND state IN ?", ownerID, []domain.EscrowState{domain.EscrowHeld, domain.EscrowConsumed}).
		Group("state").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	st := &QuotaStatus{
		OwnerID:   acc.OwnerID,
		Status:    acc.Status,
		Quota:     Buckets{Weekday: acc.WeekdayQuota, Weekend: acc.WeekendQuota},
		Balance:   Buckets{Weekday: acc.WeekdayBalance, Weekend: acc.WeekendBalance},
		Available: Buckets{Weekday: acc.WeekdayBalance, Weekend: acc.WeekendBalance},
	}
	for _, t := range totals {
		switch t.State {
		case domain.EscrowHeld:
			st.PendingEscrow = Buckets{Weekday: t.Weekday, Weekend: t.Weekend}
		case domain.EscrowConsumed:
			st.Consumed = Buckets{Weekday: t.Weekday, Weekend: t.Weekend}
		}
	}
	return st, nil
}

// History lists the owner's transactions newest first. limit <= 0 means all.
func (s *Service) History(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.QuotaTransaction, error) {
	q := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var txs []domain.QuotaTransaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Adjustments lists recent manual adjustments across all owners.
func (s *Service) Adjustments(ctx context.Context, limit int) ([]domain.QuotaTransaction, error) {
	q := s.DB.WithContext(ctx).Where("type = ?", domain.TxManualAdjustment).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var txs []domain.QuotaTransaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Verification compares the stored balance with the replayed transaction log.
type Verification struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	Stored     Buckets   `json:"stored"`
	Replayed   Buckets   `json:"replayed"`
	TxCount    int64     `json:"tx_count"`
	Consistent bool      `json:"consistent"`
}

type replaySum struct {
	Weekday int
	Weekend int
	Count   int64
}

func replay(db *gorm.DB, ownerID uuid.UUID) (replaySum, error) {
	var sum replaySum
	err := db.Model(&domain.QuotaTransaction{}).
		Select("COALESCE(SUM(weekday_delta), 0) AS weekday, COALESCE(SUM(weekend_delta), 0) AS weekend, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Scan(&sum).Error
	return sum, err
}

func (s *Service) Verify(ctx context.Context, ownerID uuid.UUID) (*Verification, error) {
	acc, err := s.account(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, acc)
}

func (s *Service) verify(ctx context.Context, acc *domain.OwnerAccount) (*Verification, error) {
	sum, err := replay(s.DB.WithContext(ctx), acc.OwnerID)
	if err != nil {
		return nil, err
	}
	v := &Verification{
		OwnerID:  acc.OwnerID,
		Stored:   Buckets{Weekday: acc.WeekdayBalance, Weekend: acc.WeekendBalance},
		Replayed: Buckets{Weekday: sum.Weekday, Weekend: sum.Weekend},
		TxCount:  sum.Count,
	}
	v.Consistent = v.Stored == v.Replayed
	return v, nil
}

type ReconcileReport struct {
	Checked      int            `json:"checked"`
	Inconsistent []Verification `json:"inconsistent"`
}

// Reconcile replays every account and reports the ones that drifted.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var accounts []domain.OwnerAccount
	if err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	report := &ReconcileReport{Checked: len(accounts), Inconsistent: []Verification{}}
	for i := range accounts {
		v, err := s.verify(ctx, &accounts[i])
		if err != nil {
			return nil, err
		}
		if !v.Consistent {
			report.Inconsistent = append(report.Inconsistent, *v)
		}
	}
	return report, nil
}
