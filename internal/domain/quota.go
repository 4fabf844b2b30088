package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
)

// OwnerAccount holds an owner's annual entitlement and spendable balance.
// Balances already exclude credits held in escrow.
type OwnerAccount struct {
	OwnerID        uuid.UUID      `gorm:"column:owner_id;type:uuid;primaryKey" json:"owner_id"`
	PropertyID     uuid.UUID      `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	Email          string         `gorm:"column:email;type:varchar(255)" json:"email"`
	FullName       string         `gorm:"column:full_name;type:varchar(255)" json:"full_name"`
	Status         AccountStatus  `gorm:"column:status;type:varchar(20);not null;default:active" json:"status"`
	WeekdayQuota   int            `gorm:"column:weekday_quota;not null" json:"weekday_quota"`
	WeekendQuota   int            `gorm:"column:weekend_quota;not null" json:"weekend_quota"`
	WeekdayBalance int            `gorm:"column:weekday_balance;not null" json:"weekday_balance"`
	WeekendBalance int            `gorm:"column:weekend_balance;not null" json:"weekend_balance"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (OwnerAccount) TableName() string {
	return "owner_accounts"
}

type TransactionType string

const (
	TxActivation       TransactionType = "activation"
	TxReservation      TransactionType = "reservation"
	TxCommit           TransactionType = "commit"
	TxRelease          TransactionType = "release"
	TxManualAdjustment TransactionType = "manual_adjustment"
	TxAnnualReset      TransactionType = "annual_reset"
)

// QuotaTransaction is an append-only record of one ledger operation.
type QuotaTransaction struct {
	TxID         uuid.UUID       `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	OwnerID      uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Type         TransactionType `gorm:"column:type;type:varchar(20);not null;index" json:"type"`
	WeekdayDelta int             `gorm:"column:weekday_delta;not null" json:"weekday_delta"`
	WeekendDelta int             `gorm:"column:weekend_delta;not null" json:"weekend_delta"`
	Description  string          `gorm:"column:description;type:text" json:"description"`
	BookingID    *uuid.UUID      `gorm:"column:booking_id;type:uuid;index" json:"booking_id"`
	ActorID      *uuid.UUID      `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	CreatedAt    time.Time       `gorm:"column:created_at;index" json:"created_at"`
}

func (QuotaTransaction) TableName() string {
	return "quota_transactions"
}

func (t *QuotaTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}

func (t *QuotaTransaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

func (t *QuotaTransaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

type EscrowState string

const (
	EscrowHeld     EscrowState = "held"
	EscrowConsumed EscrowState = "consumed"
	EscrowReleased EscrowState = "released"
)

// Escrow tracks the credits a booking currently holds.
type Escrow struct {
	BookingID       uuid.UUID   `gorm:"column:booking_id;type:uuid;primaryKey" json:"booking_id"`
	OwnerID         uuid.UUID   `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	WeekdayCredits  int         `gorm:"column:weekday_credits;not null" json:"weekday_credits"`
	WeekendCredits  int         `gorm:"column:weekend_credits;not null" json:"weekend_credits"`
	State           EscrowState `gorm:"column:state;type:varchar(20);not null;index" json:"state"`
	ReservationTxID uuid.UUID   `gorm:"column:reservation_tx_id;type:uuid;not null" json:"reservation_tx_id"`
	CreatedAt       time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at" json:"updated_at"`
}

func (Escrow) TableName() string {
	return "escrows"
}
