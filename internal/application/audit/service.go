// Package audit projects the quota transaction log and booking events into
// one human-readable trail. It never writes.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	SourceLedger  = "ledger"
	SourceBooking = "booking"
)

type Entry struct {
	Source       string          `json:"source"`
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	BookingID    *uuid.UUID      `json:"booking_id,omitempty"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	Kind         string          `json:"kind"`
	Summary      string          `json:"summary"`
	WeekdayDelta int             `json:"weekday_delta"`
	WeekendDelta int             `json:"weekend_delta"`
	Data         json.RawMessage `json:"data,omitempty"`
	At           time.Time       `json:"at"`
}

type Filter struct {
	OwnerID   *uuid.UUID
	BookingID *uuid.UUID
	Limit     int
}

const defaultLimit = 100

type Service struct {
	DB *gorm.DB
}

// Trail returns entries newest first.
func (s *Service) Trail(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	db := s.DB.WithContext(ctx)

	txq := db.Model(&domain.QuotaTransaction{})
	evq := db.Model(&domain.BookingEvent{})
	if f.OwnerID != nil {
		txq = txq.Where("owner_id = ?", *f.OwnerID)
		evq = evq.Where("owner_id = ?", *f.OwnerID)
	}
	if f.BookingID != nil {
		txq = txq.Where("booking_id = ?", *f.BookingID)
		evq = evq.Where("booking_id = ?", *f.BookingID)
	}

	var txs []domain.QuotaTransaction
	if err := txq.Order("created_at DESC").Limit(limit).Find(&txs).Error; err != nil {
		return nil, err
	}
	var events []domain.BookingEvent
	if err := evq.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(txs)+len(events))
	for _, t := range txs {
		out = append(out, Entry{
			Source:       SourceLedger,
			ID:           t.TxID,
			OwnerID:      t.OwnerID,
			BookingID:    t.BookingID,
			ActorID:      t.ActorID,
			Kind:         string(t.Type),
			Summary:      t.Description,
			WeekdayDelta: t.WeekdayDelta,
			WeekendDelta: t.WeekendDelta,
			At:           t.CreatedAt,
		})
	}
	for _, e := range events {
		bid := e.BookingID
		entry := Entry{
			Source:    SourceBooking,
			ID:        e.EventID,
			OwnerID:   e.OwnerID,
			BookingID: &bid,
			ActorID:   e.ActorID,
			Kind:      e.EventType,
			Summary:   summarize(e),
			At:        e.CreatedAt,
		}
		if len(e.EventData) > 0 {
			entry.Data = json.RawMessage(e.EventData)
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func summarize(e domain.BookingEvent) string {
	var data map[string]interface{}
	if len(e.EventData) > 0 {
		if err := json.Unmarshal(e.EventData, &data); err != nil {
			log.Warn().Err(err).Str("event_id", e.EventID.String()).Msg("audit: undecodable event data")
		}
	}
	reason, _ := data["reason"].(string)

	switch e.EventType {
	case domain.EventCreated:
		return fmt.Sprintf("Booking requested for %v to %v", data["check_in"], data["check_out"])
	case domain.EventApproved:
		return "Booking approved"
	case domain.EventRejected:
		if notes, _ := data["notes"].(string); notes != "" {
			return "Booking rejected: " + notes
		}
		return "Booking rejected"
	case domain.EventCancelled:
		if reason != "" {
			return "Booking cancelled by owner: " + reason
		}
		return "Booking cancelled by owner"
	case domain.EventRevoked:
		return "Booking revoked by admin: " + reason
	case domain.EventDatesEdited:
		return fmt.Sprintf("Dates changed to %v to %v", data["new_check_in"], data["new_check_out"])
	}
	return e.EventType
}
