package bookings

import (
	"context"

	"cottage-ledger/internal/application/calendar"
	"cottage-ledger/internal/application/pricing"
	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
)

// Get returns a booking visible to actor. Owners only see their own.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID, actor Actor) (*domain.Booking, error) {
	b, err := findBooking(s.DB.WithContext(ctx), bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.OwnerID != actor.ID {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// ListForOwner returns the owner's bookings newest stay first, optionally filtered by status.
func (s *Service) ListForOwner(ctx context.Context, ownerID uuid.UUID, status *domain.BookingStatus) ([]domain.Booking, error) {
	q := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.Booking
	if err := q.Order("check_in DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ApprovalQueue lists pending bookings oldest request first.
func (s *Service) ApprovalQueue(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := s.DB.WithContext(ctx).
		Where("status = ?", domain.BookingPending).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Events returns a booking's recorded transitions in order.
func (s *Service) Events(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingEvent, error) {
	if _, err := findBooking(s.DB.WithContext(ctx), bookingID); err != nil {
		return nil, err
	}
	var out []domain.BookingEvent
	if err := s.DB.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type Receipt struct {
	BookingID      uuid.UUID            `json:"booking_id"`
	Status         domain.BookingStatus `json:"status"`
	CottageID      uuid.UUID            `json:"cottage_id"`
	CottageCode    string               `json:"cottage_code"`
	GuestRules     string               `json:"guest_rules,omitempty"`
	CheckIn        string               `json:"check_in"`
	CheckOut       string               `json:"check_out"`
	Nights         int                  `json:"nights"`
	WeekdayCredits int                  `json:"weekday_credits"`
	WeekendCredits int                  `json:"weekend_credits"`
	TotalCredits   int                  `json:"total_credits"`
	Detail         []pricing.Night      `json:"detail"`
}

// Receipt summarises a booking. Credit totals are the ones frozen at
// reservation; Detail shows how the current calendar classifies each night.
func (s *Service) Receipt(ctx context.Context, bookingID uuid.UUID, actor Actor) (*Receipt, error) {
	b, err := s.Get(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	_, cottage, err := contact(db, b)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.Load(db, b.Range())
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Price(cal, b.CottageID, b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, err
	}

	r := &Receipt{
		BookingID:      b.BookingID,
		Status:         b.Status,
		CottageID:      b.CottageID,
		CheckIn:        quote.CheckIn,
		CheckOut:       quote.CheckOut,
		Nights:         quote.Nights,
		WeekdayCredits: b.WeekdayCreditsUsed,
		WeekendCredits: b.WeekendCreditsUsed,
		TotalCredits:   b.TotalCredits(),
		Detail:         quote.Detail,
	}
	if cottage != nil {
		r.CottageCode = cottage.Code
		if cottage.GuestRules != nil {
			r.GuestRules = *cottage.GuestRules
		}
	}
	return r, nil
}

// Summary is a booking with the names an admin needs to read a listing.
type Summary struct {
	domain.Booking
	CottageCode string `json:"cottage_code"`
	OwnerName   string `json:"owner_name"`
}

// ListByStatus returns bookings across all owners and cottages in any of
// statuses. newestFirst orders by created_at DESC, otherwise by check_in ASC.
func (s *Service) ListByStatus(ctx context.Context, statuses []domain.BookingStatus, newestFirst bool) ([]Summary, error) {
	if len(statuses) == 0 {
		return []Summary{}, nil
	}
	db := s.DB.WithContext(ctx)
	order := "check_in ASC"
	if newestFirst {
		order = "created_at DESC"
	}
	var list []domain.Booking
	if err := db.Where("status IN ?", statuses).Order(order).Find(&list).Error; err != nil {
		return nil, err
	}

	cottageIDs := make([]uuid.UUID, 0, len(list))
	ownerIDs := make([]uuid.UUID, 0, len(list))
	for _, b := range list {
		cottageIDs = append(cottageIDs, b.CottageID)
		ownerIDs = append(ownerIDs, b.OwnerID)
	}
	codes := map[uuid.UUID]string{}
	names := map[uuid.UUID]string{}
	if len(list) > 0 {
		var cottages []domain.Cottage
		if err := db.Where("cottage_id IN ?", cottageIDs).Find(&cottages).Error; err != nil {
			return nil, err
		}
		for _, c := range cottages {
			codes[c.CottageID] = c.Code
		}
		var owners []domain.OwnerAccount
		if err := db.Unscoped().Where("owner_id IN ?", ownerIDs).Find(&owners).Error; err != nil {
			return nil, err
		}
		for _, o := range owners {
			names[o.OwnerID] = o.FullName
		}
	}

	out := make([]Summary, len(list))
	for i, b := range list {
		out[i] = Summary{Booking: b, CottageCode: codes[b.CottageID], OwnerName: names[b.OwnerID]}
	}
	return out, nil
}
