// Package availability answers whether a cottage is free for a range of nights.
package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"cottage-ledger/internal/application/calendar"
	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conflicts lists pending or confirmed bookings and maintenance blocks sharing
// a night with r. A non-nil exclude skips that booking.
// db may be a transaction handle.
func Conflicts(db *gorm.DB, cottageID uuid.UUID, r domain.DateRange, exclude *uuid.UUID) ([]domain.Conflict, error) {
	var bookings []domain.Booking
	q := db.Where("cottage_id = ? AND status IN ?", cottageID, domain.ActiveStatuses)
	if exclude != nil {
		q = q.Where("booking_id <> ?", *exclude)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	var blocks []domain.MaintenanceBlock
	if err := db.Where("cottage_id = ?", cottageID).Find(&blocks).Error; err != nil {
		return nil, err
	}

	out := []domain.Conflict{}
	for _, b := range bookings {
		if b.Range().Overlaps(r) {
			out = append(out, domain.Conflict{Kind: domain.ConflictBooking, ID: b.BookingID, Range: b.Range(), Status: string(b.Status)})
		}
	}
	for _, m := range blocks {
		if m.Range().Overlaps(r) {
			out = append(out, domain.Conflict{Kind: domain.ConflictMaintenance, ID: m.BlockID, Range: m.Range(), Reason: m.Reason})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

// Check returns *domain.UnavailableError when anything blocks r.
func Check(db *gorm.DB, cottageID uuid.UUID, r domain.DateRange, exclude *uuid.UUID) error {
	conflicts, err := Conflicts(db, cottageID, r, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &domain.UnavailableError{CottageID: cottageID, Conflicts: conflicts}
	}
	return nil
}

// RequireCottage fails with ErrUnknownCottage unless an active cottage exists.
func RequireCottage(db *gorm.DB, cottageID uuid.UUID) (*domain.Cottage, error) {
	var c domain.Cottage
	err := db.Where("cottage_id = ? AND is_active = ?", cottageID, true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnknownCottage
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type Service struct {
	DB *gorm.DB
}

func (s *Service) IsAvailable(ctx context.Context, cottageID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	conflicts, err := s.Conflicts(ctx, cottageID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

func (s *Service) Conflicts(ctx context.Context, cottageID uuid.UUID, checkIn, checkOut time.Time) ([]domain.Conflict, error) {
	r, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return Conflicts(s.DB.WithContext(ctx), cottageID, r, nil)
}

// Day describes one night of a cottage's calendar.
type Day struct {
	Date              string `json:"date"`
	Available         bool   `json:"available"`
	IsBooked          bool   `json:"is_booked"`
	BookingStatus     string `json:"booking_status,omitempty"`
	IsMaintenance     bool   `json:"is_maintenance"`
	MaintenanceReason string `json:"maintenance_reason,omitempty"`
	Holiday           string `json:"holiday,omitempty"`
	PeakSeason        string `json:"peak_season,omitempty"`
	WeekendPriced     bool   `json:"weekend_priced"`
}

// Days returns the per-night calendar for [from, to).
func (s *Service) Days(ctx context.Context, cottageID uuid.UUID, from, to time.Time) ([]Day, error) {
	r, err := domain.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	if _, err := RequireCottage(db, cottageID); err != nil {
		return nil, err
	}
	conflicts, err := Conflicts(db, cottageID, r, nil)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.Load(db, r)
	if err != nil {
		return nil, err
	}

	days := make([]Day, 0, r.Nights())
	for _, d := range r.Dates() {
		day := Day{Date: d.Format(domain.DateLayout), WeekendPriced: cal.Classify(d).WeekendPriced}
		day.Holiday, _ = cal.HolidayName(d)
		day.PeakSeason, _ = cal.PeakSeasonName(d)
		for _, c := range conflicts {
			if !c.Range.Contains(d) {
				continue
			}
			switch c.Kind {
			case domain.ConflictBooking:
				day.IsBooked = true
				day.BookingStatus = c.Status
			case domain.ConflictMaintenance:
				day.IsMaintenance = true
				day.MaintenanceReason = c.Reason
			}
		}
		day.Available = !day.IsBooked && !day.IsMaintenance
		days = append(days, day)
	}
	return days, nil
}

// BlockBookings loads a maintenance block and the active bookings it overlaps.
func BlockBookings(db *gorm.DB, blockID uuid.UUID) (*domain.MaintenanceBlock, []domain.Booking, error) {
	var block domain.MaintenanceBlock
	err := db.Where("block_id = ?", blockID).First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.ErrUnknownMaintenanceBlock
	}
	if err != nil {
		return nil, nil, err
	}
	var bookings []domain.Booking
	if err := db.Where("cottage_id = ? AND status IN ?", block.CottageID, domain.ActiveStatuses).
		Order("created_at ASC").
		Find(&bookings).Error; err != nil {
		return nil, nil, err
	}
	out := make([]domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Range().Overlaps(block.Range()) {
			out = append(out, b)
		}
	}
	return &block, out, nil
}

const (
	CellAvailable   = "available"
	CellPending     = "pending"
	CellBooked      = "booked"
	CellMaintenance = "maintenance"
)

// Cell is one cottage on one night of the inventory grid.
type Cell struct {
	Date        string     `json:"date"`
	CottageID   uuid.UUID  `json:"cottage_id"`
	CottageCode string     `json:"cottage_code"`
	PropertyID  uuid.UUID  `json:"property_id"`
	Status      string     `json:"status"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
}

// Grid returns every active cottage's status for each night in [from, to),
// ordered by date then cottage code. Maintenance wins over a booking.
// A nil propertyID covers all properties.
func (s *Service) Grid(ctx context.Context, propertyID *uuid.UUID, from, to time.Time) ([]Cell, error) {
	r, err := domain.NewDateRange(from, to)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	cq := db.Where("is_active = ?", true)
	if propertyID != nil {
		cq = cq.Where("property_id = ?", *propertyID)
	}
	var cottages []domain.Cottage
	if err := cq.Order("code ASC").Find(&cottages).Error; err != nil {
		return nil, err
	}
	if len(cottages) == 0 {
		return []Cell{}, nil
	}
	ids := make([]uuid.UUID, len(cottages))
	for i, c := range cottages {
		ids[i] = c.CottageID
	}

	var bookings []domain.Booking
	if err := db.Where("cottage_id IN ? AND status IN ?", ids, domain.ActiveStatuses).Find(&bookings).Error; err != nil {
		return nil, err
	}
	var blocks []domain.MaintenanceBlock
	if err := db.Where("cottage_id IN ?", ids).Find(&blocks).Error; err != nil {
		return nil, err
	}
	byCottage := make(map[uuid.UUID][]domain.Booking)
	for _, b := range bookings {
		if b.Range().Overlaps(r) {
			byCottage[b.CottageID] = append(byCottage[b.CottageID], b)
		}
	}
	blocksByCottage := make(map[uuid.UUID][]domain.MaintenanceBlock)
	for _, m := range blocks {
		if m.Range().Overlaps(r) {
			blocksByCottage[m.CottageID] = append(blocksByCottage[m.CottageID], m)
		}
	}

	out := make([]Cell, 0, r.Nights()*len(cottages))
	for _, d := range r.Dates() {
		date := d.Format(domain.DateLayout)
		for _, c := range cottages {
			cell := Cell{Date: date, CottageID: c.CottageID, CottageCode: c.Code, PropertyID: c.PropertyID, Status: CellAvailable}
			for _, b := range byCottage[c.CottageID] {
				if !b.Range().Contains(d) {
					continue
				}
				id := b.BookingID
				cell.BookingID = &id
				cell.Status = CellPending
				if b.Status == domain.BookingConfirmed {
					cell.Status = CellBooked
				}
			}
			for _, m := range blocksByCottage[c.CottageID] {
				if m.Range().Contains(d) {
					cell.Status = CellMaintenance
				}
			}
			out = append(out, cell)
		}
	}
	return out, nil
}
