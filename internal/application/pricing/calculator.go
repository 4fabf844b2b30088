// Package pricing turns a stay into weekday and weekend credit costs.
package pricing

import (
	"context"
	"time"

	"cottage-ledger/internal/application/calendar"
	"cottage-ledger/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Breakdown struct {
	Weekdays       int `json:"weekdays"`
	Weekends       int `json:"weekends"`
	Holidays       int `json:"holidays"`
	PeakSeasonDays int `json:"peak_season_days"`
}

type Night struct {
	Date          string          `json:"date"`
	WeekendPriced bool            `json:"weekend_priced"`
	Reason        calendar.Reason `json:"reason"`
	Label         string          `json:"label,omitempty"`
}

type Quote struct {
	CottageID      uuid.UUID `json:"cottage_id"`
	CheckIn        string    `json:"check_in"`
	CheckOut       string    `json:"check_out"`
	Nights         int       `json:"nights"`
	WeekdayCredits int       `json:"weekday_credits"`
	WeekendCredits int       `json:"weekend_credits"`
	TotalCredits   int       `json:"total_credits"`
	Breakdown      Breakdown `json:"breakdown"`
	Detail         []Night   `json:"detail"`
}

// Price charges one credit per night in [checkIn, checkOut).
// An empty or inverted range yields a zero quote and ErrInvalidDateRange.
func Price(cal *calendar.Calendar, cottageID uuid.UUID, checkIn, checkOut time.Time) (Quote, error) {
	q := Quote{
		CottageID: cottageID,
		CheckIn:   domain.NormalizeDate(checkIn).Format(domain.DateLayout),
		CheckOut:  domain.NormalizeDate(checkOut).Format(domain.DateLayout),
		Detail:    []Night{},
	}
	r, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return q, err
	}
	for _, d := range r.Dates() {
		c := cal.Classify(d)
		q.Detail = append(q.Detail, Night{
			Date:          d.Format(domain.DateLayout),
			WeekendPriced: c.WeekendPriced,
			Reason:        c.Reason,
			Label:         c.Label,
		})
		if c.WeekendPriced {
			q.WeekendCredits++
		} else {
			q.WeekdayCredits++
		}
		if c.Reason == calendar.ReasonPeakSeason {
			q.Breakdown.PeakSeasonDays++
		}
		// holidays are counted even when a peak season priced the night
		if _, ok := cal.HolidayName(d); ok {
			q.Breakdown.Holidays++
		}
	}
	q.Nights = r.Nights()
	q.TotalCredits = q.WeekdayCredits + q.WeekendCredits
	q.Breakdown.Weekdays = q.WeekdayCredits
	q.Breakdown.Weekends = q.WeekendCredits
	return q, nil
}

// PriceWith loads the calendar through db, which may be a transaction.
func PriceWith(db *gorm.DB, cottageID uuid.UUID, checkIn, checkOut time.Time) (Quote, error) {
	r, err := domain.NewDateRange(checkIn, checkOut)
	if err != nil {
		return Price(nil, cottageID, checkIn, checkOut)
	}
	cal, err := calendar.Load(db, r)
	if err != nil {
		return Quote{}, err
	}
	return Price(cal, cottageID, checkIn, checkOut)
}

type Service struct {
	DB *gorm.DB
}

func (s *Service) Price(ctx context.Context, cottageID uuid.UUID, checkIn, checkOut time.Time) (Quote, error) {
	return PriceWith(s.DB.WithContext(ctx), cottageID, checkIn, checkOut)
}
