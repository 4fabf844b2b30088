// Package calendar decides whether a night is priced as a weekday or a weekend.
package calendar

import (
	"context"
	"time"

	"cottage-ledger/internal/domain"

	"gorm.io/gorm"
)

// Reason names the rule that priced a night.
type Reason string

const (
	ReasonPeakSeason Reason = "peak_season"
	ReasonHoliday    Reason = "holiday"
	ReasonWeekend    Reason = "weekend"
	ReasonWeekday    Reason = "weekday"
)

type Classification struct {
	Date          time.Time `json:"date"`
	WeekendPriced bool      `json:"weekend_priced"`
	Reason        Reason    `json:"reason"`
	Label         string    `json:"label,omitempty"`
}

// Calendar is a snapshot of the holiday and peak-season tables.
// The zero value and a nil *Calendar classify by day of week only.
type Calendar struct {
	holidays map[string]string
	peaks    []domain.PeakSeason
}

func New(holidays []domain.Holiday, peaks []domain.PeakSeason) *Calendar {
	c := &Calendar{holidays: make(map[string]string, len(holidays)), peaks: peaks}
	for _, h := range holidays {
		c.holidays[dateKey(h.Date)] = h.Name
	}
	return c
}

// Classify applies, first match wins: peak season, holiday, Saturday/Sunday, weekday.
func (c *Calendar) Classify(d time.Time) Classification {
	d = domain.NormalizeDate(d)
	if c != nil {
		for _, p := range c.peaks {
			if p.Covers(d) {
				return Classification{Date: d, WeekendPriced: true, Reason: ReasonPeakSeason, Label: p.Name}
			}
		}
		if name, ok := c.holidays[dateKey(d)]; ok {
			return Classification{Date: d, WeekendPriced: true, Reason: ReasonHoliday, Label: name}
		}
	}
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return Classification{Date: d, WeekendPriced: true, Reason: ReasonWeekend}
	}
	return Classification{Date: d, WeekendPriced: false, Reason: ReasonWeekday}
}

// HolidayName returns the configured holiday on d, if any, ignoring peak seasons.
func (c *Calendar) HolidayName(d time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	name, ok := c.holidays[dateKey(d)]
	return name, ok
}

// PeakSeasonName returns the first peak season covering d, if any.
func (c *Calendar) PeakSeasonName(d time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, p := range c.peaks {
		if p.Covers(d) {
			return p.Name, true
		}
	}
	return "", false
}

func dateKey(d time.Time) string {
	return domain.NormalizeDate(d).Format(domain.DateLayout)
}

// Load reads the reference rows that can affect nights in r.
// db may be a transaction handle.
func Load(db *gorm.DB, r domain.DateRange) (*Calendar, error) {
	var holidays []domain.Holiday
	if err := db.Order("date ASC").Find(&holidays).Error; err != nil {
		return nil, err
	}
	var peaks []domain.PeakSeason
	if err := db.Order("start_date ASC").Find(&peaks).Error; err != nil {
		return nil, err
	}

	keptHolidays := holidays[:0]
	for _, h := range holidays {
		if r.Contains(h.Date) {
			keptHolidays = append(keptHolidays, h)
		}
	}
	keptPeaks := peaks[:0]
	for _, p := range peaks {
		season := domain.DateRange{Start: domain.NormalizeDate(p.StartDate), End: domain.NormalizeDate(p.EndDate).AddDate(0, 0, 1)}
		if season.Overlaps(r) {
			keptPeaks = append(keptPeaks, p)
		}
	}
	return New(keptHolidays, keptPeaks), nil
}

// Service exposes the reference tables to handlers.
type Service struct {
	DB *gorm.DB
}

func (s *Service) Calendar(ctx context.Context, r domain.DateRange) (*Calendar, error) {
	return Load(s.DB.WithContext(ctx), r)
}

func (s *Service) Holidays(ctx context.Context, year int) ([]domain.Holiday, error) {
	var out []domain.Holiday
	if err := s.DB.WithContext(ctx).Order("date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	if year == 0 {
		return out, nil
	}
	filtered := make([]domain.Holiday, 0, len(out))
	for _, h := range out {
		if h.Date.Year() == year {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

func (s *Service) PeakSeasons(ctx context.Context) ([]domain.PeakSeason, error) {
	var out []domain.PeakSeason
	if err := s.DB.WithContext(ctx).Order("start_date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
