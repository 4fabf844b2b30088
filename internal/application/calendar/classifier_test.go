package calendar

import (
	"context"
	"testing"
	"time"

	"cottage-ledger/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassify_PlainWeek(t *testing.T) {
	var c *Calendar
	// 2025-03-10 is a Monday
	assert.Equal(t, ReasonWeekday, c.Classify(day("2025-03-10")).Reason)
	assert.False(t, c.Classify(day("2025-03-14")).WeekendPriced)
	assert.Equal(t, ReasonWeekend, c.Classify(day("2025-03-15")).Reason)
	assert.True(t, c.Classify(day("2025-03-16")).WeekendPriced)
}

func TestClassify_PriorityOrder(t *testing.T) {
	c := New(
		[]domain.Holiday{{Date: day("2025-12-25"), Name: "Christmas"}, {Date: day("2025-08-15"), Name: "Independence Day"}},
		[]domain.PeakSeason{{Name: "Winter", StartDate: day("2025-12-20"), EndDate: day("2026-01-05")}},
	)

	xmas := c.Classify(day("2025-12-25"))
	assert.True(t, xmas.WeekendPriced)
	assert.Equal(t, ReasonPeakSeason, xmas.Reason)
	assert.Equal(t, "Winter", xmas.Label)

	// Friday holiday outside any season
	ind := c.Classify(day("2025-08-15"))
	assert.Equal(t, ReasonHoliday, ind.Reason)
	assert.Equal(t, "Independence Day", ind.Label)

	// Saturday inside the season is reported once, as peak season
	sat := c.Classify(day("2025-12-27"))
	assert.True(t, sat.WeekendPriced)
	assert.Equal(t, ReasonPeakSeason, sat.Reason)

	assert.Equal(t, ReasonPeakSeason, c.Classify(day("2026-01-05")).Reason)
	assert.Equal(t, ReasonWeekday, c.Classify(day("2026-01-06")).Reason)
}

func TestClassify_IgnoresClock(t *testing.T) {
	c := New([]domain.Holiday{{Date: day("2025-01-01"), Name: "New Year"}}, nil)
	got := c.Classify(time.Date(2025, 1, 1, 18, 45, 0, 0, time.UTC))
	assert.Equal(t, ReasonHoliday, got.Reason)
}

func TestLoad_FiltersToRange(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Holiday{}, &domain.PeakSeason{}))
	require.NoError(t, db.Create(&[]domain.Holiday{
		{Date: day("2025-03-12"), Name: "Holi"},
		{Date: day("2025-10-20"), Name: "Diwali"},
	}).Error)
	require.NoError(t, db.Create(&[]domain.PeakSeason{
		{Name: "Spring", StartDate: day("2025-03-01"), EndDate: day("2025-03-10")},
		{Name: "Summer", StartDate: day("2025-05-01"), EndDate: day("2025-06-30")},
	}).Error)

	r := domain.DateRange{Start: day("2025-03-10"), End: day("2025-03-14")}
	cal, err := Load(db, r)
	require.NoError(t, err)

	assert.Equal(t, ReasonPeakSeason, cal.Classify(day("2025-03-10")).Reason)
	assert.Equal(t, ReasonWeekday, cal.Classify(day("2025-03-11")).Reason)
	assert.Equal(t, ReasonHoliday, cal.Classify(day("2025-03-12")).Reason)
	_, ok := cal.HolidayName(day("2025-10-20"))
	assert.False(t, ok)

	svc := &Service{DB: db}
	hs, err := svc.Holidays(context.Background(), 2025)
	require.NoError(t, err)
	assert.Len(t, hs, 2)
	ps, err := svc.PeakSeasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Spring", ps[0].Name)
}
