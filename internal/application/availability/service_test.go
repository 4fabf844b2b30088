package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"cottage-ledger/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
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

func setupAvailabilityTest(t *testing.T) (*Service, *domain.Cottage) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Cottage{}, &domain.Booking{}, &domain.MaintenanceBlock{}, &domain.Holiday{}, &domain.PeakSeason{}))
	c := &domain.Cottage{PropertyID: uuid.New(), Code: "C-1", Capacity: 4, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	return &Service{DB: db}, c
}

func addBooking(t *testing.T, s *Service, cottageID uuid.UUID, in, out string, status domain.BookingStatus) *domain.Booking {
	b := &domain.Booking{OwnerID: uuid.New(), CottageID: cottageID, CheckIn: day(in), CheckOut: day(out), Status: status}
	require.NoError(t, s.DB.Create(b).Error)
	return b
}

func TestConflicts_BookingsByStatus(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	ctx := context.Background()
	pending := addBooking(t, s, c.CottageID, "2025-03-10", "2025-03-12", domain.BookingPending)
	addBooking(t, s, c.CottageID, "2025-03-12", "2025-03-14", domain.BookingRejected)
	addBooking(t, s, c.CottageID, "2025-03-12", "2025-03-14", domain.BookingCancelled)
	addBooking(t, s, uuid.New(), "2025-03-10", "2025-03-20", domain.BookingConfirmed)

	conflicts, err := s.Conflicts(ctx, c.CottageID, day("2025-03-11"), day("2025-03-13"))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, pending.BookingID, conflicts[0].ID)
	assert.Equal(t, domain.ConflictBooking, conflicts[0].Kind)

	ok, err := s.IsAvailable(ctx, c.CottageID, day("2025-03-12"), day("2025-03-14"))
	require.NoError(t, err)
	assert.True(t, ok, "check-out day of one stay is free for the next check-in")
}

func TestConflicts_Maintenance(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	ctx := context.Background()
	require.NoError(t, s.DB.Create(&domain.MaintenanceBlock{CottageID: c.CottageID, StartDate: day("2025-04-01"), EndDate: day("2025-04-03"), Reason: "roof"}).Error)

	ok, err := s.IsAvailable(ctx, c.CottageID, day("2025-04-03"), day("2025-04-05"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IsAvailable(ctx, c.CottageID, day("2025-04-04"), day("2025-04-05"))
	require.NoError(t, err)
	assert.True(t, ok)

	err = Check(s.DB, c.CottageID, domain.DateRange{Start: day("2025-03-30"), End: day("2025-04-02")}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCottageUnavailable))
	assert.Equal(t, "Cottage is under maintenance during the selected dates", err.Error())
}

func TestConflicts_ExcludeSelf(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	b := addBooking(t, s, c.CottageID, "2025-03-10", "2025-03-12", domain.BookingPending)
	r := domain.DateRange{Start: day("2025-03-11"), End: day("2025-03-13")}
	assert.Error(t, Check(s.DB, c.CottageID, r, nil))
	assert.NoError(t, Check(s.DB, c.CottageID, r, &b.BookingID))
}

func TestConflicts_InvalidRange(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	_, err := s.IsAvailable(context.Background(), c.CottageID, day("2025-03-10"), day("2025-03-10"))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestDays(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	addBooking(t, s, c.CottageID, "2025-03-11", "2025-03-12", domain.BookingConfirmed)
	require.NoError(t, s.DB.Create(&domain.MaintenanceBlock{CottageID: c.CottageID, StartDate: day("2025-03-13"), EndDate: day("2025-03-13"), Reason: "paint"}).Error)
	require.NoError(t, s.DB.Create(&domain.Holiday{Date: day("2025-03-14"), Name: "Holi"}).Error)

	days, err := s.Days(context.Background(), c.CottageID, day("2025-03-10"), day("2025-03-16"))
	require.NoError(t, err)
	require.Len(t, days, 6)

	assert.True(t, days[0].Available)
	assert.True(t, days[1].IsBooked)
	assert.Equal(t, "confirmed", days[1].BookingStatus)
	assert.True(t, days[3].IsMaintenance)
	assert.Equal(t, "paint", days[3].MaintenanceReason)
	assert.Equal(t, "Holi", days[4].Holiday)
	assert.True(t, days[4].WeekendPriced)
	assert.True(t, days[5].WeekendPriced)

	_, err = s.Days(context.Background(), uuid.New(), day("2025-03-10"), day("2025-03-11"))
	assert.ErrorIs(t, err, domain.ErrUnknownCottage)
}

func TestBlockBookings(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	inside := addBooking(t, s, c.CottageID, "2025-05-01", "2025-05-03", domain.BookingConfirmed)
	addBooking(t, s, c.CottageID, "2025-05-10", "2025-05-12", domain.BookingPending)
	addBooking(t, s, c.CottageID, "2025-05-02", "2025-05-04", domain.BookingRejected)
	block := &domain.MaintenanceBlock{CottageID: c.CottageID, StartDate: day("2025-05-02"), EndDate: day("2025-05-05")}
	require.NoError(t, s.DB.Create(block).Error)

	got, bookings, err := BlockBookings(s.DB, block.BlockID)
	require.NoError(t, err)
	assert.Equal(t, block.BlockID, got.BlockID)
	require.Len(t, bookings, 1)
	assert.Equal(t, inside.BookingID, bookings[0].BookingID)

	_, _, err = BlockBookings(s.DB, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnknownMaintenanceBlock)
}

func TestGrid(t *testing.T) {
	s, c := setupAvailabilityTest(t)
	ctx := context.Background()
	other := &domain.Cottage{PropertyID: uuid.New(), Code: "D-1", IsActive: true}
	require.NoError(t, s.DB.Create(other).Error)
	require.NoError(t, s.DB.Create(&domain.Cottage{PropertyID: c.PropertyID, Code: "Z-9", IsActive: false}).Error)

	confirmed := addBooking(t, s, c.CottageID, "2025-03-10", "2025-03-11", domain.BookingConfirmed)
	addBooking(t, s, c.CottageID, "2025-03-11", "2025-03-12", domain.BookingPending)
	addBooking(t, s, other.CottageID, "2025-03-10", "2025-03-12", domain.BookingCancelled)
	require.NoError(t, s.DB.Create(&domain.MaintenanceBlock{CottageID: other.CottageID, StartDate: day("2025-03-11"), EndDate: day("2025-03-11"), Reason: "roof"}).Error)

	cells, err := s.Grid(ctx, nil, day("2025-03-10"), day("2025-03-12"))
	require.NoError(t, err)
	require.Len(t, cells, 4)

	status := map[string]string{}
	for _, cell := range cells {
		status[cell.Date+"/"+cell.CottageCode] = cell.Status
	}
	assert.Equal(t, map[string]string{
		"2025-03-10/C-1": CellBooked,
		"2025-03-10/D-1": CellAvailable,
		"2025-03-11/C-1": CellPending,
		"2025-03-11/D-1": CellMaintenance,
	}, status)
	assert.Equal(t, "C-1", cells[0].CottageCode)
	require.NotNil(t, cells[0].BookingID)
	assert.Equal(t, confirmed.BookingID, *cells[0].BookingID)

	only, err := s.Grid(ctx, &other.PropertyID, day("2025-03-10"), day("2025-03-12"))
	require.NoError(t, err)
	require.Len(t, only, 2)
	assert.Equal(t, "D-1", only[0].CottageCode)

	_, err = s.Grid(ctx, nil, day("2025-03-12"), day("2025-03-12"))
	assert.True(t, errors.Is(err, domain.ErrInvalidDateRange))
}
