package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cottage is read from the property registry; only existence and property matter here.
type Cottage struct {
	CottageID  uuid.UUID `gorm:"column:cottage_id;type:uuid;primaryKey" json:"cottage_id"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	Code       string    `gorm:"column:code;type:varchar(50)" json:"code"`
	Capacity   int       `gorm:"column:capacity" json:"capacity"`
	GuestRules *string   `gorm:"column:guest_rules;type:text" json:"guest_rules"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Cottage) TableName() string {
	return "cottages"
}

func (c *Cottage) BeforeCreate(tx *gorm.DB) error {
	if c.CottageID == uuid.Nil {
		c.CottageID = uuid.New()
	}
	return nil
}

type Holiday struct {
	HolidayID uuid.UUID `gorm:"column:holiday_id;type:uuid;primaryKey" json:"holiday_id"`
	Date      time.Time `gorm:"column:date;type:date;not null;uniqueIndex" json:"date"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
}

func (Holiday) TableName() string {
	return "holidays"
}

func (h *Holiday) BeforeCreate(tx *gorm.DB) error {
	if h.HolidayID == uuid.Nil {
		h.HolidayID = uuid.New()
	}
	return nil
}

// PeakSeason covers StartDate through EndDate, both inclusive.
type PeakSeason struct {
	PeakSeasonID uuid.UUID `gorm:"column:peak_season_id;type:uuid;primaryKey" json:"peak_season_id"`
	Name         string    `gorm:"column:name;type:varchar(255)" json:"name"`
	StartDate    time.Time `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate      time.Time `gorm:"column:end_date;type:date;not null" json:"end_date"`
}

func (PeakSeason) TableName() string {
	return "peak_seasons"
}

func (p *PeakSeason) BeforeCreate(tx *gorm.DB) error {
	if p.PeakSeasonID == uuid.Nil {
		p.PeakSeasonID = uuid.New()
	}
	return nil
}

func (p PeakSeason) Covers(d time.Time) bool {
	d = NormalizeDate(d)
	return !d.Before(NormalizeDate(p.StartDate)) && !d.After(NormalizeDate(p.EndDate))
}

// MaintenanceBlock closes a cottage from StartDate through EndDate, both inclusive.
type MaintenanceBlock struct {
	BlockID   uuid.UUID `gorm:"column:block_id;type:uuid;primaryKey" json:"block_id"`
	CottageID uuid.UUID `gorm:"column:cottage_id;type:uuid;not null;index" json:"cottage_id"`
	StartDate time.Time `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;type:date;not null" json:"end_date"`
	Reason    string    `gorm:"column:reason;type:text" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (MaintenanceBlock) TableName() string {
	return "maintenance_blocks"
}

func (m *MaintenanceBlock) BeforeCreate(tx *gorm.DB) error {
	if m.BlockID == uuid.Nil {
		m.BlockID = uuid.New()
	}
	return nil
}

// Range converts the inclusive block into blocked nights.
func (m MaintenanceBlock) Range() DateRange {
	return DateRange{Start: NormalizeDate(m.StartDate), End: NormalizeDate(m.EndDate).AddDate(0, 0, 1)}
}
