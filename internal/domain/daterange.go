package domain

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NormalizeDate drops the clock part of t, keeping its calendar date.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateRange is a half-open range of nights [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both ends and rejects empty or inverted ranges.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: NormalizeDate(start), End: NormalizeDate(end)}
	if !r.Start.Before(r.End) {
		return r, ErrInvalidDateRange
	}
	return r, nil
}

// Overlaps reports whether the two ranges share at least one night.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether night d lies inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = NormalizeDate(d)
	return !d.Before(r.Start) && d.Before(r.End)
}

// Nights returns the number of nights in the range, zero when inverted.
func (r DateRange) Nights() int {
	if !r.Start.Before(r.End) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Dates lists every night of the range in order.
func (r DateRange) Dates() []time.Time {
	out := make([]time.Time, 0, r.Nights())
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
