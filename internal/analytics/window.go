package analytics

import (
	"time"
)

const dayKeyLayout = "2006-01-02"

// Window is an inclusive [Start, End] range of whole local days. Start sits
// at 00:00:00.000 and End at 23:59:59.999.
type Window struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	RangeDays  int       `json:"rangeDays"`
	OffsetDays int       `json:"offsetDays"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Previous returns the window of equal length that ends the day before w
// starts.
func (w Window) Previous() Window {
	loc := w.Start.Location()
	y, m, d := w.Start.Date()
	return Window{
		Start:      time.Date(y, m, d-w.RangeDays, 0, 0, 0, 0, loc),
		End:        endOfDay(time.Date(y, m, d-1, 0, 0, 0, 0, loc)),
		RangeDays:  w.RangeDays,
		OffsetDays: w.OffsetDays + w.RangeDays,
	}
}

// Days returns the start of every calendar day in the window, oldest first.
func (w Window) Days() []time.Time {
	loc := w.Start.Location()
	y, m, d := w.Start.Date()
	days := make([]time.Time, 0, w.RangeDays)
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if day.After(w.End) {
			break
		}
		days = append(days, day)
	}
	return days
}

// DayKey formats t as the window-local calendar day it falls on.
func (w Window) DayKey(t time.Time) string {
	return t.In(w.Start.Location()).Format(dayKeyLayout)
}

// WindowCalculator turns (rangeDays, offsetDays) pairs into windows anchored
// at the current local day. Out of range input is clamped, never rejected.
type WindowCalculator struct {
	now       func() time.Time
	loc       *time.Location
	maxRange  int
	maxOffset int
}

// NewWindowCalculator creates a calculator with the given ceilings.
func NewWindowCalculator(now func() time.Time, loc *time.Location, maxRange, maxOffset int) WindowCalculator {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return WindowCalculator{now: now, loc: loc, maxRange: maxRange, maxOffset: maxOffset}
}

// WithMaxRange returns a copy of c with a tighter range ceiling.
func (c WindowCalculator) WithMaxRange(maxRange int) WindowCalculator {
	if maxRange > 0 && (c.maxRange <= 0 || maxRange < c.maxRange) {
		c.maxRange = maxRange
	}
	return c
}

// Calculate returns the window covering rangeDays inclusive days and ending
// offsetDays before today.
func (c WindowCalculator) Calculate(rangeDays, offsetDays int) Window {
	rangeDays = clamp(rangeDays, 1, c.maxRange)
	offsetDays = clamp(offsetDays, 0, c.maxOffset)

	y, m, d := c.now().In(c.loc).Date()
	return Window{
		Start:      time.Date(y, m, d-offsetDays-(rangeDays-1), 0, 0, 0, 0, c.loc),
		End:        endOfDay(time.Date(y, m, d-offsetDays, 0, 0, 0, 0, c.loc)),
		RangeDays:  rangeDays,
		OffsetDays: offsetDays,
	}
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}

// clamp bounds v to [lo, hi]; a non-positive hi means no upper bound.
func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}
