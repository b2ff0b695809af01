package calendar

import "time"

// Calendar answers business-day questions for a market.
type Calendar interface {
	// NextBusinessDay returns the first business day strictly after t.
	NextBusinessDay(t time.Time) time.Time
	// PreviousBusinessDay returns the last business day strictly before t.
	PreviousBusinessDay(t time.Time) time.Time
}

// Weekend treats Saturdays, Sundays and the listed holidays as closed.
// Days are compared in UTC.
type Weekend struct {
	holidays map[time.Time]struct{}
}

func NewWeekend(holidays ...time.Time) *Weekend {
	w := &Weekend{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		w.holidays[day(h)] = struct{}{}
	}
	return w
}

func (w *Weekend) IsBusinessDay(t time.Time) bool {
	d := day(t)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, closed := w.holidays[d]
	return !closed
}

func (w *Weekend) NextBusinessDay(t time.Time) time.Time {
	d := day(t).AddDate(0, 0, 1)
	for !w.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (w *Weekend) PreviousBusinessDay(t time.Time) time.Time {
	d := day(t).AddDate(0, 0, -1)
	for !w.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// ShiftBusinessDays moves t by n business days, backwards when n is negative.
func ShiftBusinessDays(c Calendar, t time.Time, n int) time.Time {
	for ; n > 0; n-- {
		t = c.NextBusinessDay(t)
	}
	for ; n < 0; n++ {
		t = c.PreviousBusinessDay(t)
	}
	return t
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
