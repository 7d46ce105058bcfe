package menu

import "time"

// Date identifies a single calendar day, independent of time-of-day and
// usable as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight of the date in the local time zone.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

// Weekday returns the day of the week the date falls on.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Format renders the date as DD.MM.YYYY, the format used on the menu page
// and in user-facing messages.
func (d Date) Format() string {
	return d.Time().Format("02.01.2006")
}

// Row is a single dish offered at a named counter.
type Row struct {
	Counter     string
	Dish        string
	Description string
}

// DailyMenu holds all rows published for one date, in page order.
// It is never mutated after construction.
type DailyMenu struct {
	Date Date
	Rows []Row
}
