/*
Package dates provides the calendar-date abstraction used across the engine.

PURPOSE:
  Every rule in this system is defined over whole days: reporting periods
  span dates, profit/loss accounts are effective between dates, and the
  amendable window is decided against "today." A dedicated Date type keeps
  time-of-day and timezone noise out of those comparisons.

DESIGN PRINCIPLES:
  1. Day granularity only: hours/minutes are always truncated
  2. UTC everywhere: a date is the same date on every machine
  3. Explicit "today": engine code takes a Date parameter, it never calls
     time.Now() itself (only the HTTP layer does)

SEE ALSO:
  - hours/window.go: period bucketing over explicit today
  - projects/account.go: effective-dated account resolution
*/
package dates

import "time"

// Layout is the wire and storage format for dates.
const Layout = "2006-01-02"

// Date is a calendar date with day granularity, always UTC.
type Date struct {
	t time.Time
}

// New constructs a Date from year, month, day.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Of truncates a time.Time to its calendar date.
func Of(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date.
// Engine code should receive a Date instead of calling this.
func Today() Date {
	return Of(time.Now().UTC())
}

// Parse reads a date in 2006-01-02 form.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, err
	}
	return Of(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Of(d.t.AddDate(0, 0, n)) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

// Time returns the date as a time.Time at midnight UTC.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(Layout) }
