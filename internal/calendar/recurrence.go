package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"
)

// RecurrenceUnit is the repetition unit of a recurrence pattern.
type RecurrenceUnit byte

const (
	Once    RecurrenceUnit = 'T'
	Daily   RecurrenceUnit = 'D'
	Weekly  RecurrenceUnit = 'W'
	Monthly RecurrenceUnit = 'M'
	Yearly  RecurrenceUnit = 'Y'
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

// Recurrence is a repeating date pattern: every Interval units starting at
// Start, optionally until Finish, on day Day.
//
// Day means the day of the month for Monthly and Yearly patterns and the
// ISO weekday (1=Monday .. 7=Sunday) for Weekly patterns. Daily and Once
// patterns ignore it.
type Recurrence struct {
	Unit     RecurrenceUnit
	Start    core.Date
	Finish   core.Date // zero value means open-ended
	Interval int
	Day      int
}

// NewRecurrence creates a recurrence pattern. Interval values below 1 are
// normalized to 1 and Day defaults to 1.
func NewRecurrence(unit RecurrenceUnit, start core.Date, finish core.Date, interval, day int) Recurrence {
	if interval < 1 {
		interval = 1
	}
	if day < 1 {
		day = 1
	}
	return Recurrence{Unit: unit, Start: start, Finish: finish, Interval: interval, Day: day}
}

// OnDate creates a pattern matching a single date.
func OnDate(date core.Date) Recurrence {
	return NewRecurrence(Once, date, date, 1, 1)
}

// Matches reports whether the pattern fires on the given day. The calendar
// argument is reserved for workday-relative units and may be nil.
func (r Recurrence) Matches(d core.Date, _ *WorkCalendar) bool {
	if d.Before(r.Start) {
		return false
	}
	if !r.Finish.IsZero() && d.After(r.Finish) {
		return false
	}
	switch r.Unit {
	case Once:
		return d.Equal(r.Start)
	case Daily:
		return r.Start.DaysUntil(d)%r.Interval == 0
	case Weekly:
		if isoWeekday(d) != r.Day {
			return false
		}
		return (r.Start.DaysUntil(d)/7)%r.Interval == 0
	case Monthly:
		if d.Day() != clampDay(r.Day, d) {
			return false
		}
		months := (d.Year()-r.Start.Year())*12 + d.Month() - r.Start.Month()
		return months%r.Interval == 0
	case Yearly:
		if d.Month() != r.Start.Month() || d.Day() != clampDay(r.Day, d) {
			return false
		}
		return (d.Year()-r.Start.Year())%r.Interval == 0
	default:
		return false
	}
}

// clampDay pulls a target day of month back to the last day of d's month
// when the month is too short (e.g. day 31 in February).
func clampDay(day int, d core.Date) int {
	last := YearMonthOf(d).AtEndOfMonth().Day()
	if day > last {
		return last
	}
	return day
}

// isoWeekday returns the ISO weekday number: 1=Monday .. 7=Sunday.
func isoWeekday(d core.Date) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// String renders the compact form, e.g. "M2020-01-01(1)[7]2020-03-31" or
// "W2020-01-01(1)[1]". Single-date patterns render as "T(1)2020-03-05[1]".
func (r Recurrence) String() string {
	var b strings.Builder
	b.WriteByte(byte(r.Unit))
	if r.Unit == Once {
		fmt.Fprintf(&b, "(%d)%s[%d]", r.Interval, r.Start, r.Day)
		return b.String()
	}
	fmt.Fprintf(&b, "%s(%d)[%d]", r.Start, r.Interval, r.Day)
	if !r.Finish.IsZero() {
		b.WriteString(r.Finish.String())
	}
	return b.String()
}

// ParseRecurrence parses the compact form produced by String.
func ParseRecurrence(s string) (Recurrence, error) {
	if len(s) < 2 {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	unit := RecurrenceUnit(s[0])
	switch unit {
	case Once, Daily, Weekly, Monthly, Yearly:
	default:
		return Recurrence{}, fmt.Errorf("%w: unknown unit in %q", ErrInvalidRecurrence, s)
	}
	rest := s[1:]

	if unit == Once {
		// T(interval)date[day]
		interval, rest, err := parseBracketed(rest, '(', ')')
		if err != nil {
			return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
		}
		if len(rest) < dateLen {
			return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
		}
		start, err := core.ParseDate(rest[:dateLen])
		if err != nil {
			return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
		}
		day, rest, err := parseBracketed(rest[dateLen:], '[', ']')
		if err != nil || rest != "" {
			return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
		}
		return NewRecurrence(Once, start, start, interval, day), nil
	}

	// Udate(interval)[day]finish?
	if len(rest) < dateLen {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	start, err := core.ParseDate(rest[:dateLen])
	if err != nil {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	interval, rest, err := parseBracketed(rest[dateLen:], '(', ')')
	if err != nil {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	day, rest, err := parseBracketed(rest, '[', ']')
	if err != nil {
		return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	var finish core.Date
	if rest != "" {
		finish, err = core.ParseDate(rest)
		if err != nil {
			return Recurrence{}, fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
		}
	}
	return NewRecurrence(unit, start, finish, interval, day), nil
}

const dateLen = len("2006-01-02")

// parseBracketed consumes a leading "<open>number<close>" and returns the
// number and the remainder of the string.
func parseBracketed(s string, open, close byte) (int, string, error) {
	if len(s) == 0 || s[0] != open {
		return 0, "", ErrInvalidRecurrence
	}
	end := strings.IndexByte(s, close)
	if end < 0 {
		return 0, "", ErrInvalidRecurrence
	}
	n, err := strconv.Atoi(s[1:end])
	if err != nil {
		return 0, "", ErrInvalidRecurrence
	}
	return n, s[end+1:], nil
}
