// Package calendar provides the work calendar and recurrence patterns the
// budget projection consumes: workday counting over a validity range,
// month arithmetic for rule formulas, and the recurring-date predicates.
package calendar

import (
	"fmt"
	"time"

	"budget/internal/core"
)

// WorkCalendar is a production calendar over a fixed validity range.
// Saturdays, Sundays and the configured holidays are non-working days;
// extra working days (shifted weekends) override that.
type WorkCalendar struct {
	from     core.Date
	to       core.Date
	holidays map[core.Date]struct{}
	workdays map[core.Date]struct{}
}

// NewWorkCalendar creates a calendar valid on [from, to].
func NewWorkCalendar(from, to core.Date, holidays ...core.Date) (*WorkCalendar, error) {
	if from.After(to) {
		return nil, fmt.Errorf("calendar range %s..%s: from is after to", from, to)
	}
	c := &WorkCalendar{
		from:     from,
		to:       to,
		holidays: make(map[core.Date]struct{}, len(holidays)),
		workdays: make(map[core.Date]struct{}),
	}
	for _, d := range holidays {
		c.holidays[d] = struct{}{}
	}
	return c, nil
}

// AddWorkday marks a date as a working day even if it falls on a weekend.
func (c *WorkCalendar) AddWorkday(d core.Date) {
	c.workdays[d] = struct{}{}
}

// From returns the first day the calendar is valid for.
func (c *WorkCalendar) From() core.Date {
	return c.from
}

// To returns the last day the calendar is valid for.
func (c *WorkCalendar) To() core.Date {
	return c.to
}

// Covers reports whether the calendar's validity range contains [start, finish].
func (c *WorkCalendar) Covers(start, finish core.Date) bool {
	return !c.from.After(start) && !c.to.Before(finish)
}

// IsWorkday reports whether d is a working day.
func (c *WorkCalendar) IsWorkday(d core.Date) bool {
	if _, ok := c.workdays[d]; ok {
		return true
	}
	if _, ok := c.holidays[d]; ok {
		return false
	}
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkdaysBetween counts the working days in [from, to] inclusive.
// Returns 0 when from is after to.
func (c *WorkCalendar) WorkdaysBetween(from, to core.Date) int {
	n := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if c.IsWorkday(d) {
			n++
		}
	}
	return n
}
