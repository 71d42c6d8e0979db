package calendar

import (
	"fmt"
	"time"

	"budget/internal/core"
)

// YearMonth is a specific month of a specific year, used by rule formulas
// for month-relative date arithmetic.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing d.
func YearMonthOf(d core.Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Time.Month()}
}

// AtDay returns the given day of this month. Days past the end of the
// month are clamped to the last day.
func (ym YearMonth) AtDay(day int) core.Date {
	last := ym.AtEndOfMonth().Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return core.NewDate(ym.Year, int(ym.Month), day)
}

// AtEndOfMonth returns the last day of this month.
func (ym YearMonth) AtEndOfMonth() core.Date {
	// day 0 of the next month
	return core.Date{Time: time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC)}
}

// AddMonths returns the month n months later (earlier for negative n).
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Prev returns the previous month.
func (ym YearMonth) Prev() YearMonth {
	return ym.AddMonths(-1)
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	return ym.AddMonths(1)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
