package horoscope

import (
	"fmt"
	"time"
)

// PeriodKey maps a reference date to the calendar-bucket identifier that
// distinguishes cache rows within a period: YYYY-MM-DD for daily, YYYY-Www
// (ISO 8601 week) for weekly, YYYY-MM for monthly and YYYY for yearly.
// All bucketing uses the calendar of date's own location.
func PeriodKey(period Period, date time.Time) string {
	switch period {
	case Weekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Monthly:
		return date.Format("2006-01")
	case Yearly:
		return date.Format("2006")
	default:
		return date.Format("2006-01-02")
	}
}

// ValidUntil computes the exclusive expiry boundary for content generated
// against the given reference date. Boundaries are anchored to local
// midnight so an entry stays valid for the remainder of its calendar
// day, week, month or year no matter when during the bucket it was
// generated.
//
// The weekly boundary is the start of the next Sunday strictly after the
// date; it is deliberately independent of the ISO (Monday-based) week
// used by PeriodKey.
func ValidUntil(period Period, date time.Time) time.Time {
	year, month, day := date.Date()
	loc := date.Location()

	switch period {
	case Weekly:
		days := (7 - int(date.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		return time.Date(year, month, day+days, 0, 0, 0, 0, loc)
	case Monthly:
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	}
}
