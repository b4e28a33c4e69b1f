package rotation

import (
	"time"

	"github.com/lumen-ar/backend/internal/models"
)

// fallbackDelay is used for random and unrecognized pattern kinds so the
// driver never stalls on a schedule it cannot place on the calendar.
const fallbackDelay = 5 * time.Minute

// NextOccurrence returns the next instant strictly after now at which the
// pattern fires. All computation is in UTC; a fire never re-triggers at the
// exact boundary because every comparison is a strict "after".
func NextOccurrence(now time.Time, p Pattern) time.Time {
	now = now.UTC()
	switch p.Kind {
	case models.PatternDaily:
		return nextDaily(now, p.Hour, p.Minute)
	case models.PatternWeekly:
		return nextWeekly(now, p.DayOfWeek, p.Hour, p.Minute)
	case models.PatternMonthly:
		return nextMonthly(now, p.DayOfMonth, p.Hour, p.Minute)
	default:
		return now.Add(fallbackDelay)
	}
}

func nextDaily(now time.Time, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func nextWeekly(now time.Time, dayOfWeek, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	offset := (dayOfWeek - isoWeekday(now) + 7) % 7
	t = t.AddDate(0, 0, offset)
	if !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// nextMonthly clamps dayOfMonth to the target month's length, so day 31
// lands on the last day of shorter months and Feb 29 resolves per leap year.
func nextMonthly(now time.Time, dayOfMonth, hour, minute int) time.Time {
	year, month := now.Year(), now.Month()
	for i := 0; i <= 12; i++ {
		day := dayOfMonth
		if last := daysIn(year, month); day > last {
			day = last
		}
		t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
		if t.After(now) {
			return t
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return now.Add(fallbackDelay)
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO numbering (Monday=1..Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
