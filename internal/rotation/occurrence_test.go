package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ar/backend/internal/models"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestNextOccurrenceDaily(t *testing.T) {
	p := Pattern{Kind: models.PatternDaily, Hour: 9, Minute: 30}

	// Before today's fire time: fires today.
	got := NextOccurrence(at(2026, time.March, 10, 8, 0), p)
	require.Equal(t, at(2026, time.March, 10, 9, 30), got)

	// After today's fire time: fires tomorrow.
	got = NextOccurrence(at(2026, time.March, 10, 10, 0), p)
	require.Equal(t, at(2026, time.March, 11, 9, 30), got)

	// Exactly at the fire time: strictly after, so tomorrow. This is what
	// keeps a schedule from firing twice at the boundary instant.
	got = NextOccurrence(at(2026, time.March, 10, 9, 30), p)
	require.Equal(t, at(2026, time.March, 11, 9, 30), got)
}

func TestNextOccurrenceDailyMidnightRollover(t *testing.T) {
	p := Pattern{Kind: models.PatternDaily, Hour: 0, Minute: 0}
	// New Year's Eve rolls into the next year.
	got := NextOccurrence(at(2026, time.December, 31, 23, 59), p)
	require.Equal(t, at(2027, time.January, 1, 0, 0), got)
}

func TestNextOccurrenceWeekly(t *testing.T) {
	// 2026-03-10 is a Tuesday.
	now := at(2026, time.March, 10, 12, 0)

	// Friday (ISO 5) later this week.
	p := Pattern{Kind: models.PatternWeekly, DayOfWeek: 5, Hour: 9, Minute: 0}
	require.Equal(t, at(2026, time.March, 13, 9, 0), NextOccurrence(now, p))

	// Monday (ISO 1) already passed: next week.
	p.DayOfWeek = 1
	require.Equal(t, at(2026, time.March, 16, 9, 0), NextOccurrence(now, p))

	// Same day, earlier time: a full week ahead.
	p.DayOfWeek = 2
	require.Equal(t, at(2026, time.March, 17, 9, 0), NextOccurrence(now, p))

	// Same day, later time: today.
	p = Pattern{Kind: models.PatternWeekly, DayOfWeek: 2, Hour: 18, Minute: 0}
	require.Equal(t, at(2026, time.March, 10, 18, 0), NextOccurrence(now, p))
}

func TestNextOccurrenceWeeklySunday(t *testing.T) {
	// 2026-03-15 is a Sunday; ISO day 7 must map to it, not to day 0.
	now := at(2026, time.March, 15, 8, 0)
	p := Pattern{Kind: models.PatternWeekly, DayOfWeek: 7, Hour: 9, Minute: 0}
	require.Equal(t, at(2026, time.March, 15, 9, 0), NextOccurrence(now, p))
}

func TestNextOccurrenceMonthly(t *testing.T) {
	p := Pattern{Kind: models.PatternMonthly, DayOfMonth: 15, Hour: 6, Minute: 0}

	// Before the day this month.
	require.Equal(t, at(2026, time.March, 15, 6, 0),
		NextOccurrence(at(2026, time.March, 1, 0, 0), p))

	// After the day this month: next month.
	require.Equal(t, at(2026, time.April, 15, 6, 0),
		NextOccurrence(at(2026, time.March, 20, 0, 0), p))

	// December rolls into January.
	require.Equal(t, at(2027, time.January, 15, 6, 0),
		NextOccurrence(at(2026, time.December, 16, 0, 0), p))
}

func TestNextOccurrenceMonthlyClamp(t *testing.T) {
	p := Pattern{Kind: models.PatternMonthly, DayOfMonth: 31, Hour: 12, Minute: 0}

	// April has 30 days: day 31 clamps to the 30th.
	require.Equal(t, at(2026, time.April, 30, 12, 0),
		NextOccurrence(at(2026, time.April, 1, 0, 0), p))

	// Non-leap February clamps to the 28th.
	require.Equal(t, at(2026, time.February, 28, 12, 0),
		NextOccurrence(at(2026, time.February, 1, 0, 0), p))

	// Leap-year February clamps to the 29th.
	require.Equal(t, at(2028, time.February, 29, 12, 0),
		NextOccurrence(at(2028, time.February, 1, 0, 0), p))

	// Clamping must not skip the month: Jan 31 at noon, next fire is Feb 28,
	// not March (the AddDate normalization trap).
	require.Equal(t, at(2026, time.February, 28, 12, 0),
		NextOccurrence(at(2026, time.January, 31, 12, 0), p))
}

func TestNextOccurrenceFallback(t *testing.T) {
	now := at(2026, time.March, 10, 12, 0)

	// Random has no calendar placement: fixed delay from now.
	p := Pattern{Kind: models.PatternRandom}
	require.Equal(t, now.Add(5*time.Minute), NextOccurrence(now, p))

	// Unrecognized kinds degrade the same way instead of stalling.
	p = Pattern{Kind: models.PatternKind("bogus")}
	require.Equal(t, now.Add(5*time.Minute), NextOccurrence(now, p))
}

func TestNextOccurrenceNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, time.March, 10, 13, 0, 0, 0, loc) // 08:00 UTC
	p := Pattern{Kind: models.PatternDaily, Hour: 9, Minute: 0}
	require.Equal(t, at(2026, time.March, 10, 9, 0), NextOccurrence(now, p))
}
