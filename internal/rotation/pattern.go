package rotation

import (
	"fmt"

	"github.com/lumen-ar/backend/internal/models"
)

// Pattern describes when a rotation schedule fires. Hour and Minute are the
// UTC time of day; DayOfWeek (ISO, 1=Monday) applies to weekly patterns and
// DayOfMonth to monthly ones.
type Pattern struct {
	Kind       models.PatternKind
	Hour       int
	Minute     int
	DayOfWeek  int
	DayOfMonth int
}

// PatternOf extracts the pattern descriptor from a schedule row.
func PatternOf(s *models.RotationSchedule) Pattern {
	p := Pattern{Kind: s.Kind, Hour: s.Hour, Minute: s.Minute}
	if s.DayOfWeek != nil {
		p.DayOfWeek = *s.DayOfWeek
	}
	if s.DayOfMonth != nil {
		p.DayOfMonth = *s.DayOfMonth
	}
	return p
}

// ValidatePattern checks pattern parameters. Called when a schedule is
// created or updated; the driver assumes persisted patterns already passed.
func ValidatePattern(p Pattern) error {
	if p.Hour < 0 || p.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidSchedule, p.Hour)
	}
	if p.Minute < 0 || p.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidSchedule, p.Minute)
	}
	switch p.Kind {
	case models.PatternDaily, models.PatternRandom:
	case models.PatternWeekly:
		if p.DayOfWeek < 1 || p.DayOfWeek > 7 {
			return fmt.Errorf("%w: day of week %d out of range", ErrInvalidSchedule, p.DayOfWeek)
		}
	case models.PatternMonthly:
		if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month %d out of range", ErrInvalidSchedule, p.DayOfMonth)
		}
	default:
		return fmt.Errorf("%w: unknown pattern kind %q", ErrInvalidSchedule, p.Kind)
	}
	return nil
}
