package rotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-ar/backend/internal/models"
)

func TestValidatePattern(t *testing.T) {
	valid := []Pattern{
		{Kind: models.PatternDaily, Hour: 0, Minute: 0},
		{Kind: models.PatternDaily, Hour: 23, Minute: 59},
		{Kind: models.PatternWeekly, DayOfWeek: 1, Hour: 9, Minute: 30},
		{Kind: models.PatternWeekly, DayOfWeek: 7, Hour: 9, Minute: 30},
		{Kind: models.PatternMonthly, DayOfMonth: 1, Hour: 9, Minute: 30},
		{Kind: models.PatternMonthly, DayOfMonth: 31, Hour: 9, Minute: 30},
		{Kind: models.PatternRandom},
	}
	for _, p := range valid {
		require.NoError(t, ValidatePattern(p), "pattern %+v", p)
	}

	invalid := []Pattern{
		{Kind: models.PatternDaily, Hour: -1},
		{Kind: models.PatternDaily, Hour: 24},
		{Kind: models.PatternDaily, Minute: 60},
		{Kind: models.PatternWeekly, DayOfWeek: 0},
		{Kind: models.PatternWeekly, DayOfWeek: 8},
		{Kind: models.PatternMonthly, DayOfMonth: 0},
		{Kind: models.PatternMonthly, DayOfMonth: 32},
		{Kind: models.PatternUnknown},
		{Kind: models.PatternKind("yearly")},
	}
	for _, p := range invalid {
		err := ValidatePattern(p)
		require.ErrorIs(t, err, ErrInvalidSchedule, "pattern %+v", p)
	}
}

func TestPatternOf(t *testing.T) {
	dow, dom := 3, 15
	s := &models.RotationSchedule{
		Kind:       models.PatternWeekly,
		Hour:       8,
		Minute:     45,
		DayOfWeek:  &dow,
		DayOfMonth: &dom,
	}
	p := PatternOf(s)
	require.Equal(t, models.PatternWeekly, p.Kind)
	require.Equal(t, 8, p.Hour)
	require.Equal(t, 45, p.Minute)
	require.Equal(t, 3, p.DayOfWeek)
	require.Equal(t, 15, p.DayOfMonth)

	// Nil day fields default to zero, which validation rejects for the
	// kinds that need them.
	p = PatternOf(&models.RotationSchedule{Kind: models.PatternDaily, Hour: 1})
	require.Zero(t, p.DayOfWeek)
	require.Zero(t, p.DayOfMonth)
}
