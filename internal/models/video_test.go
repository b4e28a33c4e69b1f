package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVideoInWindow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	v := Video{}
	require.False(t, v.InWindow(now), "no window set means no window")

	v = Video{ScheduleStart: &before, ScheduleEnd: &after}
	require.True(t, v.InWindow(now))

	v = Video{ScheduleStart: &after}
	require.False(t, v.InWindow(now), "window not started yet")

	v = Video{ScheduleStart: &before}
	require.True(t, v.InWindow(now), "open-ended window")

	v = Video{ScheduleEnd: &after}
	require.True(t, v.InWindow(now))

	v = Video{ScheduleStart: &before, ScheduleEnd: &now}
	require.False(t, v.InWindow(now), "end bound is exclusive")

	v = Video{ScheduleStart: &now, ScheduleEnd: &after}
	require.True(t, v.InWindow(now), "start bound is inclusive")
}
