package rotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeScheduleStore mirrors the transactional store contract in memory:
// dueness is re-checked inside Rotate and activation only happens when the
// target video still exists.
type fakeScheduleStore struct {
	schedules map[int64]*models.RotationSchedule
	videos    map[int64]int64 // video id -> content id
	rotateErr error
}

func (f *fakeScheduleStore) ListDue(_ context.Context, now time.Time) ([]models.RotationSchedule, error) {
	var due []models.RotationSchedule
	for _, s := range f.schedules {
		if s.IsEnabled && !s.NextFireAt.After(now) {
			due = append(due, *s)
		}
	}
	return due, nil
}

func (f *fakeScheduleStore) Rotate(_ context.Context, scheduleID int64, now time.Time, fn StepFunc) (*StepResult, error) {
	if f.rotateErr != nil {
		return nil, f.rotateErr
	}
	s, ok := f.schedules[scheduleID]
	if !ok {
		return nil, ErrNotDue
	}
	if !s.IsEnabled || s.NextFireAt.After(now) {
		return nil, ErrNotDue
	}
	step, err := fn(s)
	if err != nil {
		return nil, err
	}
	res := &StepResult{ContentID: s.ContentID, VideoID: step.VideoID}
	if owner, ok := f.videos[step.VideoID]; ok && owner == s.ContentID {
		res.Activated = true
	}
	s.Cursor = step.Cursor
	fired := now
	s.LastFiredAt = &fired
	s.NextFireAt = step.NextFireAt
	return res, nil
}

type recordedEvent struct {
	contentID int64
	event     string
}

type fakeBroadcaster struct{ events []recordedEvent }

func (f *fakeBroadcaster) BroadcastToContent(contentID int64, event string, _ interface{}) {
	f.events = append(f.events, recordedEvent{contentID: contentID, event: event})
}

func newTestDriver(store ScheduleStore, clock Clock, hub Broadcaster) *Driver {
	return NewDriver(store, clock, hub, 60, zap.NewNop())
}

func dailySchedule(id, contentID int64, videoIDs []int64, cursor int, nextFireAt time.Time) *models.RotationSchedule {
	return &models.RotationSchedule{
		ID:         id,
		ContentID:  contentID,
		Kind:       models.PatternDaily,
		Hour:       9,
		Minute:     0,
		VideoIDs:   videoIDs,
		Cursor:     cursor,
		IsEnabled:  true,
		NextFireAt: nextFireAt,
	}
}

func TestTickAdvancesSequentially(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, []int64{10, 11, 12}, 0, now),
		},
		videos: map[int64]int64{10: 100, 11: 100, 12: 100},
	}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	d.Tick(context.Background())

	s := store.schedules[1]
	require.Equal(t, 1, s.Cursor)
	require.NotNil(t, s.LastFiredAt)
	require.Equal(t, now, *s.LastFiredAt)
	// 09:00 fire computes the next daily occurrence strictly after now.
	require.Equal(t, now.AddDate(0, 0, 1), s.NextFireAt)

	require.Len(t, hub.events, 1)
	require.Equal(t, recordedEvent{contentID: 100, event: "video_changed"}, hub.events[0])
}

func TestTickWrapsAroundSequence(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, []int64{10, 11, 12}, 2, now),
		},
		videos: map[int64]int64{10: 100, 11: 100, 12: 100},
	}
	d := newTestDriver(store, fixedClock{now}, nil)

	d.Tick(context.Background())
	require.Equal(t, 0, store.schedules[1].Cursor)
}

func TestTickSkipsNotDue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, []int64{10}, 0, now.Add(time.Hour)),
		},
		videos: map[int64]int64{10: 100},
	}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	d.Tick(context.Background())

	require.Equal(t, 0, store.schedules[1].Cursor)
	require.Nil(t, store.schedules[1].LastFiredAt)
	require.Empty(t, hub.events)
}

func TestTickEmptySequenceLeavesScheduleUntouched(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, nil, 0, now),
		},
	}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	d.Tick(context.Background())

	// An fn error rolls the step back: next_fire_at stays due and nothing
	// is broadcast.
	require.Equal(t, now, store.schedules[1].NextFireAt)
	require.Empty(t, hub.events)
}

func TestTickDanglingVideoAdvancesWithoutActivation(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			// Video 11 was deleted but stayed in the sequence.
			1: dailySchedule(1, 100, []int64{10, 11, 12}, 0, now),
		},
		videos: map[int64]int64{10: 100, 12: 100},
	}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	d.Tick(context.Background())

	s := store.schedules[1]
	require.Equal(t, 1, s.Cursor, "cursor advances past the deleted video")
	require.Equal(t, now.AddDate(0, 0, 1), s.NextFireAt, "schedule does not stall")
	require.Empty(t, hub.events, "no event for a skipped activation")
}

func TestTickStoreErrorDoesNotBlockOtherSchedules(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, nil, 0, now), // fails with ErrEmptySequence
			2: dailySchedule(2, 200, []int64{20, 21}, 0, now),
		},
		videos: map[int64]int64{20: 200, 21: 200},
	}
	d := newTestDriver(store, fixedClock{now}, nil)

	d.Tick(context.Background())

	require.Equal(t, 1, store.schedules[2].Cursor, "healthy schedule still rotates")
}

func TestTickIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{
		schedules: map[int64]*models.RotationSchedule{
			1: dailySchedule(1, 100, []int64{10, 11}, 0, now),
		},
		videos: map[int64]int64{10: 100, 11: 100},
	}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	d.Tick(context.Background())
	d.Tick(context.Background())

	// The first tick advanced next_fire_at past now, so the second is a no-op.
	require.Equal(t, 1, store.schedules[1].Cursor)
	require.Len(t, hub.events, 1)
}

func TestNextIndexRandomAvoidsRepeat(t *testing.T) {
	d := newTestDriver(&fakeScheduleStore{}, fixedClock{time.Now()}, nil)
	s := &models.RotationSchedule{
		Kind:     models.PatternRandom,
		VideoIDs: []int64{10, 11, 12, 13},
		Cursor:   2,
	}
	for i := 0; i < 200; i++ {
		next := d.nextIndex(s)
		require.NotEqual(t, 2, next, "random pick repeated the current video")
		require.GreaterOrEqual(t, next, 0)
		require.Less(t, next, 4)
	}
}

func TestNextIndexRandomSingleVideo(t *testing.T) {
	d := newTestDriver(&fakeScheduleStore{}, fixedClock{time.Now()}, nil)
	s := &models.RotationSchedule{
		Kind:     models.PatternRandom,
		VideoIDs: []int64{10},
		Cursor:   0,
	}
	require.Equal(t, 0, d.nextIndex(s))
}

func TestNextIndexClampsStaleCursor(t *testing.T) {
	d := newTestDriver(&fakeScheduleStore{}, fixedClock{time.Now()}, nil)
	// Sequence shrank since the cursor was written.
	s := &models.RotationSchedule{
		Kind:     models.PatternDaily,
		VideoIDs: []int64{10, 11},
		Cursor:   7,
	}
	require.Equal(t, 1, d.nextIndex(s))
}

func TestTickConcurrentTakeover(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{rotateErr: ErrNotDue}
	store.schedules = map[int64]*models.RotationSchedule{
		1: dailySchedule(1, 100, []int64{10}, 0, now),
	}
	store.videos = map[int64]int64{10: 100}
	hub := &fakeBroadcaster{}
	d := newTestDriver(store, fixedClock{now}, hub)

	// Another instance rotated the schedule between ListDue and Rotate;
	// the driver treats that as routine, not an error.
	d.Tick(context.Background())
	require.Empty(t, hub.events)
}

func TestTickUnexpectedErrorLeavesScheduleDue(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeScheduleStore{rotateErr: errors.New("connection reset")}
	store.schedules = map[int64]*models.RotationSchedule{
		1: dailySchedule(1, 100, []int64{10}, 0, now),
	}
	d := newTestDriver(store, fixedClock{now}, nil)

	d.Tick(context.Background())

	// next_fire_at untouched: the schedule is retried next tick.
	require.Equal(t, now, store.schedules[1].NextFireAt)
}
