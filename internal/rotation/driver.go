package rotation

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/models"
)

// Broadcaster pushes rotation events to connected viewers. Optional.
type Broadcaster interface {
	BroadcastToContent(contentID int64, event string, payload interface{})
}

// Driver is the stateless periodic pass that advances due rotation schedules.
// It re-reads schedules from the store every tick and commits each step
// independently, so a failed schedule never blocks the batch and partial
// progress is never lost. Safe to run in multiple processes: the store locks
// each schedule row and re-checks dueness inside the transaction.
type Driver struct {
	store    ScheduleStore
	clock    Clock
	hub      Broadcaster
	logger   *zap.Logger
	interval time.Duration
	rng      *rand.Rand
}

// NewDriver creates a rotation driver ticking every intervalSec seconds.
func NewDriver(store ScheduleStore, clock Clock, hub Broadcaster, intervalSec int, logger *zap.Logger) *Driver {
	if intervalSec <= 0 {
		intervalSec = 300
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		store:    store,
		clock:    clock,
		hub:      hub,
		logger:   logger,
		interval: time.Duration(intervalSec) * time.Second,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks until ctx is cancelled. A slow tick simply delays the next one.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Info("rotation driver started", zap.Duration("interval", d.interval))
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("rotation driver stopping")
			return
		case <-ticker.C:
			start := time.Now()
			d.Tick(ctx)
			if elapsed := time.Since(start); elapsed > d.interval {
				d.logger.Warn("rotation tick overran interval",
					zap.Duration("elapsed", elapsed),
					zap.Duration("interval", d.interval))
			}
		}
	}
}

// Tick runs one idempotent rotation pass over all due schedules.
func (d *Driver) Tick(ctx context.Context) {
	now := d.clock.Now()
	due, err := d.store.ListDue(ctx, now)
	if err != nil {
		d.logger.Error("list due schedules", zap.Error(err))
		return
	}
	for _, s := range due {
		if err := d.rotateOne(ctx, s.ID, now); err != nil {
			switch {
			case errors.Is(err, ErrNotDue):
				d.logger.Debug("schedule taken by another instance", zap.Int64("schedule_id", s.ID))
			case errors.Is(err, ErrEmptySequence):
				d.logger.Debug("schedule has no videos, skipping", zap.Int64("schedule_id", s.ID))
			default:
				// next_fire_at was not advanced, so the schedule is retried
				// on the next tick.
				d.logger.Error("rotation step failed",
					zap.Int64("schedule_id", s.ID), zap.Error(err))
			}
		}
	}
}

func (d *Driver) rotateOne(ctx context.Context, scheduleID int64, now time.Time) error {
	res, err := d.store.Rotate(ctx, scheduleID, now, func(s *models.RotationSchedule) (Step, error) {
		if len(s.VideoIDs) == 0 {
			return Step{}, ErrEmptySequence
		}
		next := d.nextIndex(s)
		return Step{
			Cursor:     next,
			VideoID:    s.VideoIDs[next],
			NextFireAt: NextOccurrence(now, PatternOf(s)),
		}, nil
	})
	if err != nil {
		return err
	}
	if !res.Activated {
		d.logger.Warn("skipped activation of deleted video",
			zap.Int64("schedule_id", scheduleID),
			zap.Int64("video_id", res.VideoID),
			zap.Error(ErrDanglingVideo))
		return nil
	}
	d.logger.Info("rotated active video",
		zap.Int64("schedule_id", scheduleID),
		zap.Int64("content_id", res.ContentID),
		zap.Int64("video_id", res.VideoID))
	if d.hub != nil {
		d.hub.BroadcastToContent(res.ContentID, "video_changed", map[string]interface{}{
			"content_id": res.ContentID,
			"video_id":   res.VideoID,
		})
	}
	return nil
}

// nextIndex picks the cursor position to rotate to. Random patterns pick
// uniformly excluding the current index when more than one video exists;
// a single-element sequence re-selects its sole element. All other patterns
// step sequentially through the sequence.
func (d *Driver) nextIndex(s *models.RotationSchedule) int {
	n := len(s.VideoIDs)
	cur := s.Cursor
	if cur < 0 || cur >= n {
		cur = 0
	}
	if s.Kind == models.PatternRandom && n > 1 {
		i := d.rng.Intn(n - 1)
		if i >= cur {
			i++
		}
		return i
	}
	return (cur + 1) % n
}
