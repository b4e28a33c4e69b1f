package rotation

import "errors"

var (
	// ErrInvalidSchedule rejects bad pattern parameters at schedule
	// create/update time. Never raised during a driver tick.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrEmptySequence marks a schedule whose rotation sequence has no
	// videos. The driver treats it as a no-op, not a failure.
	ErrEmptySequence = errors.New("empty rotation sequence")

	// ErrNotDue is returned by the store when the locked schedule row is no
	// longer due, i.e. a concurrent driver instance already rotated it.
	ErrNotDue = errors.New("schedule not due")

	// ErrDanglingVideo marks a rotation step whose target video was deleted.
	// The schedule still advances so it never stalls on the missing id.
	ErrDanglingVideo = errors.New("rotation sequence references missing video")

	// ErrNoActiveVideo is the resolver's "none available" outcome. It is a
	// normal steady state for content without videos, not a server error.
	ErrNoActiveVideo = errors.New("no active video")
)
