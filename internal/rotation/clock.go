package rotation

import "time"

// Clock abstracts the current time so driver and schedule validation can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
