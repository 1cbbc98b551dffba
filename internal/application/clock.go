package application

import "time"

// Clock lets services measure durations without touching time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Since is time.Since against c.
func Since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}
