package util

import "time"

// Clock abstracts time for code that stamps or expires records, so
// tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock returns a preset time and can be advanced by tests.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time          { return c.T }
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
