package models

import "time"

// Clock supplies the wall-clock time used to stamp findings and reports.
// Tests inject a fixed clock; production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
