// Package clock abstracts the current time so date rules such as "not in the
// future" and "active today" can be tested deterministically.
package clock

import "time"

// Clock reports the current instant. Calendar-day rules take the UTC day of
// that instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}
