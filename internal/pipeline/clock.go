package pipeline

import "time"

// Clock abstracts time.Now so window math is testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock returns a fixed instant, for tests.
type MockClock struct {
	FixedNow time.Time
}

func (m MockClock) Now() time.Time {
	return m.FixedNow
}
