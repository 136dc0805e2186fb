package clock

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func NewRealClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

type MockClock struct {
	currentTime time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Set(t time.Time) {
	c.currentTime = t
}

func (c *MockClock) Add(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}

// BusinessCalendar answers "what day is it" in the brokerage's business
// timezone. All date comparisons against desired deal dates go through it.
type BusinessCalendar struct {
	clock Clock
	loc   *time.Location
}

func NewBusinessCalendar(clock Clock, timezone string) (*BusinessCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &BusinessCalendar{clock: clock, loc: loc}, nil
}

// Today returns the current business date truncated to midnight UTC, matching
// how desired dates are stored.
func (b *BusinessCalendar) Today() time.Time {
	y, m, d := b.clock.Now().In(b.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (b *BusinessCalendar) Location() *time.Location {
	return b.loc
}
