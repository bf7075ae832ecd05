package domain

import "time"

// Clock is the injected time capability. The engine and the dispatcher
// never read ambient system time directly so that delay-policy selection
// and due-date checks stay deterministic under test.
type Clock interface {
	Now() time.Time
	IsNightTime() bool
	NextBusinessTime() time.Time
}

// SystemClock implements Clock against the wall clock with a configured
// night-time window and business-day start.
type SystemClock struct {
	NightStartHour    int // inclusive, e.g. 21
	NightEndHour      int // exclusive, e.g. 8
	BusinessStartHour int // e.g. 9
	Location          *time.Location
}

// NewSystemClock creates a SystemClock; a nil location means local time.
func NewSystemClock(nightStart, nightEnd, businessStart int, loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{
		NightStartHour:    nightStart,
		NightEndHour:      nightEnd,
		BusinessStartHour: businessStart,
		Location:          loc,
	}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// IsNightTime reports whether the current instant falls inside the
// configured night window. The window wraps midnight when the start hour
// is after the end hour.
func (c *SystemClock) IsNightTime() bool {
	return c.nightAt(c.Now())
}

func (c *SystemClock) nightAt(t time.Time) bool {
	h := t.In(c.Location).Hour()
	if c.NightStartHour > c.NightEndHour {
		return h >= c.NightStartHour || h < c.NightEndHour
	}
	return h >= c.NightStartHour && h < c.NightEndHour
}

// NextBusinessTime returns the next instant at the business-day start
// hour strictly after now.
func (c *SystemClock) NextBusinessTime() time.Time {
	return c.nextBusinessAfter(c.Now())
}

func (c *SystemClock) nextBusinessAfter(now time.Time) time.Time {
	now = now.In(c.Location)
	next := time.Date(now.Year(), now.Month(), now.Day(), c.BusinessStartHour, 0, 0, 0, c.Location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
