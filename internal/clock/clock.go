// Package clock abstracts "now" so reconciliation, bonus expiry, and
// streak math can be tested against a fixed point in time.
package clock

import "time"

type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time
	// Today returns the current date truncated to midnight UTC.
	Today() time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

func (Real) Today() time.Time { return DateOf(time.Now().UTC()) }

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T.UTC() }

func (f Fixed) Today() time.Time { return DateOf(f.T.UTC()) }

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
