// Package clock provides the injectable time source the ledger uses
// for clearing evaluation and recurrence due-checks.
package clock

import "time"

// Clock yields the current time. Domain services take a Clock instead
// of calling time.Now so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
