package services

import "time"

// Clock supplies the current time for expiry checks. The escrow service
// reads it once per operation and uses that single value throughout, so a
// coarse or slightly non-monotonic source cannot split one operation across
// the expiry boundary.
type Clock interface {
	Now() time.Time
}

type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}
