package application

import "time"

// TimeProvider supplies "now" to the use cases so tests can pin it.
type TimeProvider func() time.Time

// RealTime is the production TimeProvider, always UTC.
func RealTime() time.Time {
	return time.Now().UTC()
}
