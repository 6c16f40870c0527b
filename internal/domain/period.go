package domain

import (
	"fmt"
	"time"
)

// PeriodLength is the fixed rolling window length for every rotation scheme.
const PeriodLength = 7 * 24 * time.Hour

// PeriodState classifies an instant relative to a period.
type PeriodState string

const (
	PeriodPast    PeriodState = "past"
	PeriodCurrent PeriodState = "current"
	PeriodFuture  PeriodState = "future"
)

// Period is a rolling fixed-length window anchored to a fixed local civil
// time. periods are generated from a scheme, never stored directly.
// the interval is half-open: [Start, End).
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// StateAt classifies now against this period.
// current iff now in [Start, End), past iff now >= End, future otherwise.
func (p Period) StateAt(now time.Time) PeriodState {
	if !now.Before(p.End) {
		return PeriodPast
	}
	if !now.Before(p.Start) {
		return PeriodCurrent
	}
	return PeriodFuture
}

// Contains reports whether an event instant falls inside the period.
func (p Period) Contains(instant time.Time) bool {
	return !instant.Before(p.Start) && instant.Before(p.End)
}

// RotationScheme generates contiguous, non-overlapping 7-day periods from a
// fixed anchor. several schemes may coexist (anchored on different weekdays)
// to track overlapping rotations; each is parameterized independently and
// shares no state with the others.
type RotationScheme struct {
	name     string
	anchor   time.Time
	length   time.Duration
	location *time.Location
}

// anchorLayout is the civil-time format for scheme anchors, e.g.
// "2026-01-09T12:00:00" interpreted in the scheme's named timezone.
const anchorLayout = "2006-01-02T15:04:05"

// NewRotationScheme builds a scheme from a civil anchor time and an IANA
// timezone name. the anchor's hour-of-day also defines the boundary-trimming
// hour used by the period summarizer.
func NewRotationScheme(name, anchorCivil, timezone string) (RotationScheme, error) {
	if name == "" {
		return RotationScheme{}, fmt.Errorf("%w: name is required", ErrInvalidScheme)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return RotationScheme{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidScheme, timezone, err)
	}

	anchor, err := time.ParseInLocation(anchorLayout, anchorCivil, loc)
	if err != nil {
		return RotationScheme{}, fmt.Errorf("%w: anchor %q: %v", ErrInvalidScheme, anchorCivil, err)
	}

	return RotationScheme{
		name:     name,
		anchor:   anchor,
		length:   PeriodLength,
		location: loc,
	}, nil
}

// Name returns the scheme identifier.
func (s RotationScheme) Name() string {
	return s.name
}

// Location returns the scheme's civil timezone.
func (s RotationScheme) Location() *time.Location {
	return s.location
}

// AnchorHour returns the anchor's local hour-of-day, the trimming boundary
// for partial days at period edges.
func (s RotationScheme) AnchorHour() int {
	return s.anchor.Hour()
}

// PeriodsAt derives the current and next periods for the query instant.
// weeksFromAnchor = floor((now - anchor) / length), clamped to zero when now
// precedes the anchor so the very first period is never skipped. the current
// period is emitted only while now < currentEnd; the next period is always
// emitted.
func (s RotationScheme) PeriodsAt(now time.Time) (current *Period, next Period) {
	weeks := now.Sub(s.anchor) / s.length
	if weeks < 0 {
		weeks = 0
	}

	currentStart := s.anchor.Add(time.Duration(weeks) * s.length)
	currentEnd := currentStart.Add(s.length)

	next = s.periodAt(currentEnd)

	if now.Before(currentEnd) {
		p := s.periodAt(currentStart)
		current = &p
	}
	return current, next
}

// PeriodContaining returns the period whose range covers the given instant.
// instants before the anchor clamp to the first period.
func (s RotationScheme) PeriodContaining(instant time.Time) Period {
	weeks := instant.Sub(s.anchor) / s.length
	if weeks < 0 {
		weeks = 0
	}
	return s.periodAt(s.anchor.Add(time.Duration(weeks) * s.length))
}

// ClosedPeriodsBefore returns every period that has fully ended by now,
// oldest first. used to close out and persist stats incrementally.
func (s RotationScheme) ClosedPeriodsBefore(now time.Time) []Period {
	var closed []Period
	for start := s.anchor; !now.Before(start.Add(s.length)); start = start.Add(s.length) {
		closed = append(closed, s.periodAt(start))
	}
	return closed
}

func (s RotationScheme) periodAt(start time.Time) Period {
	end := start.Add(s.length)
	return Period{
		Label: s.FormatLabel(end),
		Start: start,
		End:   end,
	}
}

// FormatLabel renders a period's end date in the scheme's civil timezone as
// weekday + month + day, e.g. "Friday, January 16".
func (s RotationScheme) FormatLabel(end time.Time) string {
	return end.In(s.location).Format("Monday, January 2")
}
