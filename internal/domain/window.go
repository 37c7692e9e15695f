package domain

import (
	"errors"
	"time"
)

// ErrEmptyWindow возвращается, если конец интервала не позже начала
var ErrEmptyWindow = errors.New("domain: window end must be after start")

// Window is a half-open time interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window, normalized to UTC
func NewWindow(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, ErrEmptyWindow
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration returns the length of the window
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps returns true if two half-open windows intersect.
// Touching windows ([9,12) and [12,15)) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// Contains returns true if t is inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
