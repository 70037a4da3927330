// Package tracker turns wrist motion between frames into an accumulated
// screen offset.
package tracker

import (
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// Vector is a 2D displacement or position in pixels.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// GapPolicy decides what happens to the stored baseline when a frame has no hand.
type GapPolicy int

const (
	// GapStaleBaseline keeps the last seen hand across empty frames, so the
	// first hand after a gap moves the offset by the full jump.
	GapStaleBaseline GapPolicy = iota
	// GapReset drops the baseline on an empty frame; the next hand only
	// establishes a new baseline.
	GapReset
)

// String returns the flag spelling of p.
func (p GapPolicy) String() string {
	switch p {
	case GapStaleBaseline:
		return "stale"
	case GapReset:
		return "reset"
	default:
		return fmt.Sprintf("GapPolicy(%d)", int(p))
	}
}

// ParseGapPolicy parses "stale" or "reset".
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "stale":
		return GapStaleBaseline, nil
	case "reset":
		return GapReset, nil
	}
	return 0, fmt.Errorf("unknown gap policy %q", s)
}

// Tracker accumulates wrist displacement across frames. The offset is a
// running sum and is never clamped.
type Tracker struct {
	mu       sync.RWMutex
	policy   GapPolicy
	previous *detector.HandLandmarks
	offset   Vector
	gaps     int
}

// New creates a Tracker with a zero offset and no baseline.
func New(policy GapPolicy) *Tracker {
	return &Tracker{policy: policy}
}

// Observe records the hand seen in the current frame, or nil when none was
// seen. It returns the displacement applied to the offset and whether one
// was applied.
func (t *Tracker) Observe(hand *detector.HandLandmarks) (Vector, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if hand == nil {
		t.gaps++
		if t.policy == GapReset {
			t.previous = nil
		}
		return Vector{}, false
	}

	current := *hand
	t.gaps = 0

	if t.previous == nil {
		t.previous = &current
		return Vector{}, false
	}

	cur := current.WristPoint()
	prev := t.previous.WristPoint()
	delta := Vector{X: cur.X - prev.X, Y: cur.Y - prev.Y}

	t.offset = t.offset.Add(delta)
	t.previous = &current

	return delta, true
}

// Offset returns the accumulated offset.
func (t *Tracker) Offset() Vector {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.offset
}

// Previous returns a copy of the stored baseline hand.
func (t *Tracker) Previous() (detector.HandLandmarks, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.previous == nil {
		return detector.HandLandmarks{}, false
	}
	return *t.previous, true
}

// Gaps returns how many consecutive frames had no hand.
func (t *Tracker) Gaps() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gaps
}

// Policy returns the gap policy.
func (t *Tracker) Policy() GapPolicy {
	return t.policy
}
