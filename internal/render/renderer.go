package render

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// ClearPolicy decides what the overlay shows on frames without a hand.
type ClearPolicy int

const (
	// ClearKeepStale leaves the last drawn skeleton on screen until a hand
	// is seen again.
	ClearKeepStale ClearPolicy = iota
	// ClearOnEmpty wipes the overlay as soon as a frame has no hand.
	ClearOnEmpty
)

// String returns the flag spelling of p.
func (p ClearPolicy) String() string {
	switch p {
	case ClearKeepStale:
		return "keep"
	case ClearOnEmpty:
		return "clear"
	default:
		return fmt.Sprintf("ClearPolicy(%d)", int(p))
	}
}

// ParseClearPolicy parses "keep" or "clear".
func ParseClearPolicy(s string) (ClearPolicy, error) {
	switch s {
	case "keep":
		return ClearKeepStale, nil
	case "clear":
		return ClearOnEmpty, nil
	}
	return 0, fmt.Errorf("unknown clear policy %q", s)
}

// Renderer draws hand skeletons.
type Renderer struct {
	policy ClearPolicy
}

// NewRenderer creates a Renderer with the given clear policy.
func NewRenderer(policy ClearPolicy) *Renderer {
	return &Renderer{policy: policy}
}

// Draw renders every hand onto s: four bone segments per finger, then one
// marker per landmark. With hands present the surface is cleared first.
// An OpSetter receives the finished drawing in a single Set.
func (r *Renderer) Draw(s Surface, hands []detector.HandLandmarks) {
	if len(hands) == 0 {
		if r.policy == ClearOnEmpty {
			s.Clear()
		}
		return
	}

	if setter, ok := s.(OpSetter); ok {
		rec := make(recording, 0, len(hands)*(20+len(Styles)))
		for i := range hands {
			DrawHand(&rec, &hands[i])
		}
		setter.Set(rec)
		return
	}

	s.Clear()
	for i := range hands {
		DrawHand(s, &hands[i])
	}
}

// DrawHand renders one hand's bones and joints onto s.
func DrawHand(s Surface, hand *detector.HandLandmarks) {
	for _, finger := range Fingers {
		for k := 0; k < len(finger.Joints)-1; k++ {
			from := point(hand.Points[finger.Joints[k]])
			to := point(hand.Points[finger.Joints[k+1]])
			s.Line(from, to, BoneColor, BoneWidth)
		}
	}

	for i, p := range hand.Points {
		style := Styles[i]
		s.Circle(point(p), style.Radius, style.Color)
	}
}

func point(p detector.Point3D) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
