package app

import (
	"context"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
)

// FailurePolicy decides how the scheduled detection task reports a failed
// cycle. Either way the cycle is abandoned and the next tick tries again.
type FailurePolicy int

const (
	// FailureLog logs the error, once per distinct message.
	FailureLog FailurePolicy = iota
	// FailureSilent drops the error.
	FailureSilent
)

// String returns the flag spelling of p.
func (p FailurePolicy) String() string {
	switch p {
	case FailureLog:
		return "log"
	case FailureSilent:
		return "silent"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy parses "log" or "silent".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "log":
		return FailureLog, nil
	case "silent":
		return FailureSilent, nil
	}
	return 0, fmt.Errorf("unknown failure policy %q", s)
}

// Cycle processes one frame:
//
//  1. skip unless detection is enabled and both the source and the hand
//     model are ready
//  2. read a frame and size the canvas to it
//  3. estimate hands; classify the first one and update the status with
//     the best scoring gesture
//  4. feed the first hand to the tracker
//  5. draw every hand
//
// A failed step returns its error before any state has been touched.
func (c *Controller) Cycle(ctx context.Context) error {
	if !c.IsEnabled() || !c.config.Source.Ready() || !c.config.Estimator.Ready() {
		return nil
	}

	frame, err := c.config.Source.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	c.config.Canvas.Resize(frame.Width, frame.Height)

	ctx, cancel := context.WithTimeout(ctx, c.config.CycleTimeout)
	defer cancel()

	hands, err := c.config.Estimator.Estimate(ctx, frame.Mat)
	if err != nil {
		return fmt.Errorf("estimate hands: %w", err)
	}

	var hand *detector.HandLandmarks
	var best gesture.Score
	var recognized bool
	if len(hands) > 0 {
		hand = &hands[0]

		est, err := c.config.Classifier.Estimate(ctx, hand, c.config.Sensitivity)
		if err != nil {
			return fmt.Errorf("classify gesture: %w", err)
		}
		best, recognized = gesture.SelectBest(est.Gestures)
	}

	c.mu.Lock()
	if recognized && c.state.status != best.Name {
		c.logger.Debug("gesture recognized", "gesture", best.Name, "score", best.Score)
		c.state.status = best.Name
	}
	c.mu.Unlock()

	if delta, moved := c.state.tracker.Observe(hand); moved {
		offset := c.state.tracker.Offset()
		c.logger.Debug("hand moved",
			"dx", delta.X, "dy", delta.Y,
			"x", offset.X, "y", offset.Y,
			"wrist", hand.WristPoint(),
			"handedness", hand.Handedness,
		)
	}

	c.renderer.Draw(c.config.Canvas, hands)
	return nil
}

// detect is the scheduled detection task.
func (c *Controller) detect(ctx context.Context) {
	err := c.Cycle(ctx)
	if err == nil {
		c.lastErr = ""
		return
	}
	if ctx.Err() != nil || c.config.FailurePolicy == FailureSilent {
		return
	}

	if msg := err.Error(); msg != c.lastErr {
		c.lastErr = msg
		c.logger.Warn("detection cycle failed", "error", err)
	}
}

// animate is the scheduled animation task. It repaints the element and the
// status every tick, changed or not.
func (c *Controller) animate(ctx context.Context) {
	if c.config.Status != nil {
		status := c.Status()
		c.config.Status.ShowStatus(status, render.IconFor(status))
	}
	if c.config.Element != nil {
		offset := c.Offset()
		c.config.Element.Translate(offset.X, offset.Y)
	}
}
