package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrNotLoaded is returned by Estimate when the model has not finished loading.
var ErrNotLoaded = errors.New("hand model not loaded")

// Estimator defines the interface for hand landmark estimation.
type Estimator interface {
	// Load prepares the underlying model. Estimate must not be called before
	// Load has returned successfully.
	Load(ctx context.Context) error

	// Ready reports whether Load has completed.
	Ready() bool

	// Estimate analyzes a video frame and returns detected hand landmarks in
	// frame pixel coordinates. Returns an empty slice if no hands are detected.
	Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
