package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It allows tests to control the estimation results.
type MockEstimator struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	loadErr  error
	loaded   bool
	calls    int
}

// NewMockEstimator creates a new MockEstimator instance. It is not loaded
// until Load is called.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetHands sets the hands that will be returned by every Estimate call once
// any queued sequence is exhausted.
func (m *MockEstimator) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-call results. Each Estimate call consumes one entry; a
// nil entry means no hand for that call.
func (m *MockEstimator) Queue(results ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append(m.sequence, results...)
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetLoadError makes Load fail with err.
func (m *MockEstimator) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// Calls returns how many times Estimate has been invoked.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Load marks the mock as ready unless a load error was configured.
func (m *MockEstimator) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

// Ready reports whether Load succeeded.
func (m *MockEstimator) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Estimate returns the next queued result, the pre-configured hands or error.
func (m *MockEstimator) Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up
// gesture in 640x480 frame pixels. The thumb is extended upward while the
// other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 300, Y: 480, Z: 0}

	// Thumb extended upward (Y decreases going up)
	landmarks.Points[ThumbCMC] = Point3D{X: 330, Y: 450, Z: 0}
	landmarks.Points[ThumbMCP] = Point3D{X: 348, Y: 390, Z: 0}
	landmarks.Points[ThumbIP] = Point3D{X: 348, Y: 300, Z: 0}
	landmarks.Points[ThumbTip] = Point3D{X: 348, Y: 210, Z: 0}

	// Index finger curled (knuckles close together, tip near palm)
	landmarks.Points[IndexMCP] = Point3D{X: 330, Y: 420, Z: -12}
	landmarks.Points[IndexPIP] = Point3D{X: 330, Y: 408, Z: -30}
	landmarks.Points[IndexDIP] = Point3D{X: 312, Y: 420, Z: -24}
	landmarks.Points[IndexTip] = Point3D{X: 300, Y: 432, Z: -12}

	// Middle finger curled
	landmarks.Points[MiddleMCP] = Point3D{X: 300, Y: 408, Z: -12}
	landmarks.Points[MiddlePIP] = Point3D{X: 300, Y: 396, Z: -30}
	landmarks.Points[MiddleDIP] = Point3D{X: 282, Y: 408, Z: -24}
	landmarks.Points[MiddleTip] = Point3D{X: 270, Y: 420, Z: -12}

	// Ring finger curled
	landmarks.Points[RingMCP] = Point3D{X: 270, Y: 420, Z: -12}
	landmarks.Points[RingPIP] = Point3D{X: 270, Y: 408, Z: -30}
	landmarks.Points[RingDIP] = Point3D{X: 252, Y: 420, Z: -24}
	landmarks.Points[RingTip] = Point3D{X: 240, Y: 432, Z: -12}

	// Pinky finger curled
	landmarks.Points[PinkyMCP] = Point3D{X: 240, Y: 432, Z: -12}
	landmarks.Points[PinkyPIP] = Point3D{X: 240, Y: 420, Z: -30}
	landmarks.Points[PinkyDIP] = Point3D{X: 222, Y: 432, Z: -24}
	landmarks.Points[PinkyTip] = Point3D{X: 210, Y: 444, Z: -12}

	return landmarks
}

// VictoryLandmarks returns a preset HandLandmarks representing a victory
// (peace) gesture: index and middle fingers spread in a V, the rest folded.
func VictoryLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 300, Y: 480, Z: 0}

	// Thumb folded across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: 330, Y: 450, Z: 0}
	landmarks.Points[ThumbMCP] = Point3D{X: 342, Y: 420, Z: -6}
	landmarks.Points[ThumbIP] = Point3D{X: 324, Y: 408, Z: -18}
	landmarks.Points[ThumbTip] = Point3D{X: 300, Y: 402, Z: -24}

	// Index finger extended up and to the right
	landmarks.Points[IndexMCP] = Point3D{X: 330, Y: 420, Z: -12}
	landmarks.Points[IndexPIP] = Point3D{X: 348, Y: 336, Z: -12}
	landmarks.Points[IndexDIP] = Point3D{X: 360, Y: 282, Z: -12}
	landmarks.Points[IndexTip] = Point3D{X: 372, Y: 228, Z: -12}

	// Middle finger extended up and to the left
	landmarks.Points[MiddleMCP] = Point3D{X: 300, Y: 408, Z: -12}
	landmarks.Points[MiddlePIP] = Point3D{X: 288, Y: 318, Z: -12}
	landmarks.Points[MiddleDIP] = Point3D{X: 282, Y: 258, Z: -12}
	landmarks.Points[MiddleTip] = Point3D{X: 276, Y: 204, Z: -12}

	// Ring finger curled
	landmarks.Points[RingMCP] = Point3D{X: 270, Y: 420, Z: -12}
	landmarks.Points[RingPIP] = Point3D{X: 270, Y: 408, Z: -30}
	landmarks.Points[RingDIP] = Point3D{X: 252, Y: 420, Z: -24}
	landmarks.Points[RingTip] = Point3D{X: 240, Y: 432, Z: -12}

	// Pinky finger curled
	landmarks.Points[PinkyMCP] = Point3D{X: 240, Y: 432, Z: -12}
	landmarks.Points[PinkyPIP] = Point3D{X: 240, Y: 420, Z: -30}
	landmarks.Points[PinkyDIP] = Point3D{X: 222, Y: 432, Z: -24}
	landmarks.Points[PinkyTip] = Point3D{X: 210, Y: 444, Z: -12}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm.
// All fingers are extended outward; it matches neither built-in gesture.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 300, Y: 480, Z: 0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 330, Y: 450, Z: 12}
	landmarks.Points[ThumbMCP] = Point3D{X: 372, Y: 420, Z: 18}
	landmarks.Points[ThumbIP] = Point3D{X: 408, Y: 390, Z: 18}
	landmarks.Points[ThumbTip] = Point3D{X: 438, Y: 360, Z: 18}

	landmarks.Points[IndexMCP] = Point3D{X: 330, Y: 408, Z: 0}
	landmarks.Points[IndexPIP] = Point3D{X: 342, Y: 330, Z: 0}
	landmarks.Points[IndexDIP] = Point3D{X: 348, Y: 270, Z: 0}
	landmarks.Points[IndexTip] = Point3D{X: 348, Y: 210, Z: 0}

	landmarks.Points[MiddleMCP] = Point3D{X: 300, Y: 396, Z: 0}
	landmarks.Points[MiddlePIP] = Point3D{X: 300, Y: 312, Z: 0}
	landmarks.Points[MiddleDIP] = Point3D{X: 300, Y: 240, Z: 0}
	landmarks.Points[MiddleTip] = Point3D{X: 300, Y: 168, Z: 0}

	landmarks.Points[RingMCP] = Point3D{X: 270, Y: 408, Z: 0}
	landmarks.Points[RingPIP] = Point3D{X: 258, Y: 330, Z: 0}
	landmarks.Points[RingDIP] = Point3D{X: 252, Y: 270, Z: 0}
	landmarks.Points[RingTip] = Point3D{X: 252, Y: 210, Z: 0}

	landmarks.Points[PinkyMCP] = Point3D{X: 240, Y: 420, Z: 0}
	landmarks.Points[PinkyPIP] = Point3D{X: 222, Y: 360, Z: 0}
	landmarks.Points[PinkyDIP] = Point3D{X: 210, Y: 300, Z: 0}
	landmarks.Points[PinkyTip] = Point3D{X: 204, Y: 252, Z: 0}

	return landmarks
}
