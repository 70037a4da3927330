package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockSource plays back synthetic frames for testing. With no images it
// hands out frames that carry only a size.
type MockSource struct {
	frames  []*gocv.Mat
	width   int
	height  int
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
	ready   bool
	err     error
	reads   int
}

// NewMockSource creates a source of image-less frames of the given size.
// It becomes ready when opened.
func NewMockSource(width, height int) *MockSource {
	return &MockSource{width: width, height: height, loop: true}
}

// NewMockCamera plays back the given frames, optionally looping.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		loop:   loop,
	}
}

func (c *MockSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.ready = true
	c.index = 0
	return nil
}

func (c *MockSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.ready = false
	return nil
}

// SetReady overrides readiness, e.g. to simulate a device still warming up.
func (c *MockSource) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

func (c *MockSource) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running && c.ready
}

// SetError makes every ReadFrame fail with err.
func (c *MockSource) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Reads returns how many frames were requested.
func (c *MockSource) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *MockSource) ReadFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.err != nil {
		return nil, c.err
	}

	now := time.Now().UnixMilli()
	if len(c.frames) == 0 {
		if c.width == 0 || c.height == 0 {
			return nil, ErrNoFrame
		}
		return &Frame{Width: c.width, Height: c.height, Timestamp: now}, nil
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, fmt.Errorf("no more frames: %w", ErrNoFrame)
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	mat := c.frames[c.index].Clone()
	c.index++

	return &Frame{Mat: &mat, Width: mat.Cols(), Height: mat.Rows(), Timestamp: now}, nil
}

// SetFrames replaces the frame sequence
func (c *MockSource) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockSource) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}

func (c *MockSource) SetFPS(fps int) {}
func (c *MockSource) FPS() int       { return DefaultFPS }
func (c *MockSource) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
