package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Tap wraps a Source and keeps a copy of the most recent frame so other
// consumers, such as the video stream, can show what the pipeline saw
// without reading the device themselves.
type Tap struct {
	Source

	mu     sync.Mutex
	latest gocv.Mat
	has    bool
	seq    uint64
}

// NewTap wraps src.
func NewTap(src Source) *Tap {
	return &Tap{Source: src}
}

// ReadFrame reads from the wrapped source and records a copy of the image.
func (t *Tap) ReadFrame() (*Frame, error) {
	frame, err := t.Source.ReadFrame()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.seq++
	if frame.Mat != nil && !frame.Mat.Empty() {
		if t.has {
			frame.Mat.CopyTo(&t.latest)
		} else {
			t.latest = frame.Mat.Clone()
			t.has = true
		}
	}
	t.mu.Unlock()

	return frame, nil
}

// Latest returns a copy of the most recent image and the number of frames
// read so far. ok is false until an image has been read. The caller owns
// the returned Mat.
func (t *Tap) Latest() (mat gocv.Mat, seq uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.has {
		return gocv.Mat{}, t.seq, false
	}
	return t.latest.Clone(), t.seq, true
}

// Seq returns the number of frames read so far.
func (t *Tap) Seq() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Close closes the wrapped source and releases the retained image.
func (t *Tap) Close() error {
	err := t.Source.Close()

	t.mu.Lock()
	if t.has {
		t.latest.Close()
		t.has = false
	}
	t.mu.Unlock()

	return err
}
