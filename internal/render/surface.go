// Package render draws hand skeletons onto a drawing surface.
package render

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// Surface is a 2D drawing target sized to the video frame.
type Surface interface {
	Resize(width, height int)
	Clear()
	Line(from, to image.Point, c color.RGBA, width int)
	Circle(center image.Point, radius int, c color.RGBA)
}

// OpKind identifies a recorded drawing operation.
type OpKind int

const (
	OpLine OpKind = iota
	OpCircle
)

// Op is one recorded drawing operation.
type Op struct {
	Kind   OpKind
	From   image.Point
	To     image.Point // unused for circles
	Radius int
	Width  int
	Color  color.RGBA
}

// Canvas is a transparent overlay that records drawing operations. It is
// written by the detection cycle and replayed on top of every outgoing
// video frame, so it is safe for concurrent use.
type Canvas struct {
	mu     sync.RWMutex
	width  int
	height int
	ops    []Op
	resets int
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

// Resize sets the logical size. It does not clear recorded operations.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
}

// Clear drops every recorded operation.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
	c.resets++
}

// Line records a line segment.
func (c *Canvas) Line(from, to image.Point, col color.RGBA, width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, Op{Kind: OpLine, From: from, To: to, Width: width, Color: col})
}

// Circle records a filled circle.
func (c *Canvas) Circle(center image.Point, radius int, col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, Op{Kind: OpCircle, From: center, Radius: radius, Color: col})
}

// Set replaces the recorded operations in one step. Readers see either the
// previous drawing or the new one. It counts as a Clear.
func (c *Canvas) Set(ops []Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append([]Op(nil), ops...)
	c.resets++
}

// Size returns the logical size.
func (c *Canvas) Size() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Ops returns a copy of the recorded operations.
func (c *Canvas) Ops() []Op {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Op, len(c.ops))
	copy(out, c.ops)
	return out
}

// Count returns how many operations of kind are recorded.
func (c *Canvas) Count(kind OpKind) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, op := range c.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Clears returns how many times Clear has been called.
func (c *Canvas) Clears() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resets
}

// Replay draws the recorded operations onto dst.
func (c *Canvas) Replay(dst Surface) {
	for _, op := range c.Ops() {
		switch op.Kind {
		case OpLine:
			dst.Line(op.From, op.To, op.Color, op.Width)
		case OpCircle:
			dst.Circle(op.From, op.Radius, op.Color)
		}
	}
}

// OpSetter is implemented by surfaces that can swap in a whole drawing at once.
type OpSetter interface {
	Set(ops []Op)
}

// recording collects operations for a later Set.
type recording []Op

func (r *recording) Resize(width, height int) {}

func (r *recording) Clear() { *r = (*r)[:0] }

func (r *recording) Line(from, to image.Point, c color.RGBA, width int) {
	*r = append(*r, Op{Kind: OpLine, From: from, To: to, Width: width, Color: c})
}

func (r *recording) Circle(center image.Point, radius int, c color.RGBA) {
	*r = append(*r, Op{Kind: OpCircle, From: center, Radius: radius, Color: c})
}

// MatSurface draws directly onto an OpenCV image.
type MatSurface struct {
	mat *gocv.Mat
}

// NewMatSurface wraps mat. The caller keeps ownership of mat.
func NewMatSurface(mat *gocv.Mat) *MatSurface {
	return &MatSurface{mat: mat}
}

// Resize is a no-op; the image keeps the frame's size.
func (s *MatSurface) Resize(width, height int) {}

// Clear is a no-op; every frame starts from a fresh camera image.
func (s *MatSurface) Clear() {}

// Line draws a line segment.
func (s *MatSurface) Line(from, to image.Point, c color.RGBA, width int) {
	gocv.Line(s.mat, from, to, c, width)
}

// Circle draws a filled circle.
func (s *MatSurface) Circle(center image.Point, radius int, c color.RGBA) {
	gocv.Circle(s.mat, center, radius, c, -1)
}
