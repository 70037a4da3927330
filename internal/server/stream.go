package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/render"
)

// DefaultStreamInterval paces the MJPEG stream at about 15 FPS.
const DefaultStreamInterval = 66 * time.Millisecond

// FrameSource provides the most recent camera image.
type FrameSource interface {
	Latest() (mat gocv.Mat, seq uint64, ok bool)
}

// StreamHandler serves MJPEG frames with the hand overlay drawn on top.
type StreamHandler struct {
	frames   FrameSource
	overlay  *render.Canvas
	interval time.Duration
}

// NewStreamHandler creates a StreamHandler. overlay may be nil.
func NewStreamHandler(frames FrameSource, overlay *render.Canvas) *StreamHandler {
	return &StreamHandler{frames: frames, overlay: overlay, interval: DefaultStreamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		mat, seq, ok := h.frames.Latest()
		if !ok {
			continue
		}
		if seq == lastSeq {
			mat.Close()
			continue
		}
		lastSeq = seq

		buf, err := h.encode(mat)
		mat.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		_, err = w.Write(buf)
		fmt.Fprintf(w, "\r\n")
		if err != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// encode draws the overlay onto mat and returns it as JPEG.
func (h *StreamHandler) encode(mat gocv.Mat) ([]byte, error) {
	if h.overlay != nil {
		h.overlay.Replay(render.NewMatSurface(&mat))
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
