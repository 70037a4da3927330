package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// idleShutdown is how long the Python process may sit unused before it is stopped.
	idleShutdown = 30 * time.Second
	// shutdownGrace is how long the process may take to exit after stdin is
	// closed before it is killed.
	shutdownGrace = 2 * time.Second
)

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
//
// Wire protocol: every request is a 4-byte big-endian length followed by a
// JPEG frame on stdin; every response is one JSON line on stdout with
// landmarks normalized to [0,1].
type MediaPipeEstimator struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	loaded     bool
	idleTimer  *time.Timer
}

// NewMediaPipeEstimator creates a new MediaPipe estimator.
// The Python process is started by Load and restarted lazily after idling.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found")
	}

	return &MediaPipeEstimator{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Load starts the Python service.
func (d *MediaPipeEstimator) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.ensureStarted(); err != nil {
		return err
	}
	d.loaded = true
	return nil
}

// Ready reports whether Load has completed successfully.
func (d *MediaPipeEstimator) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Estimate analyzes a frame and returns detected hand landmarks in frame pixels.
func (d *MediaPipeEstimator) Estimate(ctx context.Context, frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		return nil, ErrNotLoaded
	}
	if frame == nil || frame.Empty() {
		return nil, nil
	}
	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.readLine(ctx)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	width := float64(frame.Cols())
	height := float64(frame.Rows())

	result := make([]HandLandmarks, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHandLandmarks(width, height)
	}

	d.resetIdleTimer()

	return result, nil
}

// readLine waits for one response line, giving up when ctx is done. A
// response abandoned mid-flight leaves the pipe out of step, so the process
// is killed and started again on the next call.
func (d *MediaPipeEstimator) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	stdout := d.stdout
	go func() {
		line, err := stdout.ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		d.shutdown(0)
		return "", ctx.Err()
	}
}

// Close shuts down the Python process.
func (d *MediaPipeEstimator) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	return d.shutdown(shutdownGrace)
}

func (d *MediaPipeEstimator) ensureStarted() error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

// shutdown closes stdin and waits up to grace for the process to exit,
// killing it afterwards. A zero grace kills immediately.
func (d *MediaPipeEstimator) shutdown(grace time.Duration) error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	cmd := d.cmd
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if grace <= 0 {
		cmd.Process.Kill()
	}

	var err error
	select {
	case err = <-done:
	case <-time.After(grace):
		cmd.Process.Kill()
		err = <-done
	}
	if grace <= 0 {
		// The kill is expected; only report failures to reap the process.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = nil
		}
	}

	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeEstimator) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown(shutdownGrace)
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/mediapipe_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// toHandLandmarks converts normalized service output into frame pixels.
// Z is scaled by width, matching MediaPipe's depth convention.
func (h jsonHand) toHandLandmarks(width, height float64) HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D{
			X: h.Points[i].X * width,
			Y: h.Points[i].Y * height,
			Z: h.Points[i].Z * width,
		}
	}

	return lm
}
