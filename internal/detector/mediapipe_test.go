package detector

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

// stuckService reads the frame header and then never answers or exits.
const stuckService = `import signal, sys, time
signal.signal(signal.SIGTERM, signal.SIG_IGN)
sys.stdin.buffer.read(4)
while True:
    time.sleep(1)
`

func TestMediaPipeEstimator_TimeoutKillsStuckService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	script := filepath.Join(t.TempDir(), "stuck_service.py")
	if err := os.WriteFile(script, []byte(stuckService), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	config := DefaultConfig()
	config.ScriptPath = script
	est, err := NewMediaPipeEstimator(config)
	if err != nil {
		t.Fatalf("NewMediaPipeEstimator() error = %v", err)
	}
	if err := est.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	frame := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC3)
	defer frame.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	estimated := make(chan error, 1)
	go func() {
		_, err := est.Estimate(ctx, &frame)
		estimated <- err
	}()

	select {
	case err := <-estimated:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Estimate() error = %v, want %v", err, context.DeadlineExceeded)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Estimate() did not return after its deadline")
	}

	closed := make(chan error, 1)
	go func() { closed <- est.Close() }()

	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return")
	}

	if est.Ready() {
		t.Error("Ready() should be false after Close()")
	}
}

func TestMediaPipeEstimator_CloseKillsServiceIgnoringEOF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	script := filepath.Join(t.TempDir(), "stuck_service.py")
	if err := os.WriteFile(script, []byte(stuckService), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	config := DefaultConfig()
	config.ScriptPath = script
	est, err := NewMediaPipeEstimator(config)
	if err != nil {
		t.Fatalf("NewMediaPipeEstimator() error = %v", err)
	}
	if err := est.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	closed := make(chan struct{})
	go func() {
		est.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(shutdownGrace + 5*time.Second):
		t.Fatal("Close() did not return after the grace period")
	}
}
