// Package app wires the frame pipeline together: it polls the video source,
// estimates hand landmarks, classifies the gesture, tracks the wrist and
// renders the skeleton, and animates the element that follows the hand.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/scheduler"
	"github.com/ayusman/mudra/internal/tracker"
)

// Timing defaults.
const (
	// DefaultPollInterval is how often a frame is processed.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultAnimationInterval matches a 60Hz display refresh.
	DefaultAnimationInterval = time.Second / 60
	// DefaultCycleTimeout bounds estimation and classification of one frame.
	DefaultCycleTimeout = 2 * time.Second
)

var (
	// ErrAlreadyRunning is returned by Start on a running controller.
	ErrAlreadyRunning = errors.New("controller already running")
	// ErrMissingDependency is returned by New when a required
	// collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")
)

// Config holds the collaborators and tuning of a Controller.
type Config struct {
	Source    capture.Source
	Estimator detector.Estimator

	// Classifier defaults to a TemplateClassifier with the built-in
	// templates.
	Classifier gesture.Classifier

	// Canvas receives the skeleton drawing. Defaults to a new render.Canvas.
	Canvas render.Surface

	Element Element
	Status  StatusView
	Logger  *slog.Logger

	PollInterval      time.Duration
	AnimationInterval time.Duration
	CycleTimeout      time.Duration

	// Sensitivity is the minimum score a gesture needs to be reported.
	Sensitivity float64

	GapPolicy     tracker.GapPolicy
	ClearPolicy   render.ClearPolicy
	FailurePolicy FailurePolicy
}

// DefaultConfig returns a Config with default timing and policies and no
// collaborators.
func DefaultConfig() Config {
	return Config{
		PollInterval:      DefaultPollInterval,
		AnimationInterval: DefaultAnimationInterval,
		CycleTimeout:      DefaultCycleTimeout,
		Sensitivity:       gesture.DefaultSensitivity,
		GapPolicy:         tracker.GapStaleBaseline,
		ClearPolicy:       render.ClearKeepStale,
		FailurePolicy:     FailureLog,
	}
}

// state is everything a cycle mutates.
type state struct {
	status  gesture.Name
	tracker *tracker.Tracker
	enabled bool
}

// Controller runs the detection cycle and the element animation.
type Controller struct {
	config   Config
	logger   *slog.Logger
	renderer *render.Renderer

	mu        sync.RWMutex
	state     state
	onEnabled []func(enabled bool)

	runMu     sync.Mutex
	scheduler *scheduler.Scheduler
	loadDone  chan struct{}

	// lastErr suppresses repeated identical failure logs.
	lastErr string
}

// New creates a Controller. Source and Estimator are required; zero timing
// values fall back to their defaults. The controller starts enabled.
func New(config Config) (*Controller, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("%w: video source", ErrMissingDependency)
	}
	if config.Estimator == nil {
		return nil, fmt.Errorf("%w: landmark estimator", ErrMissingDependency)
	}

	if config.Classifier == nil {
		config.Classifier = gesture.NewTemplateClassifier(gesture.BuiltinTemplates()...)
	}
	if config.Canvas == nil {
		config.Canvas = render.NewCanvas()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.AnimationInterval <= 0 {
		config.AnimationInterval = DefaultAnimationInterval
	}
	if config.CycleTimeout <= 0 {
		config.CycleTimeout = DefaultCycleTimeout
	}

	return &Controller{
		config:   config,
		logger:   config.Logger,
		renderer: render.NewRenderer(config.ClearPolicy),
		state: state{
			tracker: tracker.New(config.GapPolicy),
			enabled: true,
		},
	}, nil
}

// Start opens the video source, begins loading the hand model in the
// background and schedules the detection and animation tasks. Cycles are
// skipped until both the source and the model are ready.
func (c *Controller) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.scheduler != nil {
		return ErrAlreadyRunning
	}

	sched := scheduler.New(c.logger)
	if err := sched.Every("detect", c.config.PollInterval, c.detect); err != nil {
		return err
	}
	if err := sched.EveryDetached("animate", c.config.AnimationInterval, c.animate); err != nil {
		return err
	}

	if err := c.config.Source.Open(); err != nil {
		return fmt.Errorf("open video source: %w", err)
	}

	loadDone := make(chan struct{})
	go func() {
		defer close(loadDone)
		if err := c.config.Estimator.Load(ctx); err != nil {
			c.logger.Error("failed to load hand model", "error", err)
			return
		}
		c.logger.Info("hand model loaded")
	}()

	if err := sched.Start(ctx); err != nil {
		<-loadDone
		return err
	}

	c.scheduler = sched
	c.loadDone = loadDone

	c.logger.Info("detection pipeline started",
		"poll", c.config.PollInterval,
		"sensitivity", c.config.Sensitivity,
		"gap_policy", c.config.GapPolicy,
		"clear_policy", c.config.ClearPolicy,
	)
	return nil
}

// Stop halts both tasks, waits for the model load to finish and releases
// the source and estimator. Stop on a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.scheduler == nil {
		return
	}

	c.scheduler.Stop()
	<-c.loadDone
	c.scheduler = nil
	c.loadDone = nil

	if err := c.config.Source.Close(); err != nil {
		c.logger.Warn("error closing video source", "error", err)
	}
	if err := c.config.Estimator.Close(); err != nil {
		c.logger.Warn("error closing hand estimator", "error", err)
	}

	c.logger.Info("detection pipeline stopped")
}

// Running reports whether the controller has been started.
func (c *Controller) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.scheduler != nil
}

// SetEnabled enables or disables gesture detection. A disabled controller
// keeps animating the element at its last offset.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	changed := c.state.enabled != enabled
	c.state.enabled = enabled
	listeners := c.onEnabled
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(enabled)
	}
}

// OnEnabledChange registers fn to be called after SetEnabled changes the
// enabled state, whoever called it.
func (c *Controller) OnEnabledChange(fn func(enabled bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnabled = append(c.onEnabled, fn)
}

// IsEnabled returns whether gesture detection is currently enabled.
func (c *Controller) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.enabled
}

// Status returns the last recognized gesture, or "" if none has been seen.
func (c *Controller) Status() gesture.Name {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.status
}

// Icon returns the asset path of the current status icon.
func (c *Controller) Icon() string {
	return render.IconFor(c.Status())
}

// Offset returns the accumulated element translation.
func (c *Controller) Offset() tracker.Vector {
	return c.state.tracker.Offset()
}

// Previous returns the landmarks the next displacement is measured from.
func (c *Controller) Previous() (detector.HandLandmarks, bool) {
	return c.state.tracker.Previous()
}

// Canvas returns the surface the skeleton is drawn on.
func (c *Controller) Canvas() render.Surface {
	return c.config.Canvas
}
