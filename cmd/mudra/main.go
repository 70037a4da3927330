package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/tray"
)

type options struct {
	addr          string
	camera        int
	dbPath        string
	webDir        string
	scriptPath    string
	poll          time.Duration
	sensitivity   float64
	gapPolicy     string
	clearPolicy   string
	failurePolicy string
	tray          bool
	logLevel      string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.addr, "addr", ":8080", "HTTP listen address")
	flag.IntVar(&o.camera, "camera", 0, "camera device index")
	flag.StringVar(&o.dbPath, "db", "", "SQLite database path (default ~/.mudra/mudra.db)")
	flag.StringVar(&o.webDir, "web", "", "serve the page from this directory instead of the embedded copy")
	flag.StringVar(&o.scriptPath, "script", "", "path to mediapipe_service.py")
	flag.DurationVar(&o.poll, "poll", app.DefaultPollInterval, "frame poll interval")
	flag.Float64Var(&o.sensitivity, "sensitivity", gesture.DefaultSensitivity, "minimum gesture score (0-10)")
	flag.StringVar(&o.gapPolicy, "gap-policy", "stale", "baseline after frames without a hand: stale or reset")
	flag.StringVar(&o.clearPolicy, "clear-policy", "keep", "overlay on frames without a hand: keep or clear")
	flag.StringVar(&o.failurePolicy, "failure-policy", "log", "failed detection cycles: log or silent")
	flag.BoolVar(&o.tray, "tray", false, "show a system tray menu")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", opts.logLevel)
		os.Exit(2)
	}

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("mudra failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	config := app.DefaultConfig()
	config.PollInterval = opts.poll
	config.Sensitivity = opts.sensitivity

	var err error
	if config.GapPolicy, err = tracker.ParseGapPolicy(opts.gapPolicy); err != nil {
		return err
	}
	if config.ClearPolicy, err = render.ParseClearPolicy(opts.clearPolicy); err != nil {
		return err
	}
	if config.FailurePolicy, err = app.ParseFailurePolicy(opts.failurePolicy); err != nil {
		return err
	}

	dbPath, err := resolveDBPath(opts.dbPath)
	if err != nil {
		return err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()
	logger.Info("opened database", "path", dbPath)

	classifier := gesture.NewTemplateClassifier(gesture.BuiltinTemplates()...)
	templates := app.NewTemplates(st, classifier, logger)
	if err := templates.Seed(); err != nil {
		return err
	}
	if err := templates.Load(); err != nil {
		return err
	}

	frames := capture.NewTap(capture.NewCamera(opts.camera))
	canvas := render.NewCanvas()
	hub := server.NewHub(logger)

	var menu *tray.Tray
	views := app.StatusViews{hub}
	if opts.tray {
		menu = tray.New()
		views = append(views, menu)
	}

	config.Source = frames
	config.Estimator = newEstimator(opts.scriptPath, logger)
	config.Classifier = classifier
	config.Canvas = canvas
	config.Element = hub
	config.Status = views
	config.Logger = logger

	ctrl, err := app.New(config)
	if err != nil {
		return err
	}
	ctrl.SetEnabled(st.Settings().Bool(store.SettingDetectionEnabled, true))

	srv := server.New(server.Config{
		StaticDir:   opts.webDir,
		Templates:   templates,
		Detection:   ctrl,
		Preferences: st.Settings(),
		Hub:         hub,
		Frames:      frames,
		Overlay:     canvas,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	defer ctrl.Stop()

	httpServer := &http.Server{Addr: opts.addr, Handler: srv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", opts.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if menu != nil {
			menu.Quit()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if menu != nil {
		menu.SetEnabled(ctrl.IsEnabled())
		ctrl.OnEnabledChange(menu.SetEnabled)
		menu.OnToggle(func(enabled bool) {
			ctrl.SetEnabled(enabled)
			if err := st.Settings().SetBool(store.SettingDetectionEnabled, enabled); err != nil {
				logger.Warn("failed to persist detection toggle", "error", err)
			}
		})
		menu.OnOpen(func() { openBrowser(browserURL(opts.addr), logger) })
		menu.OnQuit(stop)

		// The tray owns the main goroutine until it quits
		menu.Run()
		stop()
	}

	return g.Wait()
}

// newEstimator returns the MediaPipe estimator, or a mock that never sees a
// hand when the service script is not installed.
func newEstimator(scriptPath string, logger *slog.Logger) detector.Estimator {
	config := detector.DefaultConfig()
	config.ScriptPath = scriptPath

	mp, err := detector.NewMediaPipeEstimator(config)
	if err != nil {
		logger.Warn("MediaPipe not available, hand detection disabled", "error", err)
		return detector.NewMockEstimator()
	}
	logger.Info("using MediaPipe hand detection")
	return mp
}

// resolveDBPath returns path, or ~/.mudra/mudra.db when empty, creating the
// parent directory.
func resolveDBPath(path string) (string, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".mudra", "mudra.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return path, nil
}

func browserURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}
