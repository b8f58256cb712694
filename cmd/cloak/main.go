// Invisibility cloak: real-time color keyed background replacement

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"invisibility-cloak/internal/algorithms"
	"invisibility-cloak/internal/cloak"
	"invisibility-cloak/internal/config"
	"invisibility-cloak/internal/gui"
	"invisibility-cloak/internal/io"
	"invisibility-cloak/internal/session"
)

const (
	AppID      = "com.invisibility-cloak.app"
	AppVersion = "1.0.0"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := initLogger(cfg.Debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"camera":     cfg.Camera.Device,
		"color":      cfg.Effect.Color,
	}).Info("Starting Invisibility Cloak")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Application terminated with error")
		os.Exit(1)
	}

	logger.Info("Application shutting down gracefully")
}

func run(cfg config.Config, logger *logrus.Logger) error {
	tuningStore := io.NewTuningStore(logger)
	presets := loadPresets(tuningStore, cfg.Tuning.Path, logger)
	initial, err := cloak.PresetIndex(presets, cfg.Effect.Color)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, cloak.PresetNames(presets))
	}

	camera, err := io.OpenCamera(io.CameraConfig{
		Device: cfg.Camera.Device,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
		Mirror: cfg.Camera.Mirror,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := camera.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release camera")
		}
		logger.Info("CAMERA: Released")
	}()

	kernel, err := algorithms.NewRectKernel(cfg.Effect.MorphKernel)
	if err != nil {
		return err
	}
	defer kernel.Close()

	effect := cloak.NewEffect(
		cloak.NewSegmenter(),
		cloak.NewRefiner(kernel, cfg.Effect.MinRegionArea),
		cloak.NewCompositor(),
	)
	estimator := cloak.NewEstimator(cfg.EstimatorConfig(), logger)
	loader := io.NewImageLoader(logger)

	fyneApp := app.NewWithID(AppID)
	fyneApp.Settings().SetTheme(theme.DefaultTheme())
	ui := gui.NewApplication(fyneApp, tuningStore, logger)

	deps := session.Deps{
		Source:    camera,
		Display:   ui.Display(),
		Commands:  ui.Commands(),
		Effect:    effect,
		Estimator: estimator,
		Recorder:  io.NewVideoRecorder(cfg.Recording.Dir, cfg.Recording.Codec, logger),
		Tuner:     ui.Tuner(),
		Observer:  ui.Display(),
	}
	if cfg.Plate.Save != "" {
		snapshot, err := io.NewPlateSnapshot(loader, cfg.Plate.Save)
		if err != nil {
			return err
		}
		deps.PlateSaver = snapshot
	}

	ctrl, err := session.NewController(session.Config{
		Presets:       presets,
		InitialPreset: initial,
		SampleCount:   cfg.Effect.SampleCount,
		RecordFPS:     cfg.Recording.FPS,
		TuningPath:    cfg.Tuning.Path,
	}, deps, logger)
	if err != nil {
		return err
	}
	ui.Display().SetStatusSource(ctrl.State)

	if cfg.Plate.Load != "" {
		preloadPlate(ctrl, loader, cfg.Plate.Load, camera, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		defer ctrl.Close()
		err := ctrl.Run(ctx)
		ui.Quit()
		done <- err
	}()

	ui.ShowAndRun(stop)
	stop()

	err = <-done
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("SESSION: Interrupted")
		return nil
	case errors.Is(err, cloak.ErrNoFrame):
		logger.WithError(err).Info("SESSION: Camera stopped delivering frames")
		return nil
	}
	return err
}

// loadPresets returns the built-in presets followed by the saved custom
// range, when one exists
func loadPresets(store *io.TuningStore, path string, logger logrus.FieldLogger) []cloak.Preset {
	presets := cloak.DefaultPresets()

	custom, err := store.Load(path)
	switch {
	case err == nil:
		presets = append(presets, custom)
		logger.WithFields(logrus.Fields{
			"path":   path,
			"ranges": len(custom.Ranges),
		}).Info("TUNER: Loaded custom preset")
	case errors.Is(err, os.ErrNotExist):
	default:
		logger.WithError(err).WithField("path", path).Warn("TUNER: Ignoring unreadable tuning file")
	}
	return presets
}

func preloadPlate(ctrl *session.Controller, loader *io.ImageLoader, path string, camera *io.Camera, logger logrus.FieldLogger) {
	plate, err := loader.LoadPlate(path)
	if err != nil {
		logger.WithError(err).Warn("BACKGROUND: Could not load plate")
		return
	}

	m := plate.Mat()
	if m.Cols() != camera.Width() || m.Rows() != camera.Height() {
		logger.WithError(cloak.ErrDimensionMismatch).WithFields(logrus.Fields{
			"plate":  fmt.Sprintf("%dx%d", m.Cols(), m.Rows()),
			"camera": fmt.Sprintf("%dx%d", camera.Width(), camera.Height()),
		}).Warn("BACKGROUND: Ignoring plate with different size than the camera")
		plate.Close()
		return
	}

	ctrl.InstallPlate(plate)
	logger.WithField("path", path).Info("BACKGROUND: Plate installed from file")
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
