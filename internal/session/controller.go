// Session state machine driving the per-frame cloak pipeline
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/cloak"
	"invisibility-cloak/internal/metrics"
)

var (
	// ErrQuit is returned by Tick when the operator asked to stop
	ErrQuit = errors.New("quit requested")

	ErrRecordingStartFailed = errors.New("recording start failed")
	ErrOpenFailed           = errors.New("recording output could not be opened")
	ErrNoActiveTuning       = errors.New("no active tuning")
)

// Config holds the session parameters
type Config struct {
	Presets       []cloak.Preset
	InitialPreset int
	SampleCount   int
	RecordFPS     float64
	TuningPath    string
}

// Deps are the collaborators of a Controller. Source, Display, Commands,
// Effect and Estimator are required.
type Deps struct {
	Source    FrameSource
	Display   DisplaySink
	Commands  CommandSource
	Effect    *cloak.Effect
	Estimator *cloak.Estimator

	Recorder   RecordingSink
	Tuner      TuningSurface
	Observer   cloak.CaptureObserver
	PlateSaver PlateSaver
}

// Controller owns all mutable session state. It is driven from a single
// goroutine, one frame per Tick.
type Controller struct {
	cfg    Config
	deps   Deps
	logger logrus.FieldLogger
	id     string

	phase       Phase
	plate       *cloak.Plate
	presetIndex int
	tunerActive bool
	recording   Recorder

	frame    gocv.Mat
	fps      *metrics.FPSCounter
	coverage float64
}

// NewController validates the configuration and creates a controller in
// the BackgroundUnset phase
func NewController(cfg Config, deps Deps, logger logrus.FieldLogger) (*Controller, error) {
	if deps.Source == nil || deps.Display == nil || deps.Commands == nil {
		return nil, fmt.Errorf("source, display and command source are required")
	}
	if deps.Effect == nil || deps.Estimator == nil {
		return nil, fmt.Errorf("effect and estimator are required")
	}
	if len(cfg.Presets) == 0 {
		return nil, fmt.Errorf("at least one color preset is required")
	}
	if cfg.InitialPreset < 0 || cfg.InitialPreset >= len(cfg.Presets) {
		return nil, fmt.Errorf("initial preset %d out of range [0, %d)", cfg.InitialPreset, len(cfg.Presets))
	}
	if cfg.SampleCount < 1 {
		cfg.SampleCount = deps.Estimator.Config().SampleCount
	}
	if cfg.RecordFPS <= 0 {
		cfg.RecordFPS = 30
	}

	id := uuid.New().String()
	return &Controller{
		cfg:         cfg,
		deps:        deps,
		logger:      logger.WithField("session_id", id),
		id:          id,
		phase:       PhaseBackgroundUnset,
		presetIndex: cfg.InitialPreset,
		frame:       gocv.NewMat(),
		fps:         metrics.NewFPSCounter(metrics.DefaultFPSWindow),
	}, nil
}

// State returns a snapshot of the session
func (c *Controller) State() State {
	return State{
		SessionID:   c.id,
		Phase:       c.phase,
		PresetIndex: c.presetIndex,
		PresetName:  c.cfg.Presets[c.presetIndex].Name,
		TunerActive: c.tunerActive,
		Recording:   c.recording != nil,
		FPS:         c.fps.FPS(),
		Coverage:    c.coverage,
	}
}

// Plate returns the current background plate, nil when unset
func (c *Controller) Plate() *cloak.Plate {
	return c.plate
}

// InstallPlate replaces the background plate, e.g. with one loaded from disk
func (c *Controller) InstallPlate(plate *cloak.Plate) {
	if c.plate != nil {
		c.plate.Close()
	}
	c.plate = plate
	c.phase = PhaseBackgroundUnset
	if plate != nil {
		c.phase = PhaseBackgroundSet
	}
}

// Run ticks until the operator quits, the source runs dry or ctx ends.
// An active recording is closed on every exit path.
func (c *Controller) Run(ctx context.Context) error {
	defer c.stopRecording()

	c.logger.WithFields(logrus.Fields{
		"preset":  c.cfg.Presets[c.presetIndex].Name,
		"presets": len(c.cfg.Presets),
	}).Info("SESSION: Started")

	for {
		err := c.Tick(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrQuit) {
			c.logger.Info("SESSION: Quit requested")
			return nil
		}
		return err
	}
}

// Tick reads one frame, renders it, and processes at most one command.
// It returns only fatal errors; failed commands are logged.
func (c *Controller) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.deps.Source.Read(&c.frame); err != nil {
		if !errors.Is(err, cloak.ErrNoFrame) {
			err = fmt.Errorf("%w: %w", cloak.ErrNoFrame, err)
		}
		c.logger.WithError(err).Warn("SESSION: Failed to read frame")
		return err
	}
	c.fps.Tick()

	out, err := c.deps.Effect.Apply(c.frame, c.plate, c.activeRanges())
	if err != nil {
		c.logger.WithError(err).Error("SESSION: Frame processing failed")
		return err
	}
	c.coverage = out.Coverage

	c.deps.Display.Show(out.Frame)
	if c.recording != nil {
		if err := c.recording.Write(out.Frame); err != nil {
			c.logger.WithError(err).Warn("SESSION: Failed to write frame to recording")
		}
	}
	out.Frame.Close()

	cmd := c.deps.Commands.Poll()
	if cmd == CommandNone {
		return nil
	}
	if err := c.Handle(ctx, cmd); err != nil {
		if errors.Is(err, ErrQuit) || ctx.Err() != nil {
			return err
		}
		c.logger.WithError(err).WithField("command", cmd.String()).Warn("SESSION: Command failed")
	}
	return nil
}

// Handle applies one command. A failing command leaves the state unchanged.
func (c *Controller) Handle(ctx context.Context, cmd Command) error {
	switch cmd {
	case CommandNone:
		return nil
	case CommandQuit:
		return ErrQuit
	case CommandCaptureBackground:
		return c.captureBackground(ctx)
	case CommandResetBackground:
		c.InstallPlate(nil)
		c.logger.Info("SESSION: Background reset")
		return nil
	case CommandCyclePreset:
		c.presetIndex = (c.presetIndex + 1) % len(c.cfg.Presets)
		preset := c.cfg.Presets[c.presetIndex]
		c.logger.WithFields(logrus.Fields{
			"preset":      preset.Name,
			"description": preset.Description,
		}).Info("SESSION: Switched color preset")
		return nil
	case CommandToggleTuner:
		c.toggleTuner()
		return nil
	case CommandToggleRecording:
		if c.recording != nil {
			c.stopRecording()
			return nil
		}
		return c.startRecording()
	case CommandSaveTuning:
		return c.saveTuning()
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

// Close releases the plate and frame buffers and any open recording
func (c *Controller) Close() {
	c.stopRecording()
	if c.plate != nil {
		c.plate.Close()
		c.plate = nil
	}
	c.frame.Close()
}

func (c *Controller) activeRanges() []cloak.ColorRange {
	if c.tunerActive && c.deps.Tuner != nil && c.deps.Tuner.IsActive() {
		if r, ok := c.deps.Tuner.CurrentRange(); ok {
			return []cloak.ColorRange{r}
		}
	}
	return c.cfg.Presets[c.presetIndex].Ranges
}

func (c *Controller) captureBackground(ctx context.Context) error {
	prev := c.phase
	c.phase = PhaseEstimating
	plate, err := c.deps.Estimator.Capture(ctx, c.deps.Source, c.cfg.SampleCount, c.deps.Observer)
	c.phase = prev
	if err != nil {
		return err
	}

	c.InstallPlate(plate)
	c.logger.WithField("samples", plate.Samples()).Info("SESSION: Background captured")

	if c.deps.PlateSaver != nil {
		if err := c.deps.PlateSaver.SavePlate(plate); err != nil {
			c.logger.WithError(err).Warn("SESSION: Failed to save background plate")
		}
	}
	return nil
}

func (c *Controller) toggleTuner() {
	want := !c.tunerActive
	if c.deps.Tuner != nil {
		c.deps.Tuner.SetActive(want)
		want = c.deps.Tuner.IsActive()
	}
	c.tunerActive = want
	c.logger.WithField("active", c.tunerActive).Info("SESSION: HSV tuner toggled")
}

func (c *Controller) startRecording() error {
	if c.deps.Recorder == nil {
		return fmt.Errorf("%w: no recording sink configured", ErrRecordingStartFailed)
	}

	probe := gocv.NewMat()
	defer probe.Close()
	if err := c.deps.Source.Read(&probe); err != nil {
		return fmt.Errorf("%w: %w", ErrRecordingStartFailed, err)
	}
	if probe.Empty() {
		return fmt.Errorf("%w: %w", ErrRecordingStartFailed, cloak.ErrNoFrame)
	}

	rec, err := c.deps.Recorder.Open(probe.Cols(), probe.Rows(), c.cfg.RecordFPS)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecordingStartFailed, err)
	}
	c.recording = rec
	c.logger.WithFields(logrus.Fields{
		"width":  probe.Cols(),
		"height": probe.Rows(),
		"fps":    c.cfg.RecordFPS,
	}).Info("SESSION: Recording started")
	return nil
}

func (c *Controller) stopRecording() {
	if c.recording == nil {
		return
	}
	if err := c.recording.Close(); err != nil {
		c.logger.WithError(err).Warn("SESSION: Failed to close recording")
	}
	c.recording = nil
	c.logger.Info("SESSION: Recording stopped")
}

func (c *Controller) saveTuning() error {
	if !c.tunerActive || c.deps.Tuner == nil {
		return ErrNoActiveTuning
	}
	r, ok := c.deps.Tuner.CurrentRange()
	if !ok {
		return ErrNoActiveTuning
	}
	if err := c.deps.Tuner.Persist(r, c.cfg.TuningPath); err != nil {
		return fmt.Errorf("save tuning: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"range": r.String(),
		"path":  c.cfg.TuningPath,
	}).Info("SESSION: HSV settings saved")
	return nil
}
