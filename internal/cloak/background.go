// Background plate acquisition by temporal averaging
package cloak

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/algorithms"
)

// FrameSource delivers camera frames. Read fills dst and returns ErrNoFrame
// (possibly wrapped) when nothing could be read.
type FrameSource interface {
	Read(dst *gocv.Mat) error
}

// CaptureObserver is shown every frame read during a capture so the operator
// can follow the countdown and the sample progress. Implementations must not
// retain the frame.
type CaptureObserver interface {
	Countdown(frame gocv.Mat, remaining int)
	Sample(frame gocv.Mat, index, total int)
}

// Plate is an averaged image of the empty scene
type Plate struct {
	mat        gocv.Mat
	samples    int
	capturedAt time.Time
}

// NewPlate wraps mat as a plate and takes ownership of it
func NewPlate(mat gocv.Mat, samples int) (*Plate, error) {
	if err := ValidateFrame(mat); err != nil {
		return nil, fmt.Errorf("plate: %w", err)
	}
	return &Plate{mat: mat, samples: samples, capturedAt: time.Now()}, nil
}

// Mat returns the plate image. The plate keeps ownership.
func (p *Plate) Mat() gocv.Mat {
	return p.mat
}

// Samples is the number of frames averaged into the plate
func (p *Plate) Samples() int {
	return p.samples
}

// CapturedAt returns the time the plate was built
func (p *Plate) CapturedAt() time.Time {
	return p.capturedAt
}

// Close releases the plate image
func (p *Plate) Close() {
	p.mat.Close()
}

// EstimatorConfig controls the capture protocol
type EstimatorConfig struct {
	SampleCount     int // frames averaged into the plate
	CountdownFrames int // frames discarded before sampling
	FramesPerCount  int // countdown frames shown per digit
	BlurKernel      int // gaussian kernel applied to the mean
}

// DefaultEstimatorConfig returns 30 samples after a 3-2-1 countdown of 60 frames
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		SampleCount:     30,
		CountdownFrames: 60,
		FramesPerCount:  20,
		BlurKernel:      5,
	}
}

// Estimator builds background plates from a frame source
type Estimator struct {
	config EstimatorConfig
	logger logrus.FieldLogger
}

// NewEstimator creates a new estimator
func NewEstimator(config EstimatorConfig, logger logrus.FieldLogger) *Estimator {
	if config.FramesPerCount < 1 {
		config.FramesPerCount = 1
	}
	return &Estimator{config: config, logger: logger}
}

// Config returns the estimator configuration
func (e *Estimator) Config() EstimatorConfig {
	return e.config
}

// Capture runs the countdown, then averages sampleCount frames and blurs the
// mean. Frames that fail to read are skipped. It returns
// ErrBackgroundCaptureFailed when no sample was read; no plate is produced in
// that case. observer may be nil.
func (e *Estimator) Capture(ctx context.Context, src FrameSource, sampleCount int, observer CaptureObserver) (*Plate, error) {
	start := time.Now()
	e.logger.WithFields(logrus.Fields{
		"samples":   sampleCount,
		"countdown": e.config.CountdownFrames,
	}).Info("BACKGROUND: Starting capture, clear the scene")

	frame := gocv.NewMat()
	defer frame.Close()

	if err := e.countdown(ctx, src, &frame, observer); err != nil {
		return nil, err
	}

	sum := gocv.NewMat()
	defer func() { sum.Close() }()
	sample := gocv.NewMat()
	defer sample.Close()

	read := 0
	for i := 0; i < sampleCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := src.Read(&frame); err != nil {
			e.logger.WithError(err).Debug("BACKGROUND: Skipping unreadable sample")
			continue
		}
		if ValidateFrame(frame) != nil {
			continue
		}

		if read == 0 {
			sum.Close()
			sum = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), frame.Rows(), frame.Cols(), gocv.MatTypeCV32FC3)
		} else if frame.Rows() != sum.Rows() || frame.Cols() != sum.Cols() {
			e.logger.WithFields(logrus.Fields{
				"width":  frame.Cols(),
				"height": frame.Rows(),
			}).Warn("BACKGROUND: Skipping sample with unexpected size")
			continue
		}

		frame.ConvertTo(&sample, gocv.MatTypeCV32FC3)
		gocv.Add(sum, sample, &sum)
		read++

		if observer != nil {
			observer.Sample(frame, i+1, sampleCount)
		}
	}

	if read == 0 {
		e.logger.Error("BACKGROUND: No frames could be read")
		return nil, ErrBackgroundCaptureFailed
	}

	sum.DivideFloat(float32(read))
	mean := gocv.NewMat()
	defer mean.Close()
	sum.ConvertTo(&mean, gocv.MatTypeCV8UC3)

	blurred, err := algorithms.GaussianSmooth(mean, e.config.BlurKernel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackgroundCaptureFailed, err)
	}

	plate, err := NewPlate(blurred, read)
	if err != nil {
		blurred.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackgroundCaptureFailed, err)
	}

	e.logger.WithFields(logrus.Fields{
		"samples":     read,
		"requested":   sampleCount,
		"width":       blurred.Cols(),
		"height":      blurred.Rows(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("BACKGROUND: Capture completed")

	return plate, nil
}

func (e *Estimator) countdown(ctx context.Context, src FrameSource, frame *gocv.Mat, observer CaptureObserver) error {
	per := e.config.FramesPerCount
	digits := (e.config.CountdownFrames + per - 1) / per

	for i := 0; i < e.config.CountdownFrames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := src.Read(frame); err != nil {
			continue
		}
		if observer != nil {
			observer.Countdown(*frame, digits-i/per)
		}
	}
	return nil
}
