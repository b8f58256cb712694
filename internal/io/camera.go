// Camera frame source over OpenCV video capture
package io

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/cloak"
)

// CameraConfig selects and configures the capture device
type CameraConfig struct {
	Device string // camera index ("0") or a video file path
	Width  int
	Height int
	FPS    float64
	Mirror bool // flip frames horizontally
}

// Camera reads frames from a webcam or video file
type Camera struct {
	capture *gocv.VideoCapture
	raw     gocv.Mat
	mirror  bool
	width   int
	height  int
	fps     float64
}

// OpenCamera opens the device and applies the requested properties.
// The caller must Close the camera.
func OpenCamera(cfg CameraConfig, logger logrus.FieldLogger) (*Camera, error) {
	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return nil, fmt.Errorf("cannot open camera %s: %w", cfg.Device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("cannot open camera %s", cfg.Device)
	}

	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		capture.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}

	c := &Camera{
		capture: capture,
		raw:     gocv.NewMat(),
		mirror:  cfg.Mirror,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}

	logger.WithFields(logrus.Fields{
		"device": cfg.Device,
		"width":  c.width,
		"height": c.height,
		"fps":    c.fps,
		"mirror": c.mirror,
	}).Info("CAMERA: Initialized")

	return c, nil
}

// Read grabs the next frame into dst
func (c *Camera) Read(dst *gocv.Mat) error {
	if ok := c.capture.Read(&c.raw); !ok || c.raw.Empty() {
		return cloak.ErrNoFrame
	}
	if c.mirror {
		gocv.Flip(c.raw, dst, 1)
		return nil
	}
	c.raw.CopyTo(dst)
	return nil
}

// Width is the frame width reported by the device
func (c *Camera) Width() int { return c.width }

// Height is the frame height reported by the device
func (c *Camera) Height() int { return c.height }

// FPS is the frame rate reported by the device
func (c *Camera) FPS() float64 { return c.fps }

// Close releases the device
func (c *Camera) Close() error {
	c.raw.Close()
	return c.capture.Close()
}
