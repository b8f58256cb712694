package cloak

import "errors"

var (
	// ErrNoFrame is returned by a FrameSource that cannot deliver a frame.
	ErrNoFrame = errors.New("no frame available")

	// ErrBackgroundCaptureFailed means no sample could be read during capture.
	ErrBackgroundCaptureFailed = errors.New("background capture failed")

	// ErrDimensionMismatch means frame, plate and mask do not share a geometry.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
