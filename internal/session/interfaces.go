// Capability interfaces the session consumes
package session

import (
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/cloak"
)

// FrameSource delivers one camera frame per call
type FrameSource = cloak.FrameSource

// DisplaySink shows a frame to the operator. It must not retain the frame.
type DisplaySink interface {
	Show(frame gocv.Mat)
}

// RecordingSink opens video outputs
type RecordingSink interface {
	Open(width, height int, fps float64) (Recorder, error)
}

// Recorder is an open video output
type Recorder interface {
	Write(frame gocv.Mat) error
	Close() error
}

// TuningSurface is an interactive HSV range editor
type TuningSurface interface {
	SetActive(active bool)
	IsActive() bool
	// CurrentRange returns the live range, false when none is available
	CurrentRange() (cloak.ColorRange, bool)
	Persist(r cloak.ColorRange, destination string) error
}

// CommandSource yields at most one operator command per tick.
// CommandNone means nothing was requested.
type CommandSource interface {
	Poll() Command
}

// PlateSaver stores newly captured plates
type PlateSaver interface {
	SavePlate(plate *cloak.Plate) error
}
