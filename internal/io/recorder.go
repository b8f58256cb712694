// Video recording sink over OpenCV video writer
package io

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/session"
)

// DefaultCodec is the fourcc used for recordings
const DefaultCodec = "mp4v"

// RecordingFileName returns the timestamped name of a recording started at t
func RecordingFileName(t time.Time) string {
	return fmt.Sprintf("invisibility_cloak_%s.mp4", t.Format("20060102_150405"))
}

// VideoRecorder opens timestamped video files in a directory
type VideoRecorder struct {
	dir    string
	codec  string
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewVideoRecorder creates a recording sink writing into dir
func NewVideoRecorder(dir, codec string, logger logrus.FieldLogger) *VideoRecorder {
	if codec == "" {
		codec = DefaultCodec
	}
	return &VideoRecorder{
		dir:    dir,
		codec:  codec,
		logger: logger,
		now:    time.Now,
	}
}

// Open starts a new recording. Failures wrap session.ErrOpenFailed.
func (vr *VideoRecorder) Open(width, height int, fps float64) (session.Recorder, error) {
	path := filepath.Join(vr.dir, RecordingFileName(vr.now()))

	writer, err := gocv.VideoWriterFile(path, vr.codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", session.ErrOpenFailed, path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("%w: %s", session.ErrOpenFailed, path)
	}

	vr.logger.WithFields(logrus.Fields{
		"path":   path,
		"codec":  vr.codec,
		"width":  width,
		"height": height,
		"fps":    fps,
	}).Info("RECORDER: Recording opened")

	return &videoFile{writer: writer, path: path, logger: vr.logger}, nil
}

type videoFile struct {
	writer *gocv.VideoWriter
	path   string
	frames int
	logger logrus.FieldLogger
}

func (vf *videoFile) Write(frame gocv.Mat) error {
	if err := vf.writer.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", vf.path, err)
	}
	vf.frames++
	return nil
}

func (vf *videoFile) Close() error {
	vf.logger.WithFields(logrus.Fields{
		"path":   vf.path,
		"frames": vf.frames,
	}).Info("RECORDER: Recording closed")
	return vf.writer.Close()
}
