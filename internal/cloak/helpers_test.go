package cloak

import (
	"image"
	"io"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	bgrRed   = gocv.NewScalar(0, 0, 255, 0)
	bgrGray  = gocv.NewScalar(128, 128, 128, 0)
	bgrTeal  = gocv.NewScalar(200, 160, 20, 0)
	maskOn   = gocv.NewScalar(255, 0, 0, 0)
	scalar0  = gocv.NewScalar(0, 0, 0, 0)
	redRange = DefaultPresets()[0].Ranges
)

func solidFrame(rows, cols int, c gocv.Scalar) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(c, rows, cols, gocv.MatTypeCV8UC3)
}

func blankMask(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(scalar0, rows, cols, gocv.MatTypeCV8UC1)
}

func fillRect(m gocv.Mat, r image.Rectangle, c gocv.Scalar) {
	region := m.Region(r)
	region.SetTo(c)
	region.Close()
}

func pixel(m gocv.Mat, row, col int) [3]uint8 {
	v := m.GetVecbAt(row, col)
	return [3]uint8{v[0], v[1], v[2]}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// scriptedSource replays frames in order; indexes listed in fail return ErrNoFrame
type scriptedSource struct {
	frames []gocv.Mat
	fail   map[int]bool
	reads  int
}

func (s *scriptedSource) Read(dst *gocv.Mat) error {
	i := s.reads
	s.reads++
	if s.fail[i] || len(s.frames) == 0 {
		return ErrNoFrame
	}
	s.frames[i%len(s.frames)].CopyTo(dst)
	return nil
}

type recordingObserver struct {
	countdown []int
	samples   []int
}

func (o *recordingObserver) Countdown(_ gocv.Mat, remaining int) {
	o.countdown = append(o.countdown, remaining)
}

func (o *recordingObserver) Sample(_ gocv.Mat, index, _ int) {
	o.samples = append(o.samples, index)
}
