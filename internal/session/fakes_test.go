package session

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/algorithms"
	"invisibility-cloak/internal/cloak"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// frameSource replays one frame until limit reads, then reports ErrNoFrame
type frameSource struct {
	frame gocv.Mat
	limit int
	reads int
	err   error
}

func (s *frameSource) Read(dst *gocv.Mat) error {
	s.reads++
	if s.err != nil {
		return s.err
	}
	if s.limit > 0 && s.reads > s.limit {
		return cloak.ErrNoFrame
	}
	s.frame.CopyTo(dst)
	return nil
}

type display struct {
	shown int
	last  []byte
}

func (d *display) Show(frame gocv.Mat) {
	d.shown++
	d.last = frame.ToBytes()
}

type commands struct {
	queue []Command
}

func (c *commands) Poll() Command {
	if len(c.queue) == 0 {
		return CommandNone
	}
	cmd := c.queue[0]
	c.queue = c.queue[1:]
	return cmd
}

type recorder struct {
	writes int
	closed bool
}

func (r *recorder) Write(gocv.Mat) error { r.writes++; return nil }
func (r *recorder) Close() error         { r.closed = true; return nil }

type recordingSink struct {
	openErr error
	opened  []*recorder
	width   int
	height  int
	fps     float64
}

func (s *recordingSink) Open(width, height int, fps float64) (Recorder, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.width, s.height, s.fps = width, height, fps
	r := &recorder{}
	s.opened = append(s.opened, r)
	return r, nil
}

type tuner struct {
	active     bool
	live       *cloak.ColorRange
	persistErr error
	persisted  map[string]cloak.ColorRange
}

func (t *tuner) SetActive(active bool) { t.active = active }
func (t *tuner) IsActive() bool        { return t.active }

func (t *tuner) CurrentRange() (cloak.ColorRange, bool) {
	if !t.active || t.live == nil {
		return cloak.ColorRange{}, false
	}
	return *t.live, true
}

func (t *tuner) Persist(r cloak.ColorRange, destination string) error {
	if t.persistErr != nil {
		return t.persistErr
	}
	if t.persisted == nil {
		t.persisted = map[string]cloak.ColorRange{}
	}
	t.persisted[destination] = r
	return nil
}

type plateSaver struct {
	saved int
}

func (p *plateSaver) SavePlate(*cloak.Plate) error {
	p.saved++
	return nil
}

var errDisk = errors.New("disk full")

type fixture struct {
	source   *frameSource
	display  *display
	commands *commands
	sink     *recordingSink
	tuner    *tuner
	saver    *plateSaver
	ctrl     *Controller
}

func newFixture(t *testing.T, frame gocv.Mat) *fixture {
	t.Helper()
	kernel, err := algorithms.NewRectKernel(3)
	require.NoError(t, err)
	t.Cleanup(kernel.Close)

	f := &fixture{
		source:   &frameSource{frame: frame},
		display:  &display{},
		commands: &commands{},
		sink:     &recordingSink{},
		tuner:    &tuner{},
		saver:    &plateSaver{},
	}

	est := cloak.EstimatorConfig{SampleCount: 3, CountdownFrames: 0, FramesPerCount: 1, BlurKernel: 5}
	ctrl, err := NewController(Config{
		Presets:     cloak.DefaultPresets(),
		SampleCount: 3,
		RecordFPS:   30,
		TuningPath:  "custom_hsv.json",
	}, Deps{
		Source:     f.source,
		Display:    f.display,
		Commands:   f.commands,
		Effect:     cloak.NewEffect(cloak.NewSegmenter(), cloak.NewRefiner(kernel, cloak.DefaultMinRegionArea), cloak.NewCompositor()),
		Estimator:  cloak.NewEstimator(est, quietLogger()),
		Recorder:   f.sink,
		Tuner:      f.tuner,
		PlateSaver: f.saver,
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	f.ctrl = ctrl
	return f
}
