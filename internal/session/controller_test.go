package session

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/cloak"
)

const sceneSize = 100

var (
	redBlock  = image.Rect(10, 10, 40, 40)
	blueBlock = image.Rect(55, 55, 90, 90)
	teal      = [3]uint8{200, 160, 20}
)

// sceneFrame is gray with one red and one blue block, both above the area threshold
func sceneFrame(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), sceneSize, sceneSize, gocv.MatTypeCV8UC3)
	for r, c := range map[image.Rectangle]gocv.Scalar{
		redBlock:  gocv.NewScalar(0, 0, 255, 0),
		blueBlock: gocv.NewScalar(255, 0, 0, 0),
	} {
		region := m.Region(r)
		region.SetTo(c)
		region.Close()
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func tealPlate(t *testing.T) *cloak.Plate {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 160, 20, 0), sceneSize, sceneSize, gocv.MatTypeCV8UC3)
	p, err := cloak.NewPlate(m, 1)
	require.NoError(t, err)
	return p
}

func shownPixel(d *display, x, y int) [3]uint8 {
	i := (y*sceneSize + x) * 3
	return [3]uint8{d.last[i], d.last[i+1], d.last[i+2]}
}

func center(r image.Rectangle) (int, int) {
	return (r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2
}

func TestController_InitialState(t *testing.T) {
	f := newFixture(t, sceneFrame(t))

	st := f.ctrl.State()
	want := State{Phase: PhaseBackgroundUnset, PresetIndex: 0, PresetName: "red"}
	if diff := cmp.Diff(want, st, cmpopts.IgnoreFields(State{}, "SessionID")); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
	_, err := uuid.Parse(st.SessionID)
	assert.NoError(t, err)
	assert.Nil(t, f.ctrl.Plate())
}

func TestNewController_Validation(t *testing.T) {
	_, err := NewController(Config{Presets: cloak.DefaultPresets()}, Deps{}, quietLogger())
	assert.Error(t, err)

	f := newFixture(t, sceneFrame(t))
	deps := f.ctrl.deps

	_, err = NewController(Config{}, deps, quietLogger())
	assert.Error(t, err, "no presets")

	_, err = NewController(Config{Presets: cloak.DefaultPresets(), InitialPreset: 4}, deps, quietLogger())
	assert.Error(t, err, "preset index out of range")
}

func TestController_ToggleRecordingTwice(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, CommandToggleRecording))
	assert.True(t, f.ctrl.State().Recording)
	require.Len(t, f.sink.opened, 1)
	assert.Equal(t, sceneSize, f.sink.width)
	assert.Equal(t, sceneSize, f.sink.height)
	assert.Equal(t, 30.0, f.sink.fps)

	require.NoError(t, f.ctrl.Handle(ctx, CommandToggleRecording))
	assert.False(t, f.ctrl.State().Recording)
	assert.True(t, f.sink.opened[0].closed)
}

func TestController_RecordingStartNeedsFrame(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.source.err = cloak.ErrNoFrame

	err := f.ctrl.Handle(context.Background(), CommandToggleRecording)
	assert.ErrorIs(t, err, ErrRecordingStartFailed)
	assert.ErrorIs(t, err, cloak.ErrNoFrame)
	assert.False(t, f.ctrl.State().Recording)
	assert.Empty(t, f.sink.opened)
}

func TestController_RecordingOpenFailure(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.sink.openErr = ErrOpenFailed

	err := f.ctrl.Handle(context.Background(), CommandToggleRecording)
	assert.ErrorIs(t, err, ErrRecordingStartFailed)
	assert.ErrorIs(t, err, ErrOpenFailed)
	assert.False(t, f.ctrl.State().Recording)
}

func TestController_CaptureFailureFromUnset(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.source.err = cloak.ErrNoFrame

	err := f.ctrl.Handle(context.Background(), CommandCaptureBackground)
	assert.ErrorIs(t, err, cloak.ErrBackgroundCaptureFailed)
	assert.Equal(t, PhaseBackgroundUnset, f.ctrl.State().Phase)
	assert.Nil(t, f.ctrl.Plate())
	assert.Zero(t, f.saver.saved)
}

func TestController_CaptureFailureKeepsPlate(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, CommandCaptureBackground))
	plate := f.ctrl.Plate()
	require.NotNil(t, plate)
	plateMat := plate.Mat()
	before := plateMat.ToBytes()

	f.source.err = cloak.ErrNoFrame
	err := f.ctrl.Handle(ctx, CommandCaptureBackground)
	assert.ErrorIs(t, err, cloak.ErrBackgroundCaptureFailed)

	assert.Same(t, plate, f.ctrl.Plate())
	afterMat := f.ctrl.Plate().Mat()
	assert.Equal(t, before, afterMat.ToBytes())
	assert.Equal(t, PhaseBackgroundSet, f.ctrl.State().Phase)
	assert.Equal(t, 1, f.saver.saved)
}

func TestController_CaptureThenReset(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, CommandCaptureBackground))
	assert.Equal(t, PhaseBackgroundSet, f.ctrl.State().Phase)
	assert.Equal(t, 3, f.ctrl.Plate().Samples())

	require.NoError(t, f.ctrl.Handle(ctx, CommandResetBackground))
	assert.Equal(t, PhaseBackgroundUnset, f.ctrl.State().Phase)
	assert.Nil(t, f.ctrl.Plate())
}

func TestController_CyclePresetWraps(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx := context.Background()

	names := []string{"blue", "green", "yellow", "red"}
	for _, name := range names {
		require.NoError(t, f.ctrl.Handle(ctx, CommandCyclePreset))
		assert.Equal(t, name, f.ctrl.State().PresetName)
	}
	assert.Equal(t, 0, f.ctrl.State().PresetIndex)
	assert.False(t, f.ctrl.State().TunerActive)
	assert.False(t, f.tuner.active)
}

func TestController_SaveTuning(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx := context.Background()

	assert.ErrorIs(t, f.ctrl.Handle(ctx, CommandSaveTuning), ErrNoActiveTuning)

	live := cloak.NewColorRange(cloak.HSV{5, 100, 100}, cloak.HSV{15, 255, 255})
	f.tuner.live = &live
	require.NoError(t, f.ctrl.Handle(ctx, CommandToggleTuner))
	assert.True(t, f.ctrl.State().TunerActive)

	require.NoError(t, f.ctrl.Handle(ctx, CommandSaveTuning))
	assert.Equal(t, live, f.tuner.persisted["custom_hsv.json"])

	f.tuner.persistErr = errDisk
	err := f.ctrl.Handle(ctx, CommandSaveTuning)
	assert.ErrorIs(t, err, errDisk)
	assert.True(t, f.ctrl.State().TunerActive)

	require.NoError(t, f.ctrl.Handle(ctx, CommandToggleTuner))
	assert.False(t, f.tuner.active)
	assert.ErrorIs(t, f.ctrl.Handle(ctx, CommandSaveTuning), ErrNoActiveTuning)
}

func TestController_TickWithoutPlateShowsRawFrame(t *testing.T) {
	frame := sceneFrame(t)
	f := newFixture(t, frame)

	require.NoError(t, f.ctrl.Tick(context.Background()))
	assert.Equal(t, frame.ToBytes(), f.display.last)
	assert.Zero(t, f.ctrl.State().Coverage)
}

func TestController_TunerOverrideReplacesPreset(t *testing.T) {
	frame := sceneFrame(t)
	f := newFixture(t, frame)
	ctx := context.Background()
	f.ctrl.InstallPlate(tealPlate(t))

	rx, ry := center(redBlock)
	bx, by := center(blueBlock)

	require.NoError(t, f.ctrl.Tick(ctx))
	assert.Equal(t, teal, shownPixel(f.display, rx, ry), "red preset hides the red block")
	assert.Equal(t, [3]uint8{255, 0, 0}, shownPixel(f.display, bx, by))
	assert.Greater(t, f.ctrl.State().Coverage, 0.0)

	blue := cloak.DefaultPresets()[1].Ranges[0]
	f.tuner.live = &blue
	require.NoError(t, f.ctrl.Handle(ctx, CommandToggleTuner))

	require.NoError(t, f.ctrl.Tick(ctx))
	assert.Equal(t, [3]uint8{0, 0, 255}, shownPixel(f.display, rx, ry))
	assert.Equal(t, teal, shownPixel(f.display, bx, by), "tuner range hides the blue block")

	// active tuner without a live range falls back to the preset
	f.tuner.live = nil
	require.NoError(t, f.ctrl.Tick(ctx))
	assert.Equal(t, teal, shownPixel(f.display, rx, ry))
}

func TestController_RunUntilQuit(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.commands.queue = []Command{CommandNone, CommandCyclePreset, CommandQuit, CommandCyclePreset}

	require.NoError(t, f.ctrl.Run(context.Background()))
	assert.Equal(t, 3, f.display.shown)
	assert.Equal(t, 1, f.ctrl.State().PresetIndex)
}

func TestController_RunReleasesRecordingOnNoFrame(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	require.NoError(t, f.ctrl.Handle(context.Background(), CommandToggleRecording))
	f.source.limit = f.source.reads + 3

	err := f.ctrl.Run(context.Background())
	assert.ErrorIs(t, err, cloak.ErrNoFrame)

	require.Len(t, f.sink.opened, 1)
	assert.Equal(t, 3, f.sink.opened[0].writes)
	assert.True(t, f.sink.opened[0].closed)
	assert.False(t, f.ctrl.State().Recording)
}

func TestController_RunWrapsForeignSourceErrors(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.source.err = errors.New("device unplugged")

	err := f.ctrl.Run(context.Background())
	assert.ErrorIs(t, err, cloak.ErrNoFrame)
}

func TestController_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.ctrl.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.display.shown)
}

func TestController_FailedCommandDoesNotStopTick(t *testing.T) {
	f := newFixture(t, sceneFrame(t))
	f.commands.queue = []Command{CommandSaveTuning}

	require.NoError(t, f.ctrl.Tick(context.Background()))
	assert.Equal(t, 1, f.display.shown)
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "capture_background", CommandCaptureBackground.String())
	assert.Equal(t, "command(42)", Command(42).String())
}
