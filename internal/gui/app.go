// Main window: live view, controls, status and tuner
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"invisibility-cloak/internal/session"
)

// WindowTitle is the title of the main window
const WindowTitle = "Invisibility Cloak"

// Application is the operator UI. It provides the display sink, command
// source, capture observer and tuning surface of a session.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger logrus.FieldLogger

	view     *LiveView
	tuner    *Tuner
	status   *StatusPanel
	commands *CommandQueue
}

// NewApplication builds the main window. tuning stores saved tuner ranges.
func NewApplication(app fyne.App, tuning TuningWriter, logger logrus.FieldLogger) *Application {
	window := app.NewWindow(WindowTitle)
	window.Resize(fyne.NewSize(1280, 760))
	window.CenterOnScreen()

	a := &Application{
		app:      app,
		window:   window,
		logger:   logger,
		view:     NewLiveView(logger),
		tuner:    NewTuner(tuning, logger),
		status:   NewStatusPanel(),
		commands: NewCommandQueue(logger),
	}

	a.setupLayout()
	a.commands.Bind(window.Canvas())
	a.view.OnStatus(a.status.Update)

	return a
}

func (a *Application) setupLayout() {
	button := func(label string, icon fyne.Resource, cmd session.Command) *widget.Button {
		return widget.NewButtonWithIcon(label, icon, func() { a.commands.Push(cmd) })
	}

	controls := widget.NewCard("Controls", "", container.NewVBox(
		button("Capture background (B)", theme.MediaPhotoIcon(), session.CommandCaptureBackground),
		button("Reset background (SPACE)", theme.DeleteIcon(), session.CommandResetBackground),
		button("Change color (C)", theme.ColorPaletteIcon(), session.CommandCyclePreset),
		button("HSV tuner (T)", theme.SettingsIcon(), session.CommandToggleTuner),
		button("Save HSV (S)", theme.DocumentSaveIcon(), session.CommandSaveTuning),
		button("Record video (R)", theme.MediaRecordIcon(), session.CommandToggleRecording),
		widget.NewSeparator(),
		button("Quit (Q)", theme.LogoutIcon(), session.CommandQuit),
	))

	leftPanel := container.NewVScroll(container.NewVBox(controls, a.status.CanvasObject()))

	centerPanel := container.NewBorder(
		makeHeader("LIVE"), nil, nil, nil,
		container.NewPadded(a.view.CanvasObject()),
	)

	rightPanel := container.NewVScroll(a.tuner.CanvasObject())

	centerAndRight := container.NewHSplit(centerPanel, rightPanel)
	centerAndRight.SetOffset(0.75)

	content := container.NewHSplit(leftPanel, centerAndRight)
	content.SetOffset(0.22)

	a.window.SetContent(content)
}

// Display is the sink for composited frames
func (a *Application) Display() *LiveView { return a.view }

// Commands is the operator command source
func (a *Application) Commands() *CommandQueue { return a.commands }

// Tuner is the HSV tuning surface
func (a *Application) Tuner() *Tuner { return a.tuner }

// ShowAndRun blocks on the UI event loop. Closing the window queues a quit
// command and calls onClose; the window itself closes when Quit is called.
func (a *Application) ShowAndRun(onClose func()) {
	a.logger.Info("GUI: Showing main window")

	a.window.SetCloseIntercept(func() {
		a.logger.Info("GUI: Window close requested")
		a.commands.Push(session.CommandQuit)
		if onClose != nil {
			onClose()
		}
	})

	a.window.ShowAndRun()
}

// Quit stops the UI event loop. It is safe to call from any goroutine.
func (a *Application) Quit() {
	fyne.Do(a.app.Quit)
}
