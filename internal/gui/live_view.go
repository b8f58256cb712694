// Live video panel: display sink and capture overlay
package gui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"invisibility-cloak/internal/session"
)

// LiveView shows processed frames. Show, Countdown and Sample are called from
// the session goroutine; the canvas is only touched through fyne.Do.
type LiveView struct {
	image  *canvas.Image
	logger logrus.FieldLogger

	mu       sync.Mutex
	status   func() session.State
	onStatus func(session.State)
	current  image.Image
}

// NewLiveView creates an empty live panel
func NewLiveView(logger logrus.FieldLogger) *LiveView {
	placeholder := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := 3; i < len(placeholder.Pix); i += 4 {
		placeholder.Pix[i] = 255
	}

	img := canvas.NewImageFromImage(placeholder)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(640, 480))

	return &LiveView{
		image:  img,
		logger: logger,
	}
}

// CanvasObject returns the widget to place in a layout
func (lv *LiveView) CanvasObject() fyne.CanvasObject {
	return lv.image
}

// SetStatusSource installs the state snapshot drawn as HUD on every frame
func (lv *LiveView) SetStatusSource(fn func() session.State) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.status = fn
}

// OnStatus registers a callback run on the UI goroutine with each snapshot
func (lv *LiveView) OnStatus(fn func(session.State)) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.onStatus = fn
}

// Show draws the HUD on a copy of frame and presents it
func (lv *LiveView) Show(frame gocv.Mat) {
	lv.mu.Lock()
	status, onStatus := lv.status, lv.onStatus
	lv.mu.Unlock()

	overlay := frame.Clone()
	defer overlay.Close()

	if status == nil {
		lv.present(overlay, nil)
		return
	}

	st := status()
	DrawHUD(&overlay, st)
	var update func()
	if onStatus != nil {
		update = func() { onStatus(st) }
	}
	lv.present(overlay, update)
}

// Countdown shows a frame read before background sampling starts
func (lv *LiveView) Countdown(frame gocv.Mat, remaining int) {
	overlay := frame.Clone()
	defer overlay.Close()
	DrawCountdown(&overlay, remaining)
	lv.present(overlay, nil)
}

// Sample shows a frame that was averaged into the background plate
func (lv *LiveView) Sample(frame gocv.Mat, index, total int) {
	overlay := frame.Clone()
	defer overlay.Close()
	DrawProgress(&overlay, index, total)
	lv.present(overlay, nil)
}

// Current returns the last presented image
func (lv *LiveView) Current() image.Image {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.current
}

func (lv *LiveView) present(frame gocv.Mat, after func()) {
	img, err := frame.ToImage()
	if err != nil {
		lv.logger.WithError(err).Warn("GUI: Failed to convert frame for display")
		return
	}

	lv.mu.Lock()
	lv.current = img
	lv.mu.Unlock()

	fyne.Do(func() {
		lv.image.Image = img
		lv.image.Refresh()
		if after != nil {
			after()
		}
	})
}

func makeHeader(text string) fyne.CanvasObject {
	bg := canvas.NewRectangle(&color.RGBA{R: 233, G: 208, B: 255, A: 255})
	bg.SetMinSize(fyne.NewSize(0, 24))
	lbl := canvas.NewText(text, color.Black)
	lbl.TextStyle = fyne.TextStyle{Bold: true}
	return container.NewStack(bg, container.NewCenter(lbl))
}
