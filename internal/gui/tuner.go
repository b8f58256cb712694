// Interactive HSV range editor
package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"invisibility-cloak/internal/cloak"
)

// maxHueTrackbar is the highest hue an 8-bit HSV pixel can hold
const maxHueTrackbar = 179

// TuningWriter persists a tuned range
type TuningWriter interface {
	Save(r cloak.ColorRange, path string) error
}

type bound struct {
	name    string
	channel int
	upper   bool
	max     float64
}

var tunerBounds = [6]bound{
	{"H_Min", 0, false, maxHueTrackbar},
	{"S_Min", 1, false, cloak.MaxSaturation},
	{"V_Min", 2, false, cloak.MaxValue},
	{"H_Max", 0, true, maxHueTrackbar},
	{"S_Max", 1, true, cloak.MaxSaturation},
	{"V_Max", 2, true, cloak.MaxValue},
}

// DefaultTunerRange is the range the sliders start at, a narrow red
func DefaultTunerRange() cloak.ColorRange {
	return cloak.NewColorRange(cloak.HSV{0, 120, 70}, cloak.HSV{10, 255, 255})
}

// Tuner edits a single HSV range with six sliders. The sliders live on the
// UI goroutine while the session reads the range from its own, so the range
// is guarded by a mutex.
type Tuner struct {
	mu     sync.Mutex
	active bool
	rng    cloak.ColorRange

	writer TuningWriter
	logger logrus.FieldLogger

	sliders [6]*widget.Slider
	values  [6]*widget.Label
	card    *widget.Card
}

// NewTuner creates a hidden tuner starting at DefaultTunerRange
func NewTuner(writer TuningWriter, logger logrus.FieldLogger) *Tuner {
	t := &Tuner{
		rng:    DefaultTunerRange(),
		writer: writer,
		logger: logger,
	}
	t.initializeUI()
	return t
}

func (t *Tuner) initializeUI() {
	rows := container.NewVBox()
	for i, b := range tunerBounds {
		value := t.boundValue(b)

		t.values[i] = widget.NewLabel(fmt.Sprintf("%d", value))
		slider := widget.NewSlider(0, b.max)
		slider.Step = 1
		slider.Value = float64(value)
		slider.OnChanged = func(v float64) {
			t.setBound(b, int(v))
			t.values[i].SetText(fmt.Sprintf("%d", int(v)))
		}
		t.sliders[i] = slider

		rows.Add(container.NewBorder(nil, nil,
			widget.NewLabelWithStyle(b.name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			t.values[i],
			slider,
		))
	}

	t.card = widget.NewCard("HSV Tuner", "Live range overrides the color preset", rows)
	t.card.Hide()
}

// CanvasObject returns the tuner card
func (t *Tuner) CanvasObject() fyne.CanvasObject {
	return t.card
}

// SetActive shows or hides the sliders and switches the live range on or off
func (t *Tuner) SetActive(active bool) {
	t.mu.Lock()
	t.active = active
	t.mu.Unlock()

	fyne.Do(func() {
		if active {
			t.card.Show()
		} else {
			t.card.Hide()
		}
	})
	t.logger.WithField("active", active).Debug("TUNER: Visibility changed")
}

// IsActive reports whether the live range is in effect
func (t *Tuner) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// CurrentRange returns the slider range while the tuner is active
func (t *Tuner) CurrentRange() (cloak.ColorRange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return cloak.ColorRange{}, false
	}
	return t.rng, true
}

// Persist writes r to destination through the tuning writer
func (t *Tuner) Persist(r cloak.ColorRange, destination string) error {
	if t.writer == nil {
		return fmt.Errorf("persist tuning: no writer configured")
	}
	if err := t.writer.Save(r, destination); err != nil {
		return fmt.Errorf("persist tuning: %w", err)
	}
	return nil
}

func (t *Tuner) boundValue(b bound) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b.upper {
		return t.rng.Upper[b.channel]
	}
	return t.rng.Lower[b.channel]
}

func (t *Tuner) setBound(b bound, v int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b.upper {
		t.rng.Upper[b.channel] = v
	} else {
		t.rng.Lower[b.channel] = v
	}
}
