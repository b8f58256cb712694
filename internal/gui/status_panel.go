package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"invisibility-cloak/internal/session"
)

// StatusPanel mirrors the session state next to the video
type StatusPanel struct {
	card       *widget.Card
	background *widget.Label
	recording  *widget.Label
	preset     *widget.Label
	tuner      *widget.Label
	fps        *widget.Label
	coverage   *widget.ProgressBar
}

// NewStatusPanel creates the panel with placeholder values
func NewStatusPanel() *StatusPanel {
	sp := &StatusPanel{
		background: widget.NewLabel("NOT SET"),
		recording:  widget.NewLabel("OFF"),
		preset:     widget.NewLabel("-"),
		tuner:      widget.NewLabel("OFF"),
		fps:        widget.NewLabel("0.0"),
		coverage:   widget.NewProgressBar(),
	}

	row := func(name string, value fyne.CanvasObject) fyne.CanvasObject {
		return container.NewBorder(nil, nil,
			widget.NewLabelWithStyle(name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			nil, value)
	}

	sp.card = widget.NewCard("Status", "", container.NewVBox(
		row("Background:", sp.background),
		row("Recording:", sp.recording),
		row("Color:", sp.preset),
		row("HSV Tuner:", sp.tuner),
		row("FPS:", sp.fps),
		widget.NewSeparator(),
		widget.NewLabel("Hidden area"),
		sp.coverage,
	))
	return sp
}

// CanvasObject returns the status card
func (sp *StatusPanel) CanvasObject() fyne.CanvasObject {
	return sp.card
}

// Update copies st into the labels. It must run on the UI goroutine.
func (sp *StatusPanel) Update(st session.State) {
	switch st.Phase {
	case session.PhaseBackgroundSet:
		sp.background.SetText("SET")
	case session.PhaseEstimating:
		sp.background.SetText("CAPTURING")
	default:
		sp.background.SetText("NOT SET")
	}
	sp.recording.SetText(onOff(st.Recording))
	sp.preset.SetText(strings.ToUpper(st.PresetName))
	sp.tuner.SetText(onOff(st.TunerActive))
	sp.fps.SetText(fmt.Sprintf("%.1f", st.FPS))
	sp.coverage.SetValue(st.Coverage)
}
