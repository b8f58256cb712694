// On-frame status overlay
package gui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"invisibility-cloak/internal/session"
)

var (
	hudActive    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	hudInactive  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	hudRecording = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	hudHeading   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hudLegend    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	countdownInk = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

var controlLegend = []string{
	"Controls:",
	"B - Capture background",
	"R - Record video",
	"C - Change color",
	"T - HSV tuner",
	"S - Save HSV",
	"SPACE - Reset",
	"Q/ESC - Quit",
}

type hudLine struct {
	text string
	ink  color.RGBA
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func statusLines(st session.State) []hudLine {
	background, bgInk := "NOT SET", hudInactive
	if st.Phase == session.PhaseBackgroundSet {
		background, bgInk = "SET", hudActive
	}
	recInk := hudInactive
	if st.Recording {
		recInk = hudRecording
	}
	tunerInk := hudInactive
	if st.TunerActive {
		tunerInk = hudActive
	}

	return []hudLine{
		{fmt.Sprintf("FPS: %.1f", st.FPS), hudActive},
		{"Background: " + background, bgInk},
		{"Recording: " + onOff(st.Recording), recInk},
		{"Color: " + strings.ToUpper(st.PresetName), hudActive},
		{"HSV Tuner: " + onOff(st.TunerActive), tunerInk},
	}
}

// DrawHUD writes the session status and the key legend onto img
func DrawHUD(img *gocv.Mat, st session.State) {
	for i, line := range statusLines(st) {
		gocv.PutText(img, line.text, image.Pt(10, 30+i*25), gocv.FontHersheySimplex, 0.7, line.ink, 2)
	}

	height := img.Rows()
	for i, text := range controlLegend {
		ink, scale := hudLegend, 0.5
		if i == 0 {
			ink, scale = hudHeading, 0.6
		}
		gocv.PutText(img, text, image.Pt(10, height-200+i*20), gocv.FontHersheySimplex, scale, ink, 1)
	}
}

// DrawCountdown writes the countdown digit centred on img with the
// step-out prompt above it
func DrawCountdown(img *gocv.Mat, remaining int) {
	if remaining > 0 {
		text := fmt.Sprintf("%d", remaining)
		size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 3, 5)
		org := image.Pt((img.Cols()-size.X)/2, (img.Rows()+size.Y)/2)
		gocv.PutText(img, text, org, gocv.FontHersheySimplex, 3, countdownInk, 5)
	}
	gocv.PutText(img, "Step out of frame!", image.Pt(50, 50), gocv.FontHersheySimplex, 1, countdownInk, 2)
}

// DrawProgress writes the sample counter of a running capture onto img
func DrawProgress(img *gocv.Mat, index, total int) {
	gocv.PutText(img, fmt.Sprintf("Capturing: %d/%d", index, total), image.Pt(50, 50),
		gocv.FontHersheySimplex, 1, hudActive, 2)
}
