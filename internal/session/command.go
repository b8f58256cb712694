package session

import "fmt"

// Command is an operator request processed between frames
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandCaptureBackground
	CommandResetBackground
	CommandCyclePreset
	CommandToggleTuner
	CommandToggleRecording
	CommandSaveTuning
)

var commandNames = map[Command]string{
	CommandNone:              "none",
	CommandQuit:              "quit",
	CommandCaptureBackground: "capture_background",
	CommandResetBackground:   "reset_background",
	CommandCyclePreset:       "cycle_preset",
	CommandToggleTuner:       "toggle_tuner",
	CommandToggleRecording:   "toggle_recording",
	CommandSaveTuning:        "save_tuning",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}
