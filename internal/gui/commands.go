// Keyboard and button input turned into session commands
package gui

import (
	"unicode"

	"fyne.io/fyne/v2"
	"github.com/sirupsen/logrus"

	"invisibility-cloak/internal/session"
)

const commandBuffer = 8

var runeCommands = map[rune]session.Command{
	'b': session.CommandCaptureBackground,
	'r': session.CommandToggleRecording,
	't': session.CommandToggleTuner,
	'c': session.CommandCyclePreset,
	's': session.CommandSaveTuning,
	'q': session.CommandQuit,
	' ': session.CommandResetBackground,
}

// CommandForRune maps a typed character to its command. Letters match in
// either case.
func CommandForRune(r rune) (session.Command, bool) {
	cmd, ok := runeCommands[unicode.ToLower(r)]
	return cmd, ok
}

// CommandForKey maps non-printable keys. Space arrives as a rune.
func CommandForKey(key fyne.KeyName) (session.Command, bool) {
	if key == fyne.KeyEscape {
		return session.CommandQuit, true
	}
	return session.CommandNone, false
}

// CommandQueue collects commands from the UI goroutine and hands them to the
// session loop one per Poll
type CommandQueue struct {
	ch     chan session.Command
	logger logrus.FieldLogger
}

// NewCommandQueue creates an empty queue
func NewCommandQueue(logger logrus.FieldLogger) *CommandQueue {
	return &CommandQueue{
		ch:     make(chan session.Command, commandBuffer),
		logger: logger,
	}
}

// Push enqueues cmd without blocking. Commands arriving while the queue is
// full are dropped.
func (q *CommandQueue) Push(cmd session.Command) {
	select {
	case q.ch <- cmd:
	default:
		q.logger.WithField("command", cmd.String()).Warn("GUI: Command queue full, dropping command")
	}
}

// Poll returns the oldest pending command or CommandNone
func (q *CommandQueue) Poll() session.Command {
	select {
	case cmd := <-q.ch:
		return cmd
	default:
		return session.CommandNone
	}
}

// Bind routes the typed keys of a window canvas into the queue
func (q *CommandQueue) Bind(c fyne.Canvas) {
	c.SetOnTypedRune(func(r rune) {
		if cmd, ok := CommandForRune(r); ok {
			q.Push(cmd)
		}
	})
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if cmd, ok := CommandForKey(ev.Name); ok {
			q.Push(cmd)
		}
	})
}
