package session

// Phase is the background state of the session
type Phase int

const (
	PhaseBackgroundUnset Phase = iota
	PhaseEstimating
	PhaseBackgroundSet
)

func (p Phase) String() string {
	switch p {
	case PhaseBackgroundUnset:
		return "background_unset"
	case PhaseEstimating:
		return "estimating"
	case PhaseBackgroundSet:
		return "background_set"
	}
	return "unknown"
}

// State is a snapshot of the session for display and tests
type State struct {
	SessionID   string
	Phase       Phase
	PresetIndex int
	PresetName  string
	TunerActive bool
	Recording   bool
	FPS         float64
	Coverage    float64
}
