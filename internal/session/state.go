package session

// State is a phase of the interview session.
type State int

const (
	Loading State = iota
	Presenting
	Answering
	Transitioning
	Submitting
	Done
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Presenting:
		return "presenting"
	case Answering:
		return "answering"
	case Transitioning:
		return "transitioning"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}
