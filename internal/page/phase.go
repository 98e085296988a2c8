package page

// Phase is the page's UI state. Exactly one is active at a time.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseLoading
	PhaseStreaming
	PhaseError
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseLoading:
		return "loading"
	case PhaseStreaming:
		return "streaming"
	case PhaseError:
		return "error"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave p.
func (p Phase) Terminal() bool {
	return p == PhaseError || p == PhaseComplete
}
