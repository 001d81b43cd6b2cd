package renderer

// Phase is a renderer lifecycle phase.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseMounted
	PhaseCounting
	PhaseCelebrating
	PhaseCelebrated
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseMounted:
		return "mounted"
	case PhaseCounting:
		return "counting"
	case PhaseCelebrating:
		return "celebrating"
	case PhaseCelebrated:
		return "celebrated"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Active reports whether p is one of the post-mount display phases.
func (p Phase) Active() bool {
	return p == PhaseCounting || p == PhaseCelebrating || p == PhaseCelebrated
}

// CanTransition reports whether a renderer may move from one phase to another.
//
//	uninitialized -> mounted -> {counting, celebrating, celebrated} -> destroyed
//
// The display phases move freely among themselves: a timezone switch can take
// a celebrated countdown back to counting. Destroyed is terminal and any
// phase may be destroyed.
func CanTransition(from, to Phase) bool {
	if from == PhaseDestroyed {
		return false
	}
	switch to {
	case PhaseDestroyed:
		return true
	case PhaseMounted:
		return from == PhaseUninitialized
	case PhaseCounting, PhaseCelebrating, PhaseCelebrated:
		return from == PhaseMounted || from.Active()
	default:
		return false
	}
}
