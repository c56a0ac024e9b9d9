package session

// Phase is the protocol phase of one connection.
type Phase int

const (
	// PhaseStart: connected, no tag yet.
	PhaseStart Phase = iota
	// PhaseFirst: tag known, waiting for the first step pair.
	PhaseFirst
	// PhaseActive: steady state.
	PhaseActive
	// PhaseClosed is terminal.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseFirst:
		return "first"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	}
	return "unknown"
}

// IsClosed reports whether p is terminal. It matches the registry's prune
// predicate signature.
func IsClosed(p Phase, _ *Peer) bool {
	return p == PhaseClosed
}
