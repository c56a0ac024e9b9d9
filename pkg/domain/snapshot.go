package domain

import "time"

// PeerInfo describes one live session for introspection.
type PeerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tag   string `json:"tag,omitempty"`
	Phase string `json:"phase"`
}

// Snapshot is an immutable copy of the engine's observable state.
// Unlike State it may be shared across goroutines.
type Snapshot struct {
	Mode      Mode       `json:"mode"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Ring      []Step     `json:"ring,omitempty"`
	History   []Step     `json:"history"`
	Peers     []PeerInfo `json:"peers"`
	TakenAt   time.Time  `json:"taken_at"`
}

// NewSnapshot copies the navigation part of state.
func NewSnapshot(state State, peers []PeerInfo, now time.Time) *Snapshot {
	snap := &Snapshot{
		Mode:    state.Mode,
		History: state.Steps(),
		Peers:   peers,
		TakenAt: now,
	}
	if snap.History == nil {
		snap.History = []Step{}
	}
	if snap.Peers == nil {
		snap.Peers = []PeerInfo{}
	}
	if state.Mode == ModeCycling {
		started := state.StartedAt
		snap.StartedAt = &started
		snap.Ring = append([]Step(nil), state.Ring...)
	}
	return snap
}
