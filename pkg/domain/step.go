package domain

import "fmt"

// Step is a single navigation point reported by a peer.
// Steps are values; moving one between containers copies it.
type Step struct {
	// Tag identifies the peer that owns the reference.
	Tag string `json:"tag" yaml:"tag"`
	// Ref is opaque to the server and only echoed back in "goto" lines.
	Ref string `json:"ref" yaml:"ref"`
}

func (s Step) String() string {
	return fmt.Sprintf("%s:%s", s.Tag, s.Ref)
}
