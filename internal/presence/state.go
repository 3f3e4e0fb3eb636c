// Package presence holds the canonical presence model and the pure functions
// that derive display decisions from it.
package presence

import "time"

// Defaults applied by Normalize when a field is missing or mistyped.
const (
	DefaultSelfName     = "Me"
	DefaultSelfActivity = "Idle"
	DefaultPeerName     = "Unknown"
	DefaultPeerActivity = "Idle"
)

// Peer is one connected user and what they are doing.
type Peer struct {
	Name     string `json:"name" yaml:"name"`
	Activity string `json:"activity" yaml:"activity"`
}

// State is an immutable snapshot of the local user plus connected peers.
// A new State replaces the previous one wholesale; nothing mutates a State
// after Normalize returns it.
type State struct {
	SelfName     string
	SelfActivity string

	// ConnectedCount is reported by the source independently of Peers and is
	// authoritative for overflow arithmetic.
	ConnectedCount int

	// Peers is in source order and may be longer than DisplayLimit.
	Peers []Peer

	AvatarURL string

	// UpdatedAt comes from time.Now and carries both wall and monotonic readings.
	UpdatedAt time.Time
}

// PeerAt returns the i-th peer and whether it exists.
func (s State) PeerAt(i int) (Peer, bool) {
	if i < 0 || i >= len(s.Peers) {
		return Peer{}, false
	}
	return s.Peers[i], true
}

// Idle reports whether nobody is connected and no peer is enumerated.
func (s State) Idle() bool {
	return s.ConnectedCount == 0 && len(s.Peers) == 0
}
