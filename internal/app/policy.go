package app

import "github.com/dkeye/Telecall/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropEvent
)

// Policy decides what happens to a peer whose outbound queue is full.
type Policy interface {
	OnBackPressure(peer core.Peer, ev core.Event) BackpressureAction
}

// SimplePolicy kicks any peer that cannot keep up. Closing the peer ends
// its read loop, which runs the regular disconnect cleanup.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.Peer, core.Event) BackpressureAction {
	return KickMember
}
