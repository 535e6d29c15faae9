package app

import "github.com/dkeye/Telecall/internal/domain"

// EventSink observes committed presence and call changes. It is called
// after the coordinator lock is released, in commit order per command.
type EventSink interface {
	PresenceChanged(u domain.User, online bool)
	// CallChanged receives a copy of the record. Ended calls carry
	// State == domain.CallEnded and the termination reason.
	CallChanged(call domain.Call, reason string)
}

type NopSink struct{}

func (NopSink) PresenceChanged(domain.User, bool) {}
func (NopSink) CallChanged(domain.Call, string)   {}
