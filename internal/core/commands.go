package core

import "github.com/dkeye/Telecall/internal/domain"

// Command is an inbound signaling event. The set is closed: only the types
// in this file implement it. The acting user is never part of a command; it
// is derived from the connection that delivered it.
type Command interface {
	command()
}

type Register struct {
	UserID      domain.UserID
	DisplayName string
}

type Initiate struct {
	RecipientID domain.UserID
	Kind        domain.CallKind
	CallID      domain.CallID
}

type Accept struct {
	CallID domain.CallID
}

type Reject struct {
	CallID domain.CallID
}

type Hangup struct {
	CallID domain.CallID
}

// Relay forwards a negotiation message to the other party of an active call.
type Relay struct {
	CallID domain.CallID
	Signal Signal
}

// Disconnect is synthesized by the transport when a connection goes away.
type Disconnect struct{}

func (Register) command()   {}
func (Initiate) command()   {}
func (Accept) command()     {}
func (Reject) command()     {}
func (Hangup) command()     {}
func (Relay) command()      {}
func (Disconnect) command() {}
