package core

import "github.com/dkeye/Telecall/internal/domain"

// Event is an outbound signaling message. EventType is the wire "type".
type Event interface {
	EventType() string
}

// Termination reasons carried by CallTerminated. ReasonRejected is only
// reported to the EventSink.
const (
	ReasonHangup     = "hangup"
	ReasonDisconnect = "disconnect"
	ReasonTimeout    = "timeout"
	ReasonRejected   = "rejected"
)

type PresenceEntry struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
	Online      bool          `json:"online"`
}

type PresenceSnapshot struct {
	Users []PresenceEntry `json:"users"`
}

type UserOnline struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

type UserOffline struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
}

type RegistrationFailed struct {
	Reason string `json:"reason"`
}

type IncomingCall struct {
	CallID    domain.CallID   `json:"sessionId"`
	Initiator domain.User     `json:"initiator"`
	Kind      domain.CallKind `json:"kind,omitempty"`
}

type CallInitiated struct {
	CallID      domain.CallID `json:"sessionId"`
	RecipientID domain.UserID `json:"recipientId"`
}

type CallFailed struct {
	CallID domain.CallID `json:"sessionId,omitempty"`
	Reason string        `json:"reason"`
}

type CallAccepted struct {
	CallID    domain.CallID `json:"sessionId"`
	Recipient domain.User   `json:"recipient"`
}

type CallRejected struct {
	CallID domain.CallID `json:"sessionId"`
	By     domain.User   `json:"by"`
}

type CallTerminated struct {
	CallID domain.CallID `json:"sessionId"`
	By     domain.User   `json:"by"`
	Reason string        `json:"reason,omitempty"`
}

type CallSignal struct {
	CallID domain.CallID `json:"sessionId"`
	From   domain.User   `json:"from"`
	Signal Signal        `json:"signal"`
}

func (PresenceSnapshot) EventType() string   { return "presenceSnapshot" }
func (UserOnline) EventType() string         { return "userOnline" }
func (UserOffline) EventType() string        { return "userOffline" }
func (RegistrationFailed) EventType() string { return "registrationFailed" }
func (IncomingCall) EventType() string       { return "incomingCall" }
func (CallInitiated) EventType() string      { return "callInitiated" }
func (CallFailed) EventType() string         { return "callFailed" }
func (CallAccepted) EventType() string       { return "callAccepted" }
func (CallRejected) EventType() string       { return "callRejected" }
func (CallTerminated) EventType() string     { return "callTerminated" }
func (CallSignal) EventType() string         { return "callSignal" }
