package domain

import "time"

type (
	CallID   string
	CallKind string
)

type CallState string

const (
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
	// CallEnded is never stored: a call that ends is deleted. It only
	// appears in change notifications.
	CallEnded CallState = "ended"
)

// Call is one call attempt between exactly two users. Connections are not
// part of the record; they are resolved through the registry when an event
// has to be delivered.
type Call struct {
	ID         CallID    `json:"sessionId"`
	Initiator  User      `json:"initiator"`
	Recipient  User      `json:"recipient"`
	Kind       CallKind  `json:"kind,omitempty"`
	State      CallState `json:"state"`
	CreatedAt  time.Time `json:"createdAt"`
	AnsweredAt time.Time `json:"answeredAt,omitzero"`
}

func (c *Call) Participant(uid UserID) bool {
	return c.Initiator.ID == uid || c.Recipient.ID == uid
}

// Other returns the participant that is not uid. uid must be a participant.
func (c *Call) Other(uid UserID) User {
	if c.Initiator.ID == uid {
		return c.Recipient
	}
	return c.Initiator
}
