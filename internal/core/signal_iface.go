package core

import (
	"errors"

	"github.com/dkeye/Telecall/internal/domain"
)

// Frame is a raw encoded payload.
type Frame []byte

var (
	ErrBackpressure = errors.New("backpressure")
	ErrPeerClosed   = errors.New("peer closed")
)

// Peer abstracts one live signaling connection.
// Owned by the adapter; the registry only borrows it and never closes it
// except through a backpressure policy.
type Peer interface {
	ID() domain.ConnID
	// Deliver must not block. It returns ErrBackpressure when the
	// outbound queue is full and ErrPeerClosed after Close.
	Deliver(Event) error
	Close()
}
