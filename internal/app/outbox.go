package app

import (
	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
)

type delivery struct {
	to core.Peer
	ev core.Event
}

// outbox collects the effects of one command while the state lock is held.
// Nothing in it touches the network until flush.
type outbox struct {
	deliveries []delivery
	changes    []func(EventSink)
}

func (o *outbox) send(to core.Peer, ev core.Event) {
	if to == nil {
		return
	}
	o.deliveries = append(o.deliveries, delivery{to: to, ev: ev})
}

func (o *outbox) presence(u domain.User, online bool) {
	o.changes = append(o.changes, func(s EventSink) { s.PresenceChanged(u, online) })
}

func (o *outbox) call(c domain.Call, reason string) {
	o.changes = append(o.changes, func(s EventSink) { s.CallChanged(c, reason) })
}
