package app

import (
	"sync"
	"testing"

	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
)

type fakePeer struct {
	id domain.ConnID

	mu     sync.Mutex
	events []core.Event
	full   bool
	closed bool
}

func newPeer(id string) *fakePeer { return &fakePeer{id: domain.ConnID(id)} }

func (p *fakePeer) ID() domain.ConnID { return p.id }

func (p *fakePeer) Deliver(ev core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return core.ErrPeerClosed
	}
	if p.full {
		return core.ErrBackpressure
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePeer) setFull(full bool) {
	p.mu.Lock()
	p.full = full
	p.mu.Unlock()
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// take returns the events received so far and clears them.
func (p *fakePeer) take() []core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	evs := p.events
	p.events = nil
	return evs
}

func find[T core.Event](evs []core.Event) (T, bool) {
	for _, ev := range evs {
		if v, ok := ev.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func mustFind[T core.Event](t *testing.T, evs []core.Event) T {
	t.Helper()
	v, ok := find[T](evs)
	if !ok {
		var zero T
		t.Fatalf("no %s event in %#v", zero.EventType(), evs)
	}
	return v
}

// online registers uid on a fresh peer and drains the presence traffic it
// caused on every peer passed in others.
func online(t *testing.T, c *Coordinator, uid string, others ...*fakePeer) *fakePeer {
	t.Helper()
	p := newPeer("conn-" + uid)
	if err := c.Handle(p, core.Register{UserID: domain.UserID(uid), DisplayName: uid}); err != nil {
		t.Fatalf("register %s: %v", uid, err)
	}
	p.take()
	for _, o := range others {
		o.take()
	}
	return p
}

type recordingSink struct {
	mu       sync.Mutex
	presence []string
	calls    []string
}

func (s *recordingSink) PresenceChanged(u domain.User, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	s.presence = append(s.presence, string(u.ID)+":"+state)
}

func (s *recordingSink) CallChanged(call domain.Call, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := string(call.ID) + ":" + string(call.State)
	if reason != "" {
		entry += ":" + reason
	}
	s.calls = append(s.calls, entry)
}
