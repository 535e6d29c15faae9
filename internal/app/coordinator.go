package app

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Policy Policy
	// Limiter throttles Initiate per user. Nil means unlimited.
	Limiter *RateLimiter
	Sink    EventSink
	// RingTimeout hangs up calls still ringing after this long. Zero
	// disables it.
	RingTimeout time.Duration
	Clock       func() time.Time
}

// Coordinator owns presence and call state. Every command runs under one
// lock covering the registry lookups and the call table, so check-then-act
// sequences are atomic. Outbound events are queued while the lock is held
// and delivered after it is released, in commit order.
type Coordinator struct {
	mu       sync.Mutex
	registry *Registry
	calls    *CallTable
	presence presence
	timers   map[domain.CallID]*time.Timer

	// sendMu is taken before mu is released so flushes happen in the
	// same order the state changes were committed.
	sendMu sync.Mutex

	policy      Policy
	limiter     *RateLimiter
	sink        EventSink
	ringTimeout time.Duration
	now         func() time.Time
}

func NewCoordinator(reg *Registry, opts Options) *Coordinator {
	c := &Coordinator{
		registry:    reg,
		calls:       NewCallTable(),
		presence:    presence{reg: reg},
		timers:      make(map[domain.CallID]*time.Timer),
		policy:      opts.Policy,
		limiter:     opts.Limiter,
		sink:        opts.Sink,
		ringTimeout: opts.RingTimeout,
		now:         opts.Clock,
	}
	if c.policy == nil {
		c.policy = SimplePolicy{}
	}
	if c.sink == nil {
		c.sink = NopSink{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Handle applies one inbound command issued over from. The returned error
// is a *core.SignalError describing a failure that has already been
// reported to from; shared state is unchanged in that case.
func (c *Coordinator) Handle(from core.Peer, cmd core.Command) error {
	var out outbox
	c.mu.Lock()
	err := c.dispatch(&out, from, cmd)
	c.sendMu.Lock()
	c.mu.Unlock()
	c.flush(&out)
	c.sendMu.Unlock()
	return err
}

func (c *Coordinator) dispatch(out *outbox, from core.Peer, cmd core.Command) error {
	switch cmd := cmd.(type) {
	case core.Register:
		return c.register(out, from, cmd)
	case core.Initiate:
		return c.initiate(out, from, cmd)
	case core.Accept:
		return c.accept(out, from, cmd)
	case core.Reject:
		return c.reject(out, from, cmd)
	case core.Hangup:
		return c.hangup(out, from, cmd)
	case core.Relay:
		return c.relay(out, from, cmd)
	case core.Disconnect:
		c.disconnect(out, from)
		return nil
	default:
		return c.fail(out, from, core.Invalid(core.ReasonInvalidPayload, ""))
	}
}

func (c *Coordinator) register(out *outbox, from core.Peer, cmd core.Register) error {
	user, err := domain.NewUser(cmd.UserID, cmd.DisplayName)
	if err != nil {
		log.Info().Err(err).Str("module", "app.coordinator").Str("conn", string(from.ID())).Msg("register rejected")
		out.send(from, core.RegistrationFailed{Reason: core.ReasonInvalidPayload})
		return core.Invalid(core.ReasonInvalidPayload, "")
	}
	cur, known := c.registry.UserOf(from.ID())
	// The same connection switching identity drops the old one first.
	if known && cur.ID != user.ID {
		c.release(out, cur, from.ID(), core.ReasonDisconnect)
	}
	if prev, replaced := c.registry.Register(user, from); replaced {
		log.Info().Str("module", "app.coordinator").Str("user", string(user.ID)).Str("superseded", string(prev.ID())).Msg("registration superseded older connection")
	}
	if known && cur == user {
		// Nothing changed for anyone else.
		c.presence.resend(out, user, from)
		return nil
	}
	c.presence.online(out, user, from)
	return nil
}

func (c *Coordinator) initiate(out *outbox, from core.Peer, cmd core.Initiate) error {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return c.fail(out, from, core.Invalid(core.ReasonNotRegistered, cmd.CallID))
	}
	if cmd.RecipientID == "" || cmd.CallID == "" {
		return c.fail(out, from, core.Invalid(core.ReasonInvalidPayload, cmd.CallID))
	}
	if cmd.RecipientID == actor.ID {
		return c.fail(out, from, core.Invalid(core.ReasonSelfCall, cmd.CallID))
	}
	if c.calls.Busy(actor.ID) {
		return c.fail(out, from, core.Conflict(core.ReasonAlreadyInCall, cmd.CallID))
	}
	if c.calls.Exists(cmd.CallID) {
		return c.fail(out, from, core.Conflict(core.ReasonSessionExists, cmd.CallID))
	}
	target, ok := c.registry.Resolve(cmd.RecipientID)
	if !ok {
		return c.fail(out, from, core.Unreachable(cmd.CallID))
	}
	if c.calls.Busy(cmd.RecipientID) {
		return c.fail(out, from, core.Conflict(core.ReasonBusy, cmd.CallID))
	}
	// Only attempts that would ring count against the budget.
	if c.limiter != nil && !c.limiter.Allow(actor.ID) {
		return c.fail(out, from, core.Throttled(cmd.CallID))
	}
	recipient, _ := c.registry.UserOf(target.ID())

	call := &domain.Call{
		ID:        cmd.CallID,
		Initiator: actor,
		Recipient: recipient,
		Kind:      cmd.Kind,
		State:     domain.CallRinging,
		CreatedAt: c.now(),
	}
	c.calls.Insert(call)
	c.arm(call)

	out.send(target, core.IncomingCall{CallID: call.ID, Initiator: actor, Kind: call.Kind})
	out.send(from, core.CallInitiated{CallID: call.ID, RecipientID: recipient.ID})
	out.call(*call, "")
	return nil
}

func (c *Coordinator) accept(out *outbox, from core.Peer, cmd core.Accept) error {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return c.fail(out, from, core.Invalid(core.ReasonNotRegistered, cmd.CallID))
	}
	call, ok := c.calls.Lookup(cmd.CallID, actor.ID)
	if !ok || call.Recipient.ID != actor.ID || call.State != domain.CallRinging {
		return c.fail(out, from, core.NotFound(cmd.CallID))
	}
	c.disarm(call.ID)
	call.State = domain.CallActive
	call.AnsweredAt = c.now()
	log.Info().Str("module", "app.coordinator").Str("call", string(call.ID)).Msg("call active")

	if peer, ok := c.registry.Resolve(call.Initiator.ID); ok {
		out.send(peer, core.CallAccepted{CallID: call.ID, Recipient: actor})
	}
	out.call(*call, "")
	return nil
}

func (c *Coordinator) reject(out *outbox, from core.Peer, cmd core.Reject) error {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return c.fail(out, from, core.Invalid(core.ReasonNotRegistered, cmd.CallID))
	}
	call, ok := c.calls.Lookup(cmd.CallID, actor.ID)
	if !ok || call.Recipient.ID != actor.ID || call.State != domain.CallRinging {
		return c.fail(out, from, core.NotFound(cmd.CallID))
	}
	c.end(out, call, core.ReasonRejected)
	if peer, ok := c.registry.Resolve(call.Initiator.ID); ok {
		out.send(peer, core.CallRejected{CallID: call.ID, By: actor})
	}
	return nil
}

func (c *Coordinator) hangup(out *outbox, from core.Peer, cmd core.Hangup) error {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return c.fail(out, from, core.Invalid(core.ReasonNotRegistered, cmd.CallID))
	}
	call, ok := c.calls.Lookup(cmd.CallID, actor.ID)
	if !ok {
		return c.fail(out, from, core.NotFound(cmd.CallID))
	}
	c.end(out, call, core.ReasonHangup)
	if peer, ok := c.registry.Resolve(call.Other(actor.ID).ID); ok {
		out.send(peer, core.CallTerminated{CallID: call.ID, By: actor, Reason: core.ReasonHangup})
	}
	return nil
}

func (c *Coordinator) relay(out *outbox, from core.Peer, cmd core.Relay) error {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return c.fail(out, from, core.Invalid(core.ReasonNotRegistered, cmd.CallID))
	}
	call, ok := c.calls.Lookup(cmd.CallID, actor.ID)
	if !ok || call.State != domain.CallActive {
		return c.fail(out, from, core.NotFound(cmd.CallID))
	}
	if err := cmd.Signal.Validate(); err != nil {
		log.Info().Err(err).Str("module", "app.coordinator").Str("call", string(call.ID)).Msg("bad signal")
		return c.fail(out, from, core.Invalid(core.ReasonInvalidSignal, cmd.CallID))
	}
	if peer, ok := c.registry.Resolve(call.Other(actor.ID).ID); ok {
		out.send(peer, core.CallSignal{CallID: call.ID, From: actor, Signal: cmd.Signal})
	}
	return nil
}

// disconnect is an implicit hangup of the user's call followed by an
// unregister. A connection without identity (never registered, or
// superseded by a newer registration) has nothing to clean up.
func (c *Coordinator) disconnect(out *outbox, from core.Peer) {
	actor, ok := c.registry.UserOf(from.ID())
	if !ok {
		return
	}
	c.release(out, actor, from.ID(), core.ReasonDisconnect)
}

func (c *Coordinator) release(out *outbox, u domain.User, conn domain.ConnID, reason string) {
	// One call per user at most, so this covers every session of u.
	if call, ok := c.calls.ByUser(u.ID); ok {
		c.end(out, call, reason)
		if peer, ok := c.registry.Resolve(call.Other(u.ID).ID); ok {
			out.send(peer, core.CallTerminated{CallID: call.ID, By: u, Reason: reason})
		}
	}
	if _, ok := c.registry.Unregister(u.ID, conn); ok {
		// Throttle history outlives the connection; only expired windows go.
		if c.limiter != nil {
			c.limiter.Expire(u.ID)
		}
		c.presence.offline(out, u)
	}
}

// end removes both table entries of call and stops its ring timer.
func (c *Coordinator) end(out *outbox, call *domain.Call, reason string) {
	if !c.calls.Remove(call) {
		return
	}
	c.disarm(call.ID)
	ended := *call
	ended.State = domain.CallEnded
	out.call(ended, reason)
	log.Info().Str("module", "app.coordinator").Str("call", string(call.ID)).Str("reason", reason).Msg("call ended")
}

func (c *Coordinator) fail(out *outbox, to core.Peer, err *core.SignalError) error {
	out.send(to, core.CallFailed{CallID: err.CallID, Reason: err.Reason})
	log.Info().Str("module", "app.coordinator").Str("conn", string(to.ID())).Str("call", string(err.CallID)).Str("reason", err.Reason).Msg("command failed")
	return err
}

func (c *Coordinator) arm(call *domain.Call) {
	if c.ringTimeout <= 0 {
		return
	}
	c.timers[call.ID] = time.AfterFunc(c.ringTimeout, func() { c.expire(call) })
}

func (c *Coordinator) disarm(id domain.CallID) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

// expire is a synthetic hangup by the initiator of a call that rang too
// long. Both parties are told.
func (c *Coordinator) expire(call *domain.Call) {
	var out outbox
	c.mu.Lock()
	cur, ok := c.calls.Lookup(call.ID, call.Initiator.ID)
	if !ok || cur != call || call.State != domain.CallRinging {
		c.mu.Unlock()
		return
	}
	c.end(&out, call, core.ReasonTimeout)
	ev := core.CallTerminated{CallID: call.ID, By: call.Initiator, Reason: core.ReasonTimeout}
	for _, uid := range []domain.UserID{call.Initiator.ID, call.Recipient.ID} {
		if peer, ok := c.registry.Resolve(uid); ok {
			out.send(peer, ev)
		}
	}
	c.sendMu.Lock()
	c.mu.Unlock()
	c.flush(&out)
	c.sendMu.Unlock()
}

func (c *Coordinator) flush(out *outbox) {
	for _, d := range out.deliveries {
		err := d.to.Deliver(d.ev)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrBackpressure) {
			log.Debug().Err(err).Str("module", "app.coordinator").Str("conn", string(d.to.ID())).Str("event", d.ev.EventType()).Msg("deliver failed")
			continue
		}
		switch c.policy.OnBackPressure(d.to, d.ev) {
		case KickMember:
			log.Warn().Str("module", "app.coordinator").Str("conn", string(d.to.ID())).Str("event", d.ev.EventType()).Msg("slow peer kicked")
			d.to.Close()
		case DropEvent, NoAction:
			log.Warn().Str("module", "app.coordinator").Str("conn", string(d.to.ID())).Str("event", d.ev.EventType()).Msg("event dropped")
		}
	}
	for _, apply := range out.changes {
		apply(c.sink)
	}
}

// Resolve reports the live connection of uid.
func (c *Coordinator) Resolve(uid domain.UserID) (core.Peer, bool) {
	return c.registry.Resolve(uid)
}

// Presence lists every online user.
func (c *Coordinator) Presence() []core.PresenceEntry {
	return c.registry.Others("")
}

// Calls lists every live call.
func (c *Coordinator) Calls() []domain.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls.Snapshot()
}

// Shutdown stops pending ring timers.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
