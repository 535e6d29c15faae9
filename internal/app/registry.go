package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
	"github.com/rs/zerolog/log"
)

type registryEntry struct {
	User domain.User
	Peer core.Peer
}

// Registry maps a user id to its current live connection.
// One entry per user id; a later registration supersedes the earlier one
// without notifying it.
type Registry struct {
	mu    sync.RWMutex
	users map[domain.UserID]*registryEntry
	conns map[domain.ConnID]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[domain.UserID]*registryEntry),
		conns: make(map[domain.ConnID]domain.UserID),
	}
}

// Register stores or overwrites the mapping for u. It returns the peer that
// was superseded, if any.
func (r *Registry) Register(u domain.User, p core.Peer) (core.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced := r.users[u.ID]
	if replaced {
		delete(r.conns, prev.Peer.ID())
	}
	r.users[u.ID] = &registryEntry{User: u, Peer: p}
	r.conns[p.ID()] = u.ID
	log.Info().Str("module", "app.registry").Str("user", string(u.ID)).Str("conn", string(p.ID())).Bool("replaced", replaced).Msg("registered")
	if !replaced || prev.Peer.ID() == p.ID() {
		return nil, false
	}
	return prev.Peer, true
}

func (r *Registry) Resolve(uid domain.UserID) (core.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.users[uid]; ok {
		return e.Peer, true
	}
	return nil, false
}

// UserOf returns the identity registered by conn. A superseded connection
// has no identity.
func (r *Registry) UserOf(conn domain.ConnID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.conns[conn]
	if !ok {
		return domain.User{}, false
	}
	return r.users[uid].User, true
}

// Unregister removes uid only while it is still owned by conn. Unknown ids
// and superseded connections are a no-op.
func (r *Registry) Unregister(uid domain.UserID, conn domain.ConnID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.users[uid]
	if !ok || e.Peer.ID() != conn {
		return domain.User{}, false
	}
	delete(r.users, uid)
	delete(r.conns, conn)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(conn)).Msg("unregistered")
	return e.User, true
}

// Others returns every registered user except uid, ordered by id.
func (r *Registry) Others(uid domain.UserID) []core.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.PresenceEntry, 0, len(r.users))
	for id, e := range r.users {
		if id == uid {
			continue
		}
		out = append(out, core.PresenceEntry{UserID: id, DisplayName: e.User.DisplayName, Online: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Peers returns the connections of every registered user except uid.
func (r *Registry) Peers(except domain.UserID) []core.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Peer, 0, len(r.users))
	for id, e := range r.users {
		if id == except {
			continue
		}
		out = append(out, e.Peer)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
