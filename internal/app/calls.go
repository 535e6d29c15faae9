package app

import (
	"sort"

	"github.com/dkeye/Telecall/internal/domain"
	"github.com/rs/zerolog/log"
)

// CallTable indexes live calls by id and by participant. Every call has
// exactly one id entry and two user entries, all pointing at the same record.
// It has no lock of its own: the Coordinator serializes all access.
type CallTable struct {
	byID   map[domain.CallID]*domain.Call
	byUser map[domain.UserID]*domain.Call
}

func NewCallTable() *CallTable {
	return &CallTable{
		byID:   make(map[domain.CallID]*domain.Call),
		byUser: make(map[domain.UserID]*domain.Call),
	}
}

// Insert adds c under its id and both participants. It refuses when any of
// the three keys is already taken and leaves the table unchanged.
func (t *CallTable) Insert(c *domain.Call) bool {
	if _, ok := t.byID[c.ID]; ok {
		return false
	}
	if t.Busy(c.Initiator.ID) || t.Busy(c.Recipient.ID) {
		return false
	}
	t.byID[c.ID] = c
	t.byUser[c.Initiator.ID] = c
	t.byUser[c.Recipient.ID] = c
	log.Info().Str("module", "app.calls").Str("call", string(c.ID)).Str("initiator", string(c.Initiator.ID)).Str("recipient", string(c.Recipient.ID)).Msg("call inserted")
	return true
}

// Lookup finds the call id only if actor takes part in it, so a forged or
// colliding id from a third user reads as absent.
func (t *CallTable) Lookup(id domain.CallID, actor domain.UserID) (*domain.Call, bool) {
	c, ok := t.byID[id]
	if !ok || !c.Participant(actor) {
		return nil, false
	}
	return c, true
}

func (t *CallTable) ByUser(uid domain.UserID) (*domain.Call, bool) {
	c, ok := t.byUser[uid]
	return c, ok
}

func (t *CallTable) Busy(uid domain.UserID) bool {
	_, ok := t.byUser[uid]
	return ok
}

func (t *CallTable) Exists(id domain.CallID) bool {
	_, ok := t.byID[id]
	return ok
}

// Remove deletes all entries of c. It is a no-op when c is no longer the
// record stored under its id.
func (t *CallTable) Remove(c *domain.Call) bool {
	if cur, ok := t.byID[c.ID]; !ok || cur != c {
		return false
	}
	delete(t.byID, c.ID)
	if t.byUser[c.Initiator.ID] == c {
		delete(t.byUser, c.Initiator.ID)
	}
	if t.byUser[c.Recipient.ID] == c {
		delete(t.byUser, c.Recipient.ID)
	}
	log.Info().Str("module", "app.calls").Str("call", string(c.ID)).Msg("call removed")
	return true
}

func (t *CallTable) Len() int { return len(t.byID) }

// Snapshot copies every live call, oldest first.
func (t *CallTable) Snapshot() []domain.Call {
	out := make([]domain.Call, 0, len(t.byID))
	for _, c := range t.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
