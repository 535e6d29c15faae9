package app

import (
	"github.com/dkeye/Telecall/internal/core"
	"github.com/dkeye/Telecall/internal/domain"
	"github.com/rs/zerolog/log"
)

// presence announces registry changes. Best effort: no acks, no retries;
// the snapshot sent on the next registration corrects any drift.
type presence struct {
	reg *Registry
}

// online sends the newcomer everyone else and tells everyone else about the
// newcomer.
func (p presence) online(out *outbox, u domain.User, newcomer core.Peer) {
	out.send(newcomer, core.PresenceSnapshot{Users: p.reg.Others(u.ID)})
	ev := core.UserOnline{UserID: u.ID, DisplayName: u.DisplayName}
	peers := p.reg.Peers(u.ID)
	for _, peer := range peers {
		out.send(peer, ev)
	}
	out.presence(u, true)
	log.Debug().Str("module", "app.presence").Str("user", string(u.ID)).Int("notified", len(peers)).Msg("user online")
}

// resend refreshes the snapshot of a connection that registered again with
// an unchanged identity. Nobody else is told.
func (p presence) resend(out *outbox, u domain.User, conn core.Peer) {
	out.send(conn, core.PresenceSnapshot{Users: p.reg.Others(u.ID)})
}

func (p presence) offline(out *outbox, u domain.User) {
	ev := core.UserOffline{UserID: u.ID, DisplayName: u.DisplayName}
	peers := p.reg.Peers(u.ID)
	for _, peer := range peers {
		out.send(peer, ev)
	}
	out.presence(u, false)
	log.Debug().Str("module", "app.presence").Str("user", string(u.ID)).Int("notified", len(peers)).Msg("user offline")
}
