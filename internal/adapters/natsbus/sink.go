// Package natsbus mirrors presence and call lifecycle changes onto NATS
// subjects for other services to observe.
package natsbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Telecall/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

type presenceMessage struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
	Online      bool          `json:"online"`
	At          time.Time     `json:"at"`
}

type callMessage struct {
	domain.Call
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Sink implements app.EventSink. Publishing is fire and forget: failures
// are logged and never reach the coordinator.
type Sink struct {
	pub    publisher
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// Connect dials url and returns a sink publishing under prefix.
func Connect(url, prefix string) (*Sink, error) {
	nc, err := nats.Connect(url,
		nats.Name("telecall"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Str("module", "natsbus").Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("module", "natsbus").Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	log.Info().Str("module", "natsbus").Str("url", url).Str("prefix", prefix).Msg("event mirror connected")
	s := newSink(nc, prefix)
	s.nc = nc
	return s, nil
}

func newSink(pub publisher, prefix string) *Sink {
	return &Sink{pub: pub, prefix: prefix, now: time.Now}
}

func (s *Sink) PresenceChanged(u domain.User, online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	s.publish(fmt.Sprintf("%s.presence.%s", s.prefix, state), presenceMessage{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Online:      online,
		At:          s.now(),
	})
}

func (s *Sink) CallChanged(c domain.Call, reason string) {
	s.publish(fmt.Sprintf("%s.call.%s", s.prefix, c.State), callMessage{Call: c, Reason: reason, At: s.now()})
}

func (s *Sink) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "natsbus").Str("subject", subject).Msg("marshal")
		return
	}
	if err := s.pub.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("module", "natsbus").Str("subject", subject).Msg("publish failed")
		return
	}
	log.Debug().Str("module", "natsbus").Str("subject", subject).Msg("published")
}

// Close flushes pending messages and closes the connection.
func (s *Sink) Close() {
	if s.nc == nil {
		return
	}
	if err := s.nc.Drain(); err != nil {
		log.Warn().Err(err).Str("module", "natsbus").Msg("drain")
	}
}
