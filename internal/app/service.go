// Package app orchestrates the realtime collaboration core: connection
// lifecycle, room presence, signaling relay and chat fanout.
package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/domain"
	"github.com/lectio/collab/internal/store"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Service wires the registry, room directory and chat store. It is
// explicitly constructed and injected so multiple instances can coexist in
// tests; never a module-level singleton.
//
// Lifecycle operations for a single connection (Connect, Join, Leave,
// Disconnect) are serialized by that connection's reader goroutine; the
// service only has to coordinate across distinct connections.
type Service struct {
	Registry *core.Registry
	Rooms    *core.Rooms
	Store    store.Store
	Limiter  *RateLimiter
}

func New(st store.Store, limiter *RateLimiter) *Service {
	return &Service{
		Registry: core.NewRegistry(),
		Rooms:    core.NewRooms(),
		Store:    st,
		Limiter:  limiter,
	}
}

// Connect registers a live connection for an already-authenticated user and
// acknowledges it with the assigned connection id.
func (s *Service) Connect(user domain.User, conn core.Conn) *core.Record {
	rec := s.Registry.Register(user, conn)
	s.send(rec, core.ConnectedEvent{Type: core.EventConnected, ConnectionID: rec.ID})
	return rec
}

// Disconnect handles transport close, explicit or abrupt: leave the current
// room (remaining members get a left notification) and unregister.
// Idempotent.
func (s *Service) Disconnect(id core.ConnID) {
	s.leave(id)
	s.Registry.Unregister(id)
}

// send delivers best-effort over the live transport. A failed send is
// isolated to its target: the member is mid-disconnect and will itself
// trigger cleanup.
func (s *Service) send(rec *core.Record, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("encode event")
		return
	}
	if err := rec.Conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "app").Str("conn", string(rec.ID)).Msg("send dropped")
	}
}
