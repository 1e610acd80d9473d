package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/domain"
)

var (
	ErrNotInRoom   = errors.New("connection not in a room")
	ErrRateLimited = errors.New("chat rate limit exceeded")
)

// Submit persists one chat message and fans the canonical event out to the
// other room members. The canonical message is returned to the submitter as
// the call result, so its optimistic UI entry can be reconciled without
// waiting for any broadcast.
//
// Durability precedes broadcast: on a store failure nothing is broadcast
// and the error is surfaced to the submitter only. No automatic retry —
// retrying might duplicate an already-partially-applied write, so retry
// policy belongs to the caller.
func (s *Service) Submit(ctx context.Context, id core.ConnID, body string) (domain.ChatMessage, error) {
	rec, ok := s.Registry.Lookup(id)
	if !ok {
		return domain.ChatMessage{}, ErrUnknownConnection
	}
	roomID, joined := s.Registry.RoomOf(id)
	if !joined {
		return domain.ChatMessage{}, ErrNotInRoom
	}
	if err := domain.ValidateChatBody(body); err != nil {
		return domain.ChatMessage{}, err
	}
	if s.Limiter != nil && !s.Limiter.Allow(rec.User.ID) {
		return domain.ChatMessage{}, ErrRateLimited
	}

	msg, err := s.Store.Append(ctx, roomID, rec.User.ID, rec.User.Name, rec.User.Role, body)
	if err != nil {
		log.Error().Err(err).Str("module", "app.chat").Str("conn", string(id)).Str("room", string(roomID)).Msg("chat append failed")
		return domain.ChatMessage{}, fmt.Errorf("persist chat message: %w", err)
	}

	ev := core.ChatMessageEvent{Type: core.EventChatMessage, Message: msg}
	for _, m := range s.Rooms.Members(roomID) {
		if m.ID == id {
			continue
		}
		s.send(m, ev)
	}
	log.Debug().Str("module", "app.chat").Str("room", string(roomID)).Str("msg", msg.ID).Msg("chat message broadcast")
	return msg, nil
}
