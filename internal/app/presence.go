package app

import (
	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/domain"
)

// Join moves the connection into roomID. If it was a member of a different
// room it leaves that room first, so a connection is in at most one room at
// any time and the old room's members receive exactly one left event.
//
// The joiner gets the "who's already here" snapshot (excluding itself);
// every prior member gets a joined notification. Presence delivery is
// best-effort, no acknowledgement or retry.
func (s *Service) Join(id core.ConnID, roomID domain.RoomID) error {
	rec, ok := s.Registry.Lookup(id)
	if !ok {
		return ErrUnknownConnection
	}
	if prev, inRoom := s.Registry.RoomOf(id); inRoom {
		if prev == roomID {
			return nil
		}
		s.leave(id)
	}

	prior := s.Rooms.Join(roomID, rec)
	s.Registry.SetRoom(id, roomID)

	users := make([]core.RoomUser, 0, len(prior))
	for _, p := range prior {
		users = append(users, core.NewRoomUser(p))
	}
	s.send(rec, core.RoomUsersEvent{Type: core.EventRoomUsers, Room: roomID, Users: users})

	joined := core.PresenceEvent{Type: core.EventUserJoined, Room: roomID, User: core.NewRoomUser(rec)}
	for _, p := range prior {
		s.send(p, joined)
	}
	log.Info().Str("module", "app.presence").Str("conn", string(id)).Str("room", string(roomID)).Msg("joined room")
	return nil
}

// Leave returns the connection to the room-less open state without
// destroying it. No-op if the connection is not in a room.
func (s *Service) Leave(id core.ConnID) {
	s.leave(id)
}

func (s *Service) leave(id core.ConnID) {
	rec, ok := s.Registry.Lookup(id)
	if !ok {
		return
	}
	roomID, joined := s.Registry.RoomOf(id)
	if !joined {
		return
	}
	remaining, removed := s.Rooms.Leave(roomID, id)
	s.Registry.ClearRoom(id)
	if !removed {
		return
	}

	left := core.PresenceEvent{Type: core.EventUserLeft, Room: roomID, User: core.NewRoomUser(rec)}
	for _, p := range remaining {
		s.send(p, left)
	}
	log.Info().Str("module", "app.presence").Str("conn", string(id)).Str("room", string(roomID)).Msg("left room")
}
