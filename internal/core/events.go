package core

import (
	"encoding/json"

	"github.com/lectio/collab/internal/domain"
)

// Outbound event taxonomy. Every frame sent to a client carries one of
// these type tags.
const (
	EventConnected       = "connected"
	EventRoomUsers       = "room-users"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventWebRTCOffer     = "webrtc-offer"
	EventWebRTCAnswer    = "webrtc-answer"
	EventWebRTCCandidate = "webrtc-ice-candidate"
	EventChatMessage     = "chat-message"
	EventPong            = "pong"
	EventError           = "error"
)

// RoomUser is the read-only view of a room occupant (no transport fields).
type RoomUser struct {
	ConnectionID ConnID        `json:"connectionId"`
	UserID       domain.UserID `json:"userId"`
	UserName     string        `json:"userName"`
	UserRole     domain.Role   `json:"userRole"`
}

func NewRoomUser(rec *Record) RoomUser {
	return RoomUser{
		ConnectionID: rec.ID,
		UserID:       rec.User.ID,
		UserName:     rec.User.Name,
		UserRole:     rec.User.Role,
	}
}

// ConnectedEvent acknowledges registration and reveals the assigned
// connection id, which peers use to address signaling envelopes.
type ConnectedEvent struct {
	Type         string `json:"type"`
	ConnectionID ConnID `json:"connectionId"`
}

// RoomUsersEvent is the "who's already here" snapshot sent to a joiner,
// excluding the joiner itself.
type RoomUsersEvent struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	Users []RoomUser    `json:"users"`
}

// PresenceEvent notifies existing members of a join or leave. Ephemeral,
// never persisted.
type PresenceEvent struct {
	Type string        `json:"type"`
	Room domain.RoomID `json:"room"`
	User RoomUser      `json:"user"`
}

// SignalEvent forwards an opaque negotiation payload to its target. From is
// derived from the sender's registry entry, never client-supplied.
type SignalEvent struct {
	Type    string          `json:"type"`
	From    ConnID          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type ChatMessageEvent struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type PongEvent struct {
	Type string `json:"type"`
}
