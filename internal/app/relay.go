package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/core"
)

var (
	ErrSpoofedSender = errors.New("signal sender mismatch")
	ErrUnknownKind   = errors.New("unknown signal kind")
)

// SignalKind names one leg of a WebRTC negotiation. The payload itself is
// opaque to the core and forwarded verbatim.
type SignalKind string

const (
	KindOffer     SignalKind = "offer"
	KindAnswer    SignalKind = "answer"
	KindCandidate SignalKind = "ice-candidate"
)

func (k SignalKind) eventType() (string, bool) {
	switch k {
	case KindOffer:
		return core.EventWebRTCOffer, true
	case KindAnswer:
		return core.EventWebRTCAnswer, true
	case KindCandidate:
		return core.EventWebRTCCandidate, true
	}
	return "", false
}

// SignalEnvelope is the ephemeral routing unit for one negotiation message.
// From is optional and, when present, must match the authenticated sender.
type SignalEnvelope struct {
	Kind    SignalKind
	From    core.ConnID
	To      core.ConnID
	Payload json.RawMessage
}

// Relay forwards the envelope to its target connection, tagged with the
// sender's registry-derived id so the recipient can reply. Routing is by
// connection id only; no room-membership check, since signaling may
// legitimately occur before a join completes.
//
// An absent target is expected churn (the peer may have disconnected
// mid-negotiation): the envelope is dropped silently and no error is
// surfaced to the sender. A spoofed From is a caller error, rejected before
// relay.
func (s *Service) Relay(sender core.ConnID, env SignalEnvelope) error {
	evType, ok := env.Kind.eventType()
	if !ok {
		return ErrUnknownKind
	}
	if env.From != "" && env.From != sender {
		return ErrSpoofedSender
	}
	if _, ok := s.Registry.Lookup(sender); !ok {
		return ErrUnknownConnection
	}
	target, ok := s.Registry.Lookup(env.To)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("from", string(sender)).Str("to", string(env.To)).Str("kind", string(env.Kind)).Msg("relay target gone, dropped")
		return nil
	}
	s.send(target, core.SignalEvent{Type: evType, From: sender, Payload: env.Payload})
	return nil
}
