package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/domain"
)

// Inbound message types. Signaling types deliberately mirror the outbound
// event names so a client replies with the type it received.
const (
	msgJoin      = "join"
	msgLeave     = "leave"
	msgChat      = "chat"
	msgOffer     = core.EventWebRTCOffer
	msgAnswer    = core.EventWebRTCAnswer
	msgCandidate = core.EventWebRTCCandidate
	msgPing      = "ping"
)

var signalKinds = map[string]app.SignalKind{
	msgOffer:     app.KindOffer,
	msgAnswer:    app.KindAnswer,
	msgCandidate: app.KindCandidate,
}

// dispatch decodes one inbound frame into its message kind and routes it to
// the corresponding service method. The lifecycle state machine stays
// explicit here instead of hiding in per-event callbacks.
func (ctl *Controller) dispatch(ctx context.Context, id core.ConnID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case msgJoin:
		ctl.handleJoin(id, c, data)
	case msgLeave:
		ctl.Service.Leave(id)
	case msgChat:
		ctl.handleChat(ctx, id, c, data)
	case msgOffer, msgAnswer, msgCandidate:
		ctl.handleSignal(id, c, env.Type, data)
	case msgPing:
		ctl.sendJSON(c, core.PongEvent{Type: core.EventPong})
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message type")
	}
}

func (ctl *Controller) handleJoin(id core.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	roomID, err := domain.ParseRoomID(p.Room)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	if err := ctl.Service.Join(id, roomID); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *Controller) handleChat(ctx context.Context, id core.ConnID, c *wsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Body string `json:"body"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	msg, err := ctl.Service.Submit(ctx, id, p.Body)
	if err != nil {
		// the submitter must see the failure so it can retract its
		// optimistic entry
		ctl.sendError(c, err.Error())
		return
	}
	// canonical message back to the submitter as the call result
	ctl.sendJSON(c, core.ChatMessageEvent{Type: core.EventChatMessage, Message: msg})
}

func (ctl *Controller) handleSignal(id core.ConnID, c *wsConn, msgType string, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		From    string          `json:"from,omitempty"`
		To      string          `json:"to"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	env := app.SignalEnvelope{
		Kind:    signalKinds[msgType],
		From:    core.ConnID(p.From),
		To:      core.ConnID(p.To),
		Payload: p.Payload,
	}
	if err := ctl.Service.Relay(id, env); err != nil {
		if errors.Is(err, app.ErrSpoofedSender) {
			log.Warn().Str("module", "signal").Str("conn", string(id)).Str("claimed", p.From).Msg("spoofed signal sender rejected")
		}
		ctl.sendError(c, err.Error())
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, core.ErrorEvent{Type: core.EventError, Error: msg})
}
