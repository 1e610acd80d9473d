package signal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/lectio/collab/internal/adapters/http"
	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/config"
	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/store"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Mode:         "release",
		Secret:       "test-secret",
		ReadLimit:    32768,
		PingPeriod:   50 * time.Second,
		SendBuffer:   32,
		HistoryLimit: 50,
	}
	st := store.NewMemory()
	svc := app.New(st, nil)
	srv := httptest.NewServer(router.SetupRouter(context.Background(), cfg, svc, st))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID, role string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	h := http.Header{}
	h.Set("X-User-Id", userID)
	h.Set("X-User-Name", "user "+userID)
	h.Set("X-User-Role", role)
	conn, resp, err := websocket.DefaultDialer.Dial(u, h)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, wantType string) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	require.Equal(t, wantType, env.Type, "frame: %s", data)
	return data
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func connID(t *testing.T, conn *websocket.Conn) core.ConnID {
	t.Helper()
	var ev core.ConnectedEvent
	require.NoError(t, json.Unmarshal(readEvent(t, conn, core.EventConnected), &ev))
	require.NotEmpty(t, ev.ConnectionID)
	return ev.ConnectionID
}

func TestSignal_PresenceAndChat(t *testing.T) {
	srv := startServer(t)

	a := dial(t, srv, "u1", "teacher")
	idA := connID(t, a)

	send(t, a, map[string]string{"type": "join", "room": "R1"})
	var snapA core.RoomUsersEvent
	require.NoError(t, json.Unmarshal(readEvent(t, a, core.EventRoomUsers), &snapA))
	assert.Empty(t, snapA.Users)

	b := dial(t, srv, "u2", "student")
	connID(t, b)
	send(t, b, map[string]string{"type": "join", "room": "R1"})

	// the joiner's snapshot lists the existing occupant, not itself
	var snapB core.RoomUsersEvent
	require.NoError(t, json.Unmarshal(readEvent(t, b, core.EventRoomUsers), &snapB))
	require.Len(t, snapB.Users, 1)
	assert.Equal(t, idA, snapB.Users[0].ConnectionID)

	// the existing member is notified exactly once
	var joined core.PresenceEvent
	require.NoError(t, json.Unmarshal(readEvent(t, a, core.EventUserJoined), &joined))
	assert.Equal(t, "u2", string(joined.User.UserID))

	// chat: canonical message reaches the submitter as the call result and
	// the other member via broadcast, with the same store-assigned id
	send(t, b, map[string]string{"type": "chat", "body": "hello"})
	var resB, resA core.ChatMessageEvent
	require.NoError(t, json.Unmarshal(readEvent(t, b, core.EventChatMessage), &resB))
	require.NoError(t, json.Unmarshal(readEvent(t, a, core.EventChatMessage), &resA))
	assert.Equal(t, resB.Message.ID, resA.Message.ID)
	assert.Equal(t, "hello", resA.Message.Body)
	assert.Equal(t, "u2", string(resA.Message.AuthorID))

	// abrupt disconnect still produces a left notification
	b.Close()
	var left core.PresenceEvent
	require.NoError(t, json.Unmarshal(readEvent(t, a, core.EventUserLeft), &left))
	assert.Equal(t, "u2", string(left.User.UserID))
}

func TestSignal_RelayBetweenPeers(t *testing.T) {
	srv := startServer(t)

	a := dial(t, srv, "u1", "student")
	idA := connID(t, a)
	b := dial(t, srv, "u2", "student")
	idB := connID(t, b)

	// signaling may occur before any room join completes
	send(t, a, map[string]any{
		"type":    "webrtc-offer",
		"to":      idB,
		"payload": map[string]string{"sdp": "v=0..."},
	})

	var offer core.SignalEvent
	require.NoError(t, json.Unmarshal(readEvent(t, b, core.EventWebRTCOffer), &offer))
	assert.Equal(t, idA, offer.From)
	assert.JSONEq(t, `{"sdp":"v=0..."}`, string(offer.Payload))

	send(t, b, map[string]any{
		"type":    "webrtc-answer",
		"to":      idA,
		"payload": map[string]string{"sdp": "v=0..."},
	})
	var answer core.SignalEvent
	require.NoError(t, json.Unmarshal(readEvent(t, a, core.EventWebRTCAnswer), &answer))
	assert.Equal(t, idB, answer.From)
}

func TestSignal_RelayMissingTargetSilentlyDropped(t *testing.T) {
	srv := startServer(t)

	a := dial(t, srv, "u1", "student")
	connID(t, a)

	send(t, a, map[string]any{
		"type":    "webrtc-offer",
		"to":      "c-404",
		"payload": map[string]string{"sdp": "v=0..."},
	})
	// no error surfaces: the very next frame is the pong for our ping
	send(t, a, map[string]string{"type": "ping"})
	readEvent(t, a, core.EventPong)
}

func TestSignal_SpoofedFromRejected(t *testing.T) {
	srv := startServer(t)

	a := dial(t, srv, "u1", "student")
	connID(t, a)
	b := dial(t, srv, "u2", "student")
	idB := connID(t, b)

	send(t, a, map[string]any{
		"type":    "webrtc-offer",
		"from":    idB, // claims to be the other peer
		"to":      idB,
		"payload": map[string]string{"sdp": "v=0..."},
	})
	readEvent(t, a, core.EventError)
}

func TestSignal_ChatRequiresRoom(t *testing.T) {
	srv := startServer(t)

	a := dial(t, srv, "u1", "student")
	connID(t, a)

	send(t, a, map[string]string{"type": "chat", "body": "hello"})
	readEvent(t, a, core.EventError)
}
