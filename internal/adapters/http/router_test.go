package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/config"
	"github.com/lectio/collab/internal/domain"
	"github.com/lectio/collab/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:         "release",
		Secret:       "test-secret",
		ReadLimit:    32768,
		PingPeriod:   50 * time.Second,
		SendBuffer:   32,
		HistoryLimit: 50,
	}
}

func setup(t *testing.T) (*httptest.Server, *app.Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	svc := app.New(st, nil)
	r := SetupRouter(context.Background(), testConfig(), svc, st)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc, st
}

func TestRouter_Healthz(t *testing.T) {
	srv, _, _ := setup(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RoomsEmpty(t *testing.T) {
	srv, _, _ := setup(t)

	resp, err := http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rooms []struct {
			ID          string `json:"id"`
			MemberCount int    `json:"member_count"`
		} `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Rooms)
}

func TestRouter_History(t *testing.T) {
	srv, _, st := setup(t)

	ctx := context.Background()
	for _, body := range []string{"one", "two", "three"} {
		_, err := st.Append(ctx, "R1", "u1", "Alice", domain.RoleTeacher, body)
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/api/rooms/R1/messages?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "two", body.Messages[0].Body)
	assert.Equal(t, "three", body.Messages[1].Body)
}

func TestRouter_GuestIdentityCookie(t *testing.T) {
	srv, _, _ := setup(t)

	// no trusted headers: a guest session cookie is minted
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "CollabSessions" {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie for the guest identity")
}
