package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/domain"
)

const (
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second
)

type Options struct {
	// URL of the realtime endpoint, e.g. ws://host:8080/api/ws.
	URL string
	// Header carries the trusted identity headers for the upstream layer.
	Header http.Header
	// Room to join after every (re)connect. Optional.
	Room domain.RoomID
	// OnEvent receives every decoded inbound event. Optional.
	OnEvent func(eventType string, data []byte)

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Dialer maintains a live connection with unbounded-retry backoff. The core
// holds no session continuity: every reconnect registers a brand-new
// connection and re-joins the room.
type Dialer struct {
	opts Options
}

func NewDialer(opts Options) *Dialer {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	return &Dialer{opts: opts}
}

func (d *Dialer) newBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.opts.InitialBackoff
	bo.MaxInterval = d.opts.MaxBackoff
	// reconnection is attempted indefinitely until torn down
	bo.MaxElapsedTime = 0
	return bo
}

// Run dials, joins and pumps events until ctx is canceled. On any drop it
// waits out the backoff delay and reconnects; a successful session resets
// the delay to its initial value.
func (d *Dialer) Run(ctx context.Context) error {
	bo := d.newBackoff()
	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.opts.URL, d.opts.Header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := d.wait(ctx, bo.NextBackOff()); err != nil {
				return err
			}
			continue
		}

		bo.Reset()
		d.session(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Info().Str("module", "client").Str("url", d.opts.URL).Msg("connection dropped, reconnecting")
		if err := d.wait(ctx, bo.NextBackOff()); err != nil {
			return err
		}
	}
}

func (d *Dialer) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// session runs one connection to completion: join the configured room, then
// read until error or cancellation.
func (d *Dialer) session(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	if d.opts.Room != "" {
		join, _ := json.Marshal(map[string]string{"type": "join", "room": string(d.opts.Room)})
		if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("bad inbound frame")
			continue
		}
		if d.opts.OnEvent != nil {
			d.opts.OnEvent(env.Type, data)
		}
	}
}
