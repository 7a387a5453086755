package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/tapstand/kiosk/api"
	"github.com/tapstand/kiosk/core"
)

const (
	handshakeTimeout = 3 * time.Second
	readDeadline     = 60 * time.Second
	pingInterval     = 30 * time.Second
)

// statusChannel maintains the push connection to the backend. Frames
// are wake-up signals only: onEvent triggers a re-fetch, the frame
// payload itself is never applied to the cache. The channel reconnects
// with exponential backoff until ctx is done.
type statusChannel struct {
	url    string
	logger core.Logger

	onEvent func(api.StatusEvent)
	onDown  func(err error)
}

// run dials, reads, and reconnects until ctx is cancelled. It never
// returns an error: a dead channel degrades the session to polling, it
// does not fail it.
func (ch *statusChannel) run(ctx context.Context) {
	for {
		conn, err := ch.connect(ctx)
		if err != nil {
			// Only context cancellation breaks the retry loop
			return
		}
		ch.logger.Info("Status channel connected", map[string]interface{}{
			"operation": "session.statusChannel",
			"url":       ch.url,
		})

		err = ch.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		ch.logger.Warn("Status channel dropped, reconnecting", map[string]interface{}{
			"operation": "session.statusChannel",
			"error":     err.Error(),
		})
		if ch.onDown != nil {
			ch.onDown(err)
		}
	}
}

func (ch *statusChannel) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	operation := func() (*websocket.Conn, error) {
		conn, _, err := dialer.DialContext(ctx, ch.url, nil)
		if err != nil {
			ch.logger.Debug("Status channel dial failed", map[string]interface{}{
				"operation": "session.statusChannel",
				"url":       ch.url,
				"error":     err.Error(),
			})
			return nil, err
		}
		return conn, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(0))
}

// readLoop owns the connection until it fails or ctx ends. Liveness is
// ping/pong: a missing pong lets the read deadline expire and the loop
// falls through to reconnect.
func (ch *statusChannel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	// Closing the conn from the watcher unblocks ReadMessage on teardown
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		var event api.StatusEvent
		if err := json.Unmarshal(data, &event); err != nil {
			ch.logger.Debug("Ignoring malformed status frame", map[string]interface{}{
				"operation": "session.statusChannel",
				"error":     err.Error(),
			})
			continue
		}
		if event.Type != api.EventOrderStatus {
			continue
		}
		if ch.onEvent != nil {
			ch.onEvent(event)
		}
	}
}
