package handler

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"portalsync/internal/app/session"
	"portalsync/internal/app/user"
	"portalsync/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong from the UI.
	pongWait = 60 * time.Second

	// frequency at which the bridge pings the UI.
	pingPeriod = (pongWait * 9) / 10

	// the UI only sends control frames; anything larger is a protocol error.
	maxMessageSize = 512
)

// eventClient streams session events to one UI connection.
type eventClient struct {
	conn   *websocket.Conn
	events <-chan session.Event
	cancel func()

	logger zerolog.Logger
}

func newEventClient(conn *websocket.Conn, events <-chan session.Event, cancel func()) *eventClient {
	return &eventClient{
		conn:   conn,
		events: events,
		cancel: cancel,
		logger: logx.Component("bridge").With().Str("remote", conn.RemoteAddr().String()).Logger(),
	}
}

// readPump discards inbound frames and handles heartbeats. It returns when the
// UI disconnects, and unsubscribes so writePump drains and exits.
func (c *eventClient) readPump() {
	defer c.cancel()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Event stream closed unexpectedly")
			}
			return
		}
	}
}

// writePump forwards events until the subscription is closed.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Event stream close error")
		}
	}()

	for {
		select {
		case event, ok := <-c.events:
			if !c.writeEvent(event, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeEvent returns false when writePump should stop.
func (c *eventClient) writeEvent(event session.Event, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if p, isProfile := event.Payload.(user.Profile); isProfile {
		event.Payload = publicProfile(p)
	}

	data, err := json.Marshal(event)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Error marshaling event")
		return true
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing event")
		return false
	}

	return true
}

func (c *eventClient) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
