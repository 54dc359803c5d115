// Package presence implements the ephemeral cursor-presence layer: a
// best-effort duplex channel to a relay endpoint, plus an in-memory
// cache of remote cursors with staleness eviction.
//
// The channel is availability-best-effort by design: outbound sends are
// fire-and-forget when not connected, malformed inbound messages are
// dropped, and an unexpected close re-enters the connect loop with
// exponential backoff forever. Only an explicit Disconnect is terminal.
package presence

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/pkg/models"
)

// State is the connection state of a Channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Reconnect backoff bounds.
const (
	initialReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Channel is a reconnecting websocket client for the presence relay.
//
// Handlers are invoked from the channel's read goroutine; they must not
// block. Self-filtering of the local user's own cursor_move echoes is
// the consumer's responsibility, not the channel's.
type Channel struct {
	url string
	log zerolog.Logger

	onCursor func(models.CursorPosition)
	onLeave  func(userID string)

	// dial and afterFunc are indirections for tests.
	dial      func(url string) (*websocket.Conn, error)
	afterFunc func(d time.Duration, f func()) *time.Timer

	minSendInterval time.Duration

	mu             sync.Mutex
	conn           *websocket.Conn
	state          State
	closed         bool
	reconnectDelay time.Duration
	reconnectTimer *time.Timer
	lastSend       time.Time
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(log zerolog.Logger) ChannelOption {
	return func(c *Channel) { c.log = log }
}

// WithSendInterval rate-limits outbound cursor_move messages to at most
// one per interval. Zero (the default) sends one message per pointer
// move, matching the relay wire contract's expectations.
func WithSendInterval(d time.Duration) ChannelOption {
	return func(c *Channel) { c.minSendInterval = d }
}

// NewChannel creates a channel for the given relay URL. Register
// handlers with OnMessage before calling Connect.
func NewChannel(url string, opts ...ChannelOption) *Channel {
	c := &Channel{
		url:            url,
		log:            zerolog.Nop(),
		state:          StateDisconnected,
		reconnectDelay: initialReconnectDelay,
		afterFunc:      time.AfterFunc,
	}
	c.dial = func(url string) (*websocket.Conn, error) {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return conn, err
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnMessage registers the inbound handlers for cursor updates and
// leaves.
func (c *Channel) OnMessage(onCursor func(models.CursorPosition), onLeave func(userID string)) {
	c.onCursor = onCursor
	c.onLeave = onLeave
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop. It returns immediately; failures
// are handled by the backoff schedule, never surfaced.
func (c *Channel) Connect() {
	go c.connect()
}

// Disconnect tears the channel down for good: it cancels any pending
// reconnect, closes the active connection and guarantees no reconnect
// fires afterwards. The channel cannot be reused.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(c.url)
	if err != nil {
		c.log.Debug().Err(err).Str("url", c.url).Msg("presence connect failed")
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		// Disconnect raced the dial; drop the fresh connection.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.reconnectDelay = initialReconnectDelay
	c.mu.Unlock()

	c.log.Debug().Str("url", c.url).Msg("presence connected")
	go c.readLoop(conn)
}

// scheduleReconnect arms the backoff timer: the current delay is used
// for this attempt and doubled for the next, capped at
// maxReconnectDelay. Nothing is scheduled after an explicit Disconnect.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateDisconnected
	if c.closed {
		return
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}

	delay := c.reconnectDelay
	c.reconnectDelay *= 2
	if c.reconnectDelay > maxReconnectDelay {
		c.reconnectDelay = maxReconnectDelay
	}

	c.log.Debug().Dur("delay", delay).Msg("presence reconnect scheduled")
	c.reconnectTimer = c.afterFunc(delay, c.connect)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if !closed {
				c.log.Debug().Err(err).Msg("presence connection lost")
				c.scheduleReconnect()
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage decodes one inbound envelope. Malformed payloads are
// dropped without affecting channel state.
func (c *Channel) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Debug().Err(err).Msg("dropping malformed presence message")
		return
	}

	switch msg.Type {
	case MessageCursorMove:
		var cur models.CursorPosition
		if err := json.Unmarshal(msg.Data, &cur); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed cursor_move payload")
			return
		}
		if c.onCursor != nil {
			c.onCursor(cur)
		}
	case MessageCursorLeave:
		var leave LeavePayload
		if err := json.Unmarshal(msg.Data, &leave); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed cursor_leave payload")
			return
		}
		if c.onLeave != nil {
			c.onLeave(leave.UserID)
		}
	default:
		c.log.Debug().Str("type", msg.Type).Msg("dropping presence message of unknown type")
	}
}

// SendCursorPosition broadcasts the local cursor. Fire-and-forget: a
// no-op unless the channel is currently connected.
func (c *Channel) SendCursorPosition(cur models.CursorPosition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.minSendInterval > 0 {
		now := time.Now()
		if now.Sub(c.lastSend) < c.minSendInterval {
			return
		}
		c.lastSend = now
	}

	data, err := EncodeCursorMove(cur)
	if err != nil {
		return
	}
	c.writeLocked(data)
}

// SendCursorLeave announces that the local user is going away.
// Fire-and-forget like SendCursorPosition.
func (c *Channel) SendCursorLeave(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := EncodeCursorLeave(userID)
	if err != nil {
		return
	}
	c.writeLocked(data)
}

// writeLocked sends one frame if connected. Callers hold c.mu, which
// also serializes writers on the underlying connection.
func (c *Channel) writeLocked(data []byte) {
	if c.state != StateConnected || c.conn == nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Debug().Err(err).Msg("presence send failed")
	}
}
