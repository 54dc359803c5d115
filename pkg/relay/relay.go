// Package relay implements the presence relay: a websocket fan-out hub
// that forwards every inbound envelope to all other connected clients.
//
// The relay is deliberately dumb. It holds no board state, performs no
// authentication, and does not interpret payloads beyond peeking at the
// userId of cursor_move messages so it can announce a cursor_leave when
// a client drops without saying goodbye.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/pkg/presence"
)

const clientSendBuffer = 64

// Hub fans messages out between connected presence clients.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	userID string // last userId seen in a cursor_move from this client
}

func (c *client) setUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *client) lastUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// The relay carries no credentials and no board state, so
			// cross-origin browser clients are allowed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Router returns the HTTP routes: the websocket endpoint at /ws and a
// health probe at /healthz.
func (h *Hub) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.serveWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("presence client connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.observe(c, data)
		h.broadcast(c, data)
	}
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// observe remembers the sender's userId so a leave can be synthesized
// if the connection drops.
func (h *Hub) observe(c *client, data []byte) {
	var msg presence.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	switch msg.Type {
	case presence.MessageCursorMove:
		var cur struct {
			UserID string `json:"userId"`
		}
		if json.Unmarshal(msg.Data, &cur) == nil && cur.UserID != "" {
			c.setUserID(cur.UserID)
		}
	case presence.MessageCursorLeave:
		// The client said goodbye itself; no synthesized leave needed.
		c.setUserID("")
	}
}

// broadcast forwards data to every client except from. Slow clients
// whose buffers are full have the frame dropped: presence is lossy by
// contract.
func (h *Hub) broadcast(from *client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c == from {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug().Msg("dropping frame for slow presence client")
		}
	}
}

// drop removes a client and announces its departure to the others.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !present {
		return
	}

	close(c.send)
	c.conn.Close()

	if userID := c.lastUserID(); userID != "" {
		if data, err := presence.EncodeCursorLeave(userID); err == nil {
			h.broadcast(nil, data)
		}
	}
	h.log.Debug().Msg("presence client disconnected")
}
