package spectate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

type Codec uint8

const (
	JSON Codec = iota
	MsgPack
)

func (c Codec) String() string {
	if c == MsgPack {
		return "msgpack"
	}
	return "json"
}

func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	}
	return JSON, fmt.Errorf("unknown codec %q", s)
}

func (c Codec) encode(ev Event) ([]byte, error) {
	if c == MsgPack {
		return msgpack.Marshal(&ev)
	}
	return json.Marshal(ev)
}

func (c Codec) messageType() int {
	if c == MsgPack {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

const (
	DefaultSendBuffer = 64
	writeTimeout      = 5 * time.Second
)

type client struct {
	conn  *websocket.Conn
	codec Codec
	send  chan []byte
}

// Hub fans events out to every connected spectator. Each client has its own
// writer goroutine; a client whose buffer fills up is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	info    *Event
	closed  bool

	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer: DefaultSendBuffer,
		logger:     logger.With("component", "spectate"),
	}
}

// Clients returns the number of connected spectators.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the connection until the peer
// goes away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := ParseCodec(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, codec: codec, send: make(chan []byte, h.sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	h.logger.Info("spectator connected", "remote", r.RemoteAddr, "codec", codec.String())

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.info != nil {
		if data, err := c.codec.encode(*h.info); err == nil {
			c.send <- data
		}
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister must be called with h.mu held.
func (h *Hub) unregister(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readLoop discards anything the spectator sends; it only exists to notice
// the connection closing.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		h.unregister(c)
		h.mu.Unlock()
		h.logger.Info("spectator disconnected", "remote", c.conn.RemoteAddr().String())
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(c.codec.messageType(), data); err != nil {
			h.logger.Debug("write error", "error", err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcast sends ev to every client. A game_info event is also kept and
// replayed to spectators that join later.
func (h *Hub) Broadcast(ev Event) error {
	var encoded [2][]byte
	for _, codec := range []Codec{JSON, MsgPack} {
		data, err := codec.encode(ev)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", ev.Type, codec, err)
		}
		encoded[codec] = data
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ev.Type == EventGameInfo {
		info := ev
		h.info = &info
	}
	for c := range h.clients {
		select {
		case c.send <- encoded[c.codec]:
		default:
			h.logger.Warn("dropping slow spectator", "remote", c.conn.RemoteAddr().String())
			h.unregister(c)
		}
	}
	return nil
}

// Close disconnects every spectator and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.unregister(c)
	}
}
