package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/gorilla/websocket"
)

// Tick is the broadcast payload pushed after every trade and worker snapshot.
type Tick struct {
	PlayerID    int64        `json:"player_id"`
	SpotPrice   market.Cents `json:"spot_price"`
	TotalShares int64        `json:"total_shares"`
	At          time.Time    `json:"at"`
}

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 32
	broadcastDepth = 256
)

// Hub fans market ticks out to websocket subscribers. Publishing never
// blocks: when the hub or a client falls behind, ticks are dropped for that
// consumer rather than stalling the trade path.
type Hub struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan Tick
}

type client struct {
	conn *websocket.Conn
	send chan Tick
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Play-money ticker; any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Tick, broadcastDepth),
	}
}

// Run owns the client set. It returns when ctx-free shutdown is handled by
// closing the process; the hub holds no external resources beyond conns.
func (h *Hub) Run() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case tick := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- tick:
				default:
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// PublishTick satisfies the engine's publisher contract.
func (h *Hub) PublishTick(playerID int64, spot market.Cents, totalShares int64) {
	tick := Tick{PlayerID: playerID, SpotPrice: spot, TotalShares: totalShares, At: time.Now()}
	select {
	case h.broadcast <- tick:
	default:
		h.log.Warn("tick dropped, broadcast queue full", "player_id", playerID)
	}
}

// ServeHTTP upgrades the request and streams ticks until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan Tick, clientBuffer)}
	h.register <- c

	go c.writeLoop()
	c.readLoop(h)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for tick := range c.send {
		payload, err := json.Marshal(tick)
		if err != nil {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, nil)
}

// readLoop drains and discards client frames so pings and close frames are
// processed, then unregisters on disconnect.
func (c *client) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
