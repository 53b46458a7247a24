package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/goroutine"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// hub fans admin refresh pings out to every connected dashboard socket.
type hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	log      logrus.FieldLogger
	recovery *goroutine.RecoveryHandler
}

func newHub(log logrus.FieldLogger) *hub {
	return &hub{
		clients:  make(map[*wsClient]struct{}),
		log:      log,
		recovery: goroutine.NewRecoveryHandler(log),
	}
}

// NotifyRefresh tells every connected admin client its data went stale.
// Slow consumers get dropped rather than blocking the mutation path.
func (h *hub) NotifyRefresh() {
	payload, _ := json.Marshal(map[string]string{"type": "refresh"})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.recovery.SafeGo(c.close)
		}
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// wsClient is one admin dashboard connection.
type wsClient struct {
	conn *websocket.Conn
	hub  *hub
	send chan []byte
	once sync.Once
}

func newWSClient(conn *websocket.Conn, h *hub) *wsClient {
	return &wsClient{conn: conn, hub: h, send: make(chan []byte, 16)}
}

// run pumps until either side goes away. Blocks the caller (the upgraded
// handler goroutine) on the read side.
func (c *wsClient) run() {
	c.hub.add(c)
	c.hub.recovery.SafeGo(c.writePump)
	c.readPump()
}

func (c *wsClient) close() {
	c.once.Do(func() {
		c.hub.remove(c)
		c.conn.Close()
	})
}

func (c *wsClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(32 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Admin clients never send application frames; reading just services
	// control frames and detects the close.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
