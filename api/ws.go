package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/civicseal/civicledger/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BlockEvent is pushed to every connected client when a report is sealed.
// Digests only, no narrative content.
type BlockEvent struct {
	Action      string      `json:"action"`
	ReportID    string      `json:"reportId"`
	BlockIndex  int         `json:"blockIndex"`
	BlockHash   core.Digest `json:"blockHash"`
	ChainLength int         `json:"chainLength"`
}

// Hub tracks live WebSocket connections and fans block events out to them.
type Hub struct {
	mutex sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away. Clients only listen; inbound messages are drained
// to detect disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to WebSocket", "error", err)
		return
	}

	h.mutex.Lock()
	h.conns[conn] = true
	h.mutex.Unlock()

	defer func() {
		h.mutex.Lock()
		delete(h.conns, conn)
		h.mutex.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the event to every connection, dropping the ones that
// fail to write.
func (h *Hub) Broadcast(event BlockEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			slog.Error("failed to broadcast block event", "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
