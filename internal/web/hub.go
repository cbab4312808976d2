package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/storage"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Hub streams completed runs to connected WebSocket clients.
type Hub struct {
	upgrader         websocket.Upgrader
	clients          map[*websocket.Conn]bool
	clientsMu        sync.Mutex
	broadcastChannel chan storage.RunRecord
	stopChannel      chan struct{}
	stopOnce         sync.Once
}

// NewHub creates a hub; call Run to start broadcasting.
func NewHub() *Hub {
	return &Hub{
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]bool),
		broadcastChannel: make(chan storage.RunRecord, 100),
		stopChannel:      make(chan struct{}),
	}
}

// Run broadcasts published runs until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case rec := <-h.broadcastChannel:
			h.broadcastToClients(rec)
		case <-h.stopChannel:
			return
		}
	}
}

// Publish queues a run for broadcast. It never blocks the caller.
func (h *Hub) Publish(rec storage.RunRecord) {
	select {
	case h.broadcastChannel <- rec:
	default:
		log.Warn().Str("run_id", rec.ID).Msg("Live feed backlog full, dropping run update")
	}
}

// Close stops broadcasting and disconnects every client.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.stopChannel)

		h.clientsMu.Lock()
		for client := range h.clients {
			client.Close()
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.clientsMu.Unlock()
	})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcastToClients(rec storage.RunRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal run for broadcast")
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("Dropping WebSocket client")
			client.Close()
			delete(h.clients, client)
		}
	}
}

// ServeWS upgrades the connection, sends the given backlog and then keeps the
// client registered until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, backlog []storage.RunRecord) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// Oldest first, so clients can append in order
	for i := len(backlog) - 1; i >= 0; i-- {
		data, err := json.Marshal(backlog[i])
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	h.clientsMu.Lock()
	select {
	case <-h.stopChannel:
		h.clientsMu.Unlock()
		return
	default:
	}
	h.clients[conn] = true
	h.clientsMu.Unlock()

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.clientsMu.Lock()
	delete(h.clients, conn)
	h.clientsMu.Unlock()
}
