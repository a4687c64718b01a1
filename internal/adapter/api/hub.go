package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/stockleague/backend/internal/usecase/leaderboard"
)

// standingsMessage is the frame pushed to every connected client when the
// leaderboard changes.
type standingsMessage struct {
	Type string            `json:"type"`
	Rows []leaderboard.Row `json:"rows"`
	At   time.Time         `json:"at"`
}

// Hub fans leaderboard updates out to WebSocket clients. Clients that cannot
// keep up with the broadcast rate are dropped so the hub loop never blocks.
type Hub struct {
	logger *slog.Logger

	clients    map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan *standingsMessage

	// Closed when Run returns. Register and unregister sends select on it
	// so client goroutines never block on a loop that has stopped.
	done chan struct{}

	// Latest message, resent to clients on connect.
	latest   *standingsMessage
	latestMu sync.RWMutex
}

// NewHub creates an idle hub; call Run to start the loop.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan *standingsMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast events until the context
// is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			if latest := h.latestMessage(); latest != nil {
				client.send <- latest
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			h.setLatest(message)
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("dropping slow websocket client")
				}
			}
		}
	}
}

// BroadcastStandings queues a standings update for every connected client.
// The send is non-blocking; when the queue is full the update is dropped
// because a fresher one is already on the way.
func (h *Hub) BroadcastStandings(rows []leaderboard.Row) {
	message := &standingsMessage{
		Type: "standings",
		Rows: rows,
		At:   time.Now().UTC(),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping standings update")
	}
}

func (h *Hub) setLatest(message *standingsMessage) {
	h.latestMu.Lock()
	h.latest = message
	h.latestMu.Unlock()
}

func (h *Hub) latestMessage() *standingsMessage {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()
	return h.latest
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Hub) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan *standingsMessage, 16),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
