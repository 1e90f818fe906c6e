package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSMessage is one event on the live feed.
type WSMessage map[string]interface{}

// Client represents a websocket connection
type Client struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Hub maintains connected event listeners and broadcasts server events
// (new messages, new ads) to all of them. The mobile client polls over
// REST; this feed serves web frontends.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// broadcast channel for safe message dispatch
	broadcast chan WSMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan WSMessage, 64),
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// ClientCount reports the number of connected listeners.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// drop if broadcast channel is full to avoid blocking
	}
}

// Run listens on broadcast channel and dispatches messages to clients safely.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		clients := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			clients = append(clients, c)
		}
		h.mu.RUnlock()

		for _, c := range clients {
			select {
			case c.send <- msg:
			default:
				// drop if client's send buffer is full
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the REST API is already open to any origin
		return true
	},
}

// ServeWS upgrades the connection and subscribes it to the event feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	client := &Client{conn: conn, send: make(chan WSMessage, 16)}
	h.addClient(client)
	log.Printf("WebSocket: listener connected from %s", r.RemoteAddr)

	go h.writerLoop(client)
	h.readerLoop(client)
}

func (h *Hub) writerLoop(c *Client) {
	ticker := time.NewTicker(25 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readerLoop drains the connection; the feed is one-directional, so any
// inbound payload is ignored and only read errors matter.
func (h *Hub) readerLoop(c *Client) {
	defer func() {
		h.removeClient(c)
		log.Printf("WebSocket: listener disconnected")
	}()

	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
