package main

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ServerEvent is what the relay pushes to connected clients.
type ServerEvent struct {
	Type string `json:"type"` // "info" | "user:online" | "user:offline" | "typing:start" | "typing:stop" | "notification" | "error"
	From int    `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// clientEvent is what clients may send to the relay.
type clientEvent struct {
	Type       string `json:"type"`
	ReceiverID int    `json:"receiverId,omitempty"`
}

// presenceClient is one live WebSocket connection.
type presenceClient struct {
	userID int
	conn   *websocket.Conn
	send   chan ServerEvent
}

// PresenceHub tracks which users currently hold an open WebSocket and
// relays typing indicators and notifications between them. It is an
// explicit service object: constructed once at process start and passed by
// reference to whatever needs it, never a package-level table.
type PresenceHub struct {
	mu            sync.RWMutex
	clientsByUser map[int]map[*presenceClient]bool
}

func NewPresenceHub() *PresenceHub {
	return &PresenceHub{clientsByUser: make(map[int]map[*presenceClient]bool)}
}

func (h *PresenceHub) register(c *presenceClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsByUser[c.userID] == nil {
		h.clientsByUser[c.userID] = make(map[*presenceClient]bool)
	}
	h.clientsByUser[c.userID][c] = true
}

// unregister drops the client and reports whether it was the user's last
// open connection.
func (h *PresenceHub) unregister(c *presenceClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.clientsByUser[c.userID]
	if !ok {
		return false
	}
	delete(peers, c)
	if len(peers) == 0 {
		delete(h.clientsByUser, c.userID)
		return true
	}
	return false
}

// SendToUser delivers the event to every open connection of one user.
// Events are dropped when a client's buffer is full.
func (h *PresenceHub) SendToUser(userID int, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clientsByUser[userID] {
		select {
		case c.send <- evt:
		default:
		}
	}
}

// Broadcast delivers the event to every connected user except the sender.
func (h *PresenceHub) Broadcast(fromUserID int, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID, peers := range h.clientsByUser {
		if userID == fromUserID {
			continue
		}
		for c := range peers {
			select {
			case c.send <- evt:
			default:
			}
		}
	}
}

// IsOnline reports whether the user has at least one open connection.
func (h *PresenceHub) IsOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clientsByUser[userID]) > 0
}

// OnlineUsers returns the ids of all currently connected users.
func (h *PresenceHub) OnlineUsers() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int, 0, len(h.clientsByUser))
	for id := range h.clientsByUser {
		ids = append(ids, id)
	}
	return ids
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser clients are static pages on arbitrary dev origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler upgrades an authenticated connection and runs the relay loops.
// Auth uses the same JWT as the REST API, passed as ?token= because the
// browser WebSocket API cannot set headers.
func wsHandler(hub *PresenceHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		userID, ok := parseToken(tokenString)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error for user %d: %v", userID, err)
			return
		}

		client := &presenceClient{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
		}
		first := !hub.IsOnline(userID)
		hub.register(client)

		client.send <- ServerEvent{Type: "info", Data: "connected"}
		if first {
			hub.Broadcast(userID, ServerEvent{Type: "user:online", From: userID})
		}

		go clientWriter(client)
		clientReader(hub, client)
	}
}

func clientReader(hub *PresenceHub, c *presenceClient) {
	defer func() {
		if hub.unregister(c) {
			hub.Broadcast(c.userID, ServerEvent{Type: "user:offline", From: c.userID})
		}
		c.conn.Close()
		close(c.send)
	}()

	for {
		var evt clientEvent
		if err := c.conn.ReadJSON(&evt); err != nil {
			return
		}
		switch evt.Type {
		case "typing:start", "typing:stop":
			if evt.ReceiverID != 0 {
				hub.SendToUser(evt.ReceiverID, ServerEvent{Type: evt.Type, From: c.userID})
			}
		default:
			select {
			case c.send <- ServerEvent{Type: "error", Data: "unknown event type"}:
			default:
			}
		}
	}
}

func clientWriter(c *presenceClient) {
	for evt := range c.send {
		if err := c.conn.WriteJSON(evt); err != nil {
			return
		}
	}
}
