package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients, keyed two ways: by user ID for
// direct notification delivery, and by room for content-scoped engagement
// events. A client subscribes to rooms explicitly; messages for a room it
// never joined are never sent to it.
type Hub struct {
	// Registered clients by user ID
	clients map[string]map[*Client]bool

	// Room subscriptions by room key ("content:{kind}:{id}")
	rooms map[string]map[*Client]bool

	// Inbound messages from the clients
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Room join/leave requests
	join  chan *roomRequest
	leave chan *roomRequest

	mu sync.RWMutex
}

// Message represents a WebSocket message. Exactly one of UserID or Room is
// set: UserID routes to one user's connections, Room fans out to room
// subscribers.
type Message struct {
	UserID  string                 `json:"user_id,omitempty"`
	Room    string                 `json:"room,omitempty"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type roomRequest struct {
	client *Client
	room   string
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan *roomRequest),
		leave:      make(chan *roomRequest),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered: UserID=%s, Total clients for user: %d", client.UserID, len(h.clients[client.UserID]))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			for room := range client.rooms {
				h.removeFromRoom(client, room)
			}
			h.mu.Unlock()
			log.Printf("Client unregistered: UserID=%s", client.UserID)

		case req := <-h.join:
			h.mu.Lock()
			if h.rooms[req.room] == nil {
				h.rooms[req.room] = make(map[*Client]bool)
			}
			h.rooms[req.room][req.client] = true
			req.client.rooms[req.room] = true
			h.mu.Unlock()

		case req := <-h.leave:
			h.mu.Lock()
			h.removeFromRoom(req.client, req.room)
			delete(req.client.rooms, req.room)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			switch {
			case message.UserID != "":
				if clients, ok := h.clients[message.UserID]; ok {
					for client := range clients {
						h.deliver(client, message, clients)
					}
				}
			case message.Room != "":
				if clients, ok := h.rooms[message.Room]; ok {
					for client := range clients {
						h.deliver(client, message, clients)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// deliver pushes a message onto a client's send queue, dropping the client if
// its queue is saturated.
func (h *Hub) deliver(client *Client, message *Message, set map[*Client]bool) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(set, client)
	}
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

// BroadcastToUser sends a notification to all of one user's connections
func (h *Hub) BroadcastToUser(userID string, payload map[string]interface{}) {
	message := &Message{
		UserID:  userID,
		Type:    "notification",
		Payload: payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping message for user: %s", userID)
	}
}

// Publish fans an engagement event out to every subscriber of a content room
func (h *Hub) Publish(event, room string, payload map[string]interface{}) {
	message := &Message{
		Room:    room,
		Type:    event,
		Payload: payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping %s for room: %s", event, room)
	}
}

// GetClientCount returns the number of connected clients for a user
func (h *Hub) GetClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

// GetRoomCount returns the number of subscribers in a room
func (h *Hub) GetRoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[room]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalClientCount returns the total number of connected clients
func (h *Hub) GetTotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
