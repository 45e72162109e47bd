package ws

import (
	"sync"
)

// Hub tracks every registered connection and the room each conversation's
// subscribers share. All state is guarded by one mutex; handlers touch it only
// through these methods.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connID -> client
	rooms   map[string]map[string]*Client // conversationID -> connID -> client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister drops the connection and removes it from every room it joined.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.ID)
	for roomID, room := range h.rooms {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomID] = room
	}
	room[c.ID] = c
}

func (h *Hub) Leave(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[roomID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// BroadcastRoom queues payload to every room member. exceptConnID, when
// non-empty, is skipped (typing relays exclude the typist).
func (h *Hub) BroadcastRoom(roomID string, payload []byte, exceptConnID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.rooms[roomID] {
		if id == exceptConnID {
			continue
		}
		c.Enqueue(payload)
	}
}

// SendToConn queues payload to one connection if it is still registered.
func (h *Hub) SendToConn(connID string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	c.Enqueue(payload)
	return true
}

// InRoom reports whether the connection is currently subscribed to the room.
func (h *Hub) InRoom(roomID, connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][connID]
	return ok
}
