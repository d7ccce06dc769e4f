package websocket

import (
	"errors"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserNotConnected means the target user holds no active connection.
var ErrUserNotConnected = errors.New("user not connected")

// Hub is the registry of active realtime connections keyed by the owning
// user. A user may hold several connections at once; targeted events reach
// every connection of exactly that user and nobody else.
type Hub struct {
	mu      sync.RWMutex
	clients map[primitive.ObjectID]map[*Client]struct{}
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[primitive.ObjectID]map[*Client]struct{}),
	}
}

// Register adds a client to its user's connection set.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.UserID] = set
	}
	set[client] = struct{}{}
}

// Unregister removes a client from its user's connection set. Safe to
// call more than once for the same client. The send channel stays open so
// a late emit from an in-flight aggregation can never panic; the write
// pump exits via the connection context instead.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
}

// SendToUser delivers an event to every connection the user currently
// holds. A connection whose send buffer is full drops the frame rather
// than blocking delivery to the rest.
func (h *Hub) SendToUser(userID primitive.ObjectID, event string, data interface{}) error {
	frame, err := marshalEvent(event, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[userID]
	if len(set) == 0 {
		return ErrUserNotConnected
	}
	for client := range set {
		select {
		case client.send <- frame:
		default:
			log.Printf("Dropping %s frame for slow connection %s", event, client.SubscriptionID)
		}
	}
	return nil
}

// ConnectionCount returns how many connections a user currently holds.
func (h *Hub) ConnectionCount(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
