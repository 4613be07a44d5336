package notify

import (
	"encoding/json"
	"log"
)

// Event is the wire shape of one broadcast message. Type carries the domain
// (contact, callback, cta, kyc) and Event the action (created, status).
type Event struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	ID     uint   `json:"id,omitempty"`
	KycID  uint   `json:"kycId,omitempty"`
	UserID uint   `json:"userId,omitempty"`
	Status string `json:"status,omitempty"`
}

// Hub maintains the set of live subscriber connections and fans events out
// to them. All registry mutation happens on the Run goroutine; a subscriber
// whose send buffer is full or closed is dropped so it can never stall
// delivery to the others.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a hub; call Run before broadcasting
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client registry until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow or dead subscriber; abandon it, keep going.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Stop closes every connection and ends the Run loop
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast serializes the event and queues it for every open connection
func (h *Hub) Broadcast(evt Event) {
	msg, err := json.Marshal(evt)
	if err != nil {
		log.Printf("WARN: notify: marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
