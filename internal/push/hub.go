package push

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strefethen/soundbar-hub-go/internal/registry"
)

const (
	// sendBuffer is the per-subscriber outbound queue. Slow consumers are
	// dropped rather than allowed to stall the event path.
	sendBuffer   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// StateChangedEvent is the frame pushed to subscribers on every device
// message.
type StateChangedEvent struct {
	Object     string             `json:"object"`
	Type       string             `json:"type"`
	SoundbarID string             `json:"soundbar_id"`
	State      registry.StateView `json:"state"`
	Timestamp  string             `json:"timestamp"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	stop chan struct{}
}

// Hub broadcasts soundbar state changes to all connected WebSocket
// subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// SoundbarStateChanged implements registry.Notifier.
func (h *Hub) SoundbarStateChanged(soundbarID string, state registry.StateView) {
	event := StateChangedEvent{
		Object:     "event",
		Type:       "soundbar.state_changed",
		SoundbarID: soundbarID,
		State:      state,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("PUSH: marshal state event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			// Queue full. Drop the subscriber, it is not keeping up.
			log.Printf("PUSH: dropping slow subscriber")
			h.removeLocked(sub)
		}
	}
}

// Subscribe registers a WebSocket connection and services it until the
// connection drops or the hub closes.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		stop: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	log.Printf("PUSH: subscriber connected (%d total)", count)

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subscribers {
		h.removeLocked(sub)
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.stop)
	sub.conn.Close()
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(sub)
				return
			}
		case <-sub.stop:
			return
		}
	}
}

// readLoop drains inbound frames so pong and close handling work. The push
// stream is one way, anything the subscriber sends is discarded.
func (h *Hub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.remove(sub)
			log.Printf("PUSH: subscriber disconnected")
			return
		}
	}
}
