package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"objmap/pkg/settings"
)

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
)

// Hub fans messages out to subscribers. A subscriber whose buffer is full
// misses the message; every message is a full snapshot so the next one
// catches it up.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

// Subscribe registers a new subscriber. The returned func unsubscribes; the
// channel is closed on unsubscribe or when the hub closes.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Publish delivers msg to every subscriber without blocking.
func (h *Hub) Publish(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			slog.Debug("Dropping settings event for slow subscriber")
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel and rejects new subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI may be served by a dev server on another port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler pushes the full settings JSON to websocket clients on connect
// and after every change.
type EventsHandler struct {
	store *settings.Store
	hub   *Hub
}

// NewEventsHandler registers a change callback on st that publishes
// snapshots to the hub.
func NewEventsHandler(st *settings.Store) *EventsHandler {
	h := &EventsHandler{store: st, hub: NewHub()}
	st.RegisterCallback(h.publish)
	return h
}

func (h *EventsHandler) publish() {
	data, err := h.store.MarshalJSON()
	if err != nil {
		slog.Error("Failed to encode settings event", "error", err)
		return
	}
	h.hub.Publish(data)
}

// Close disconnects all clients.
func (h *EventsHandler) Close() {
	h.hub.Close()
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Subscribe before the initial snapshot so no change falls in between.
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	initial, err := h.store.MarshalJSON()
	if err != nil {
		slog.Error("Failed to encode settings event", "error", err)
		return
	}
	if err := write(conn, initial); err != nil {
		return
	}

	// Drain client frames so close and pong frames are processed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := write(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		slog.Debug("Websocket write failed", "error", err)
		return err
	}
	return nil
}
