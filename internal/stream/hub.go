package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// maxInboundMessage caps what subscribers may send; the hub ignores it anyway.
const maxInboundMessage = 512

// Hub fans snapshot events out to websocket subscribers.
type Hub struct {
	cfg      HubConfig
	logger   *slog.Logger
	observer SubscriberObserver
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	last   []byte
	closed bool

	wg sync.WaitGroup
}

// subscriber is one connected websocket.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// NewHub creates a Hub. observer may be nil.
func NewHub(cfg HubConfig, observer SubscriberObserver, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultHubConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &Hub{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the subscriber until it
// disconnects. A subscriber joining after a snapshot was published receives
// the latest event immediately.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrHubClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, h.cfg.BufferSize),
		done: make(chan struct{}),
	}
	if err := h.add(sub); err != nil {
		sub.close()
		return
	}
	defer h.remove(sub)

	go h.writePump(sub)

	h.readPump(sub)
}

// Publish sends snap to every subscriber. Subscribers whose buffer is full
// are disconnected.
func (h *Hub) Publish(snap *model.Snapshot) error {
	if snap == nil {
		return nil
	}
	data, err := json.Marshal(NewSnapshotEvent(snap))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.last = data
	var slow []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.logger.Warn("subscriber buffer full, disconnecting", "remote", sub.conn.RemoteAddr().String())
		h.remove(sub)
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second),
		)
		h.remove(sub)
	}
	h.wg.Wait()
}

func (h *Hub) add(sub *subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	// Registered under mu so Close cannot reach wg.Wait first.
	h.wg.Add(1)
	h.subs[sub] = struct{}{}
	if h.last != nil {
		sub.send <- h.last
	}
	if h.observer != nil {
		h.observer.SubscriberAdded()
	}
	h.logger.Debug("subscriber connected", "remote", sub.conn.RemoteAddr().String(), "subscribers", len(h.subs))
	return nil
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	n := len(h.subs)
	h.mu.Unlock()

	sub.close()
	if !ok {
		return
	}
	if h.observer != nil {
		h.observer.SubscriberRemoved()
	}
	h.logger.Debug("subscriber disconnected", "remote", sub.conn.RemoteAddr().String(), "subscribers", n)
}

// readPump discards inbound messages and keeps the read deadline fresh on
// pongs. It returns when the connection fails or is closed.
func (h *Hub) readPump(sub *subscriber) {
	timeout := 2 * h.cfg.PingInterval
	sub.conn.SetReadLimit(maxInboundMessage)
	sub.conn.SetReadDeadline(time.Now().Add(timeout))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer of data frames on sub.conn.
func (h *Hub) writePump(sub *subscriber) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("subscriber write failed", "error", err)
				sub.close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				h.logger.Debug("failed to send ping", "error", err)
				sub.close()
				return
			}
		}
	}
}
