package realtime

import (
	"io"
	"log/slog"
	"sync"

	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// sendBuffer bounds how far a slow reader may lag before it is dropped.
const sendBuffer = 16

// StatusUpdate is the message pushed to connected clients when an order
// they can see changes status.
type StatusUpdate struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Hub tracks live sessions per user plus explicit per-order subscriptions,
// and fans order-status updates out to both. Publishing never blocks: a
// session whose buffer is full is dropped rather than stalling the caller.
type Hub struct {
	mu        sync.RWMutex
	users     map[int64]map[*session]struct{}
	orderSubs map[int64]map[*session]struct{}
	logger    *slog.Logger
}

var _ ordersports.Broadcaster = (*Hub)(nil)

// Option configures the hub.
type Option func(*Hub)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub builds an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		users:     make(map[int64]map[*session]struct{}),
		orderSubs: make(map[int64]map[*session]struct{}),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Publish delivers a status update to every session belonging to the owning
// user and every session explicitly subscribed to the order.
func (h *Hub) Publish(userID, orderID int64, status ordersdomain.Status, message string) {
	update := StatusUpdate{
		Type:    "order_status_update",
		OrderID: orderID,
		Status:  string(status),
		Message: message,
	}

	h.mu.RLock()
	targets := make(map[*session]struct{}, len(h.users[userID])+len(h.orderSubs[orderID]))
	for s := range h.users[userID] {
		targets[s] = struct{}{}
	}
	for s := range h.orderSubs[orderID] {
		targets[s] = struct{}{}
	}
	h.mu.RUnlock()

	for s := range targets {
		h.deliver(s, update)
	}
}

func (h *Hub) deliver(s *session, update StatusUpdate) {
	if !s.enqueue(update) {
		// Reader fell too far behind; cut it loose instead of blocking.
		h.logger.Warn("dropping slow websocket session", slog.Int64("user.id", s.userID))
		h.unregister(s)
		s.close()
	}
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions, ok := h.users[s.userID]
	if !ok {
		sessions = make(map[*session]struct{})
		h.users[s.userID] = sessions
	}
	sessions[s] = struct{}{}
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sessions, ok := h.users[s.userID]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.users, s.userID)
		}
	}
	for orderID, subs := range h.orderSubs {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.orderSubs, orderID)
		}
	}
}

func (h *Hub) subscribe(s *session, orderID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.orderSubs[orderID]
	if !ok {
		subs = make(map[*session]struct{})
		h.orderSubs[orderID] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) unsubscribe(s *session, orderID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.orderSubs[orderID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.orderSubs, orderID)
		}
	}
}

// Sessions reports how many live sessions a user currently holds.
func (h *Hub) Sessions(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// session is one live websocket connection owned by a user. All outbound
// traffic funnels through send so a single writer owns the connection.
type session struct {
	userID int64

	mu     sync.Mutex
	closed bool
	send   chan any
}

func newSession(userID int64) *session {
	return &session{
		userID: userID,
		send:   make(chan any, sendBuffer),
	}
}

// enqueue offers a message without blocking. It reports false when the
// session is closed or its buffer is full.
func (s *session) enqueue(message any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
