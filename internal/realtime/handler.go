package realtime

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	"github.com/ydbloom/commerce-api/internal/shared/auth"
	sharederrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsRequest struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
}

type wsAck struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler upgrades authenticated requests into hub sessions.
type Handler struct {
	hub    *Hub
	orders ordersports.Service
	logger *slog.Logger
}

// NewHandler wires a websocket handler onto the hub. The orders service
// gates per-order subscriptions behind the caller's visibility.
func NewHandler(hub *Hub, orders ordersports.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, orders: orders, logger: logger}
}

// Serve is the gin endpoint. Authentication happens before the upgrade so
// anonymous callers get a plain HTTP 401 instead of a half-open socket.
func (h *Handler) Serve(c *gin.Context) {
	identity, ok := auth.FromContext(c)
	if !ok {
		sharederrors.DefaultResponder.Respond(c, sharederrors.ErrUnauthorized.WithDetail("websocket requires authentication"))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	s := newSession(identity.UserID)
	h.hub.register(s)
	defer func() {
		h.hub.unregister(s)
		s.close()
	}()
	h.logger.Info("websocket session opened", slog.Int64("user.id", identity.UserID))

	// Single writer goroutine; the hub and the read loop both enqueue.
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Closing the connection unblocks the read loop when the hub
		// drops the session.
		defer ws.Close()
		for message := range s.send {
			if err := ws.WriteJSON(message); err != nil {
				h.logger.Warn("failed to write websocket message", slog.String("error", err.Error()))
				return
			}
		}
	}()

	h.readLoop(c, ws, s, identity)
	<-done
}

func (h *Handler) readLoop(c *gin.Context, ws *websocket.Conn, s *session, identity auth.Identity) {
	for {
		var req wsRequest
		if err := ws.ReadJSON(&req); err != nil {
			h.logger.Info("websocket session closed", slog.Int64("user.id", identity.UserID), slog.String("reason", err.Error()))
			return
		}
		switch req.Type {
		case "subscribe_order":
			ctx := c.Request.Context()
			if _, err := h.orders.GetOrder(ctx, identity.UserID, identity.Staff, req.OrderID); err != nil {
				h.enqueue(s, wsAck{Type: "subscription_rejected", OrderID: req.OrderID, Error: "order not visible"})
				continue
			}
			h.hub.subscribe(s, req.OrderID)
			h.enqueue(s, wsAck{Type: "subscription_confirmed", OrderID: req.OrderID})
		case "unsubscribe_order":
			h.hub.unsubscribe(s, req.OrderID)
			h.enqueue(s, wsAck{Type: "unsubscribed", OrderID: req.OrderID})
		default:
			h.enqueue(s, wsAck{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handler) enqueue(s *session, message any) {
	s.enqueue(message)
}
