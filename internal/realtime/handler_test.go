package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	"github.com/ydbloom/commerce-api/internal/realtime"
	"github.com/ydbloom/commerce-api/internal/shared/auth"
)

type fakeOrders struct {
	ordersports.Service
}

func (fakeOrders) GetOrder(_ context.Context, userID int64, staff bool, orderID int64) (*ordersdomain.Order, error) {
	if !staff && orderID >= 100 {
		return nil, ordersports.ErrOrderNotFound
	}
	return &ordersdomain.Order{ID: orderID, UserID: userID, Status: ordersdomain.StatusPending}, nil
}

func newServer(t *testing.T) (*httptest.Server, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewMemoryTokenStore()
	tokens.Grant("user-token", auth.Identity{UserID: 42})

	hub := realtime.NewHub()
	handler := realtime.NewHandler(hub, fakeOrders{}, nil)

	router := gin.New()
	router.GET("/v1/ws/orders", auth.Middleware(tokens), handler.Serve)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub
}

func dial(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws/orders"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message map[string]any
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func TestServeRejectsAnonymous(t *testing.T) {
	server, _ := newServer(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws/orders"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusUpdateReachesClient(t *testing.T) {
	server, hub := newServer(t)
	conn := dial(t, server, "user-token")

	// Wait for the session to register before publishing.
	require.Eventually(t, func() bool { return hub.Sessions(42) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(42, 7, ordersdomain.StatusPaid, "Order #7 status updated to paid")

	message := readMessage(t, conn)
	assert.Equal(t, "order_status_update", message["type"])
	assert.Equal(t, float64(7), message["order_id"])
	assert.Equal(t, "paid", message["status"])
}

func TestSubscribeOrderConfirmed(t *testing.T) {
	server, hub := newServer(t)
	conn := dial(t, server, "user-token")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe_order", "order_id": 7}))

	message := readMessage(t, conn)
	assert.Equal(t, "subscription_confirmed", message["type"])
	assert.Equal(t, float64(7), message["order_id"])

	// Updates for the subscribed order arrive even when published under
	// another user's id.
	hub.Publish(1, 7, ordersdomain.StatusShipped, "shipped")
	update := readMessage(t, conn)
	assert.Equal(t, "order_status_update", update["type"])
}

func TestSubscribeOrderRejectedWhenNotVisible(t *testing.T) {
	server, _ := newServer(t)
	conn := dial(t, server, "user-token")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe_order", "order_id": 100}))

	message := readMessage(t, conn)
	assert.Equal(t, "subscription_rejected", message["type"])
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	server, _ := newServer(t)
	conn := dial(t, server, "user-token")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))

	message := readMessage(t, conn)
	assert.Equal(t, "error", message["type"])
}

func TestUnsubscribeOrderAcknowledged(t *testing.T) {
	server, hub := newServer(t)
	conn := dial(t, server, "user-token")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe_order", "order_id": 7}))
	message := readMessage(t, conn)
	require.Equal(t, "subscription_confirmed", message["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "unsubscribe_order", "order_id": 7}))
	message = readMessage(t, conn)
	assert.Equal(t, "unsubscribed", message["type"])
	assert.Equal(t, float64(7), message["order_id"])

	// A publish under another user's id no longer reaches this session.
	hub.Publish(1, 7, ordersdomain.StatusShipped, "shipped")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray map[string]any
	require.Error(t, conn.ReadJSON(&stray))
}
