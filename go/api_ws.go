package commerceserver

import (
	"github.com/gin-gonic/gin"

	"github.com/ydbloom/commerce-api/internal/realtime"
)

// RealtimeAPI upgrades authenticated requests into live order-status streams.
type RealtimeAPI struct {
	handler *realtime.Handler
}

// NewRealtimeAPI creates a RealtimeAPI backed by the websocket handler.
func NewRealtimeAPI(handler *realtime.Handler) RealtimeAPI {
	return RealtimeAPI{handler: handler}
}

// Get /v1/ws/orders
// Stream order-status updates over a websocket
func (api *RealtimeAPI) StreamOrders(c *gin.Context) {
	api.handler.Serve(c)
}
