package commerceserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Access marks which callers a route admits.
type Access int

const (
	// AccessPublic routes skip authentication entirely.
	AccessPublic Access = iota
	// AccessUser routes require an authenticated identity.
	AccessUser
	// AccessStaff routes additionally require the staff flag.
	AccessStaff
)

// Route is the information for every API endpoint.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	Access      Access
	HandlerFunc gin.HandlerFunc
}

// Routes is a map of defined API endpoints.
type Routes map[string][]Route

// RouteGuard supplies the middleware protecting non-public routes.
type RouteGuard struct {
	Authenticate gin.HandlerFunc
	RequireStaff gin.HandlerFunc
}

// ApiHandleFunctions holds the API handler implementations wired per group.
type ApiHandleFunctions struct {
	OrdersAPI   OrdersAPI
	CartAPI     CartAPI
	AdminAPI    AdminAPI
	WebhookAPI  WebhookAPI
	RealtimeAPI RealtimeAPI
}

// NewRouter returns a new gin router with all API routes attached.
func NewRouter(handleFunctions ApiHandleFunctions, guard RouteGuard) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions, guard)
}

// NewRouterWithGinEngine adds the API routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, guard RouteGuard) *gin.Engine {
	for _, routes := range getRoutes(handleFunctions) {
		for _, route := range routes {
			if route.HandlerFunc == nil {
				route.HandlerFunc = DefaultHandleFunc
			}
			handlers := guardChain(guard, route.Access)
			handlers = append(handlers, route.HandlerFunc)
			switch route.Method {
			case http.MethodGet:
				router.GET(route.Pattern, handlers...)
			case http.MethodPost:
				router.POST(route.Pattern, handlers...)
			case http.MethodPut:
				router.PUT(route.Pattern, handlers...)
			case http.MethodPatch:
				router.PATCH(route.Pattern, handlers...)
			case http.MethodDelete:
				router.DELETE(route.Pattern, handlers...)
			}
		}
	}
	return router
}

func guardChain(guard RouteGuard, access Access) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if access >= AccessUser && guard.Authenticate != nil {
		chain = append(chain, guard.Authenticate)
	}
	if access >= AccessStaff && guard.RequireStaff != nil {
		chain = append(chain, guard.RequireStaff)
	}
	return chain
}

// DefaultHandleFunc used when the route has no handler bound.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) Routes {
	return Routes{
		"OrdersAPI": {
			{
				"Checkout",
				http.MethodPost,
				"/v1/checkout",
				AccessUser,
				handleFunctions.OrdersAPI.Checkout,
			},
			{
				"ListOrders",
				http.MethodGet,
				"/v1/orders",
				AccessUser,
				handleFunctions.OrdersAPI.ListOrders,
			},
			{
				"GetOrder",
				http.MethodGet,
				"/v1/orders/:orderId",
				AccessUser,
				handleFunctions.OrdersAPI.GetOrder,
			},
			{
				"CancelOrder",
				http.MethodPost,
				"/v1/orders/:orderId/cancel",
				AccessUser,
				handleFunctions.OrdersAPI.CancelOrder,
			},
		},
		"CartAPI": {
			{
				"GetCart",
				http.MethodGet,
				"/v1/cart",
				AccessUser,
				handleFunctions.CartAPI.GetCart,
			},
			{
				"AddCartItem",
				http.MethodPost,
				"/v1/cart/items",
				AccessUser,
				handleFunctions.CartAPI.AddItem,
			},
			{
				"UpdateCartItem",
				http.MethodPatch,
				"/v1/cart/items/:itemId",
				AccessUser,
				handleFunctions.CartAPI.UpdateItem,
			},
			{
				"RemoveCartItem",
				http.MethodDelete,
				"/v1/cart/items/:itemId",
				AccessUser,
				handleFunctions.CartAPI.RemoveItem,
			},
		},
		"AdminAPI": {
			{
				"ListAllOrders",
				http.MethodGet,
				"/v1/admin/orders",
				AccessStaff,
				handleFunctions.AdminAPI.ListAllOrders,
			},
			{
				"UpdateOrderStatus",
				http.MethodPost,
				"/v1/admin/orders/:orderId/status",
				AccessStaff,
				handleFunctions.AdminAPI.UpdateOrderStatus,
			},
		},
		"WebhookAPI": {
			{
				"PaymentWebhook",
				http.MethodPost,
				"/v1/webhooks/payment",
				AccessPublic,
				handleFunctions.WebhookAPI.PaymentWebhook,
			},
		},
		"RealtimeAPI": {
			{
				"StreamOrders",
				http.MethodGet,
				"/v1/ws/orders",
				AccessUser,
				handleFunctions.RealtimeAPI.StreamOrders,
			},
		},
	}
}
