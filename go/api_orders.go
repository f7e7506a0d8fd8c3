package commerceserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	"github.com/ydbloom/commerce-api/internal/shared/auth"
	apierrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

// OrdersAPI wires HTTP transport with the orders bounded context service.
type OrdersAPI struct {
	service ordersports.Service
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ordersports.Service) OrdersAPI {
	return OrdersAPI{service: service}
}

type checkoutRequest struct {
	CouponCode string `json:"coupon_code"`
}

// Post /v1/checkout
// Convert the caller's cart into a pending order and open a charge
func (api *OrdersAPI) Checkout(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var payload checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}
	result, err := api.service.Checkout(c.Request.Context(), identity.UserID, payload.CouponCode)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromCheckoutResult(result))
}

// Get /v1/orders
// List the caller's orders, newest first; staff see every order
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), identity.UserID, identity.Staff)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrderList(orders))
}

// Get /v1/orders/:orderId
// Load one order the caller may see
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), identity.UserID, identity.Staff, id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/cancel
// Cancel one of the caller's pending orders
func (api *OrdersAPI) CancelOrder(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.Cancel(c.Request.Context(), identity.UserID, id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

func callerIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := auth.FromContext(c)
	if !ok {
		respondProblem(c, apierrors.ErrUnauthorized.WithDetail("authentication required"))
		return auth.Identity{}, false
	}
	return identity, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
