package commerceserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
	apierrors "github.com/ydbloom/commerce-api/internal/shared/errors"
)

// AdminAPI exposes staff-only order management.
type AdminAPI struct {
	service ordersports.Service
}

// NewAdminAPI creates an AdminAPI backed by the provided service.
func NewAdminAPI(service ordersports.Service) AdminAPI {
	return AdminAPI{service: service}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Get /v1/admin/orders
// List every order in the system
func (api *AdminAPI) ListAllOrders(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), identity.UserID, true)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrderList(orders))
}

// Post /v1/admin/orders/:orderId/status
// Drive an order through the state machine, applying inventory side effects
func (api *AdminAPI) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload updateStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	target := ordersdomain.Status(payload.Status)
	if !ordersdomain.ValidStatus(target) {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{
			"status": "must be one of pending, paid, shipped, delivered, cancelled",
		}))
		return
	}
	order, err := api.service.Transition(c.Request.Context(), id, target)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}
