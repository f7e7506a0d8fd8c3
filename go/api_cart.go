package commerceserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogports "github.com/ydbloom/commerce-api/internal/domains/catalog/ports"
	ordershttpmapper "github.com/ydbloom/commerce-api/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// CartAPI wires HTTP transport with the per-user shopping cart.
type CartAPI struct {
	carts    ordersports.CartRepository
	products catalogports.ProductRepository
}

// NewCartAPI creates a CartAPI backed by the provided repositories.
func NewCartAPI(carts ordersports.CartRepository, products catalogports.ProductRepository) CartAPI {
	return CartAPI{carts: carts, products: products}
}

type addCartItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	SizeID    *int64 `json:"size_id"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// Get /v1/cart
// Return the caller's cart, creating an empty one on first access
func (api *CartAPI) GetCart(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	cart, err := api.carts.GetByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainCart(cart))
}

// Post /v1/cart/items
// Add a product line to the caller's cart
func (api *CartAPI) AddItem(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	var payload addCartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Quantity <= 0 {
		respondError(c, http.StatusBadRequest, errors.New("quantity must be positive"))
		return
	}
	// The product must exist before it can be carted; stock is only
	// verified at checkout.
	if _, err := api.products.GetByID(c.Request.Context(), payload.ProductID); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	cart, err := api.carts.AddItem(c.Request.Context(), identity.UserID, ordersdomain.CartItem{
		ProductID: payload.ProductID,
		SizeID:    payload.SizeID,
		Quantity:  payload.Quantity,
	})
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainCart(cart))
}

// Patch /v1/cart/items/:itemId
// Set a cart line's quantity; zero or less removes the line
func (api *CartAPI) UpdateItem(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	var payload updateCartItemRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cart, err := api.carts.UpdateItemQuantity(c.Request.Context(), identity.UserID, itemID, payload.Quantity)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainCart(cart))
}

// Delete /v1/cart/items/:itemId
// Remove a line from the caller's cart
func (api *CartAPI) RemoveItem(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	if err := api.carts.RemoveItem(c.Request.Context(), identity.UserID, itemID); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
