package mapper

import (
	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
)

// Cart is the transport-layer shape of a shopping cart.
type Cart struct {
	ID    int64      `json:"id"`
	Items []CartItem `json:"items"`
}

// CartItem is one line in a cart.
type CartItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	SizeID    *int64 `json:"size_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// FromDomainCart converts a domain cart to the transport representation.
func FromDomainCart(cart *ordersdomain.Cart) Cart {
	if cart == nil {
		return Cart{}
	}
	items := make([]CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
		})
	}
	return Cart{ID: cart.ID, Items: items}
}
