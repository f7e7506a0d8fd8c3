package mapper

import (
	"time"

	ordersdomain "github.com/ydbloom/commerce-api/internal/domains/orders/domain"
	ordersports "github.com/ydbloom/commerce-api/internal/domains/orders/ports"
)

// Order is the transport-layer shape of an order.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Status    string      `json:"status"`
	Total     string      `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one purchased line on an order.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	SizeID    *int64 `json:"size_id,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// CheckoutResponse carries the created order plus the provider handle the
// client finishes the payment with.
type CheckoutResponse struct {
	Order           Order  `json:"order"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *ordersdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return Order{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total.StringFixed(2),
		Items:     items,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

// FromDomainOrderList converts a list of domain orders.
func FromDomainOrderList(orders []*ordersdomain.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, FromDomainOrder(order))
	}
	return result
}

// FromCheckoutResult converts a checkout outcome.
func FromCheckoutResult(result *ordersports.CheckoutResult) CheckoutResponse {
	if result == nil {
		return CheckoutResponse{}
	}
	return CheckoutResponse{
		Order:           FromDomainOrder(result.Order),
		PaymentIntentID: result.PaymentIntentID,
		ClientSecret:    result.ClientSecret,
	}
}
