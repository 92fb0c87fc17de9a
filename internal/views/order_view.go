package views

import (
	"time"

	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
)

type SelectedOptionIn struct {
	OptionID  string   `json:"optionId" binding:"required"`
	ValueKeys []string `json:"valueKeys"`
}

type OrderItemIn struct {
	MenuItemID      string             `json:"menuItemId" binding:"required"`
	Qty             int                `json:"qty" binding:"required,gt=0"`
	SelectedOptions []SelectedOptionIn `json:"selectedOptions" binding:"dive"`
}

type CreateOrderRequest struct {
	CustomerID   *string       `json:"customerId"`
	CustomerNote *string       `json:"customerNote"`
	Items        []OrderItemIn `json:"items" binding:"required,min=1,dive"`
}

type AcceptOrderRequest struct {
	OwnerID string  `json:"ownerId" binding:"required"`
	Message *string `json:"message"` // optional custom push body
}

type CompleteOrderRequest struct {
	OwnerID string `json:"ownerId" binding:"required"`
}

// OrderSummary is the order header returned from creation and list endpoints.
type OrderSummary struct {
	OrderID     string          `json:"orderId"`
	OrderNo     int64           `json:"orderNo"`
	Status      pkg.OrderStatus `json:"status"`
	TotalAmount int64           `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type OrderDetailResponse struct {
	Order       models.Order             `json:"order"`
	Items       []models.OrderItem       `json:"items"`
	ItemOptions []models.OrderItemOption `json:"itemOptions"`
}

// PushSummary reports the best-effort delivery attempt of an accept call.
// Delivery failures are reported here and never fail the parent operation.
type PushSummary struct {
	Tokens  int    `json:"tokens"`
	Success int    `json:"success"`
	Failure int    `json:"failure"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// TransitionResponse is returned from accept/complete/cancel.
type TransitionResponse struct {
	OrderID     string          `json:"orderId"`
	OrderNo     int64           `json:"orderNo"`
	Status      pkg.OrderStatus `json:"status"`
	AcceptedAt  *time.Time      `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	CanceledAt  *time.Time      `json:"canceledAt,omitempty"`
	Notified    *PushSummary    `json:"notified,omitempty"`
}

func ToOrderSummary(order models.Order) OrderSummary {
	return OrderSummary{
		OrderID:     order.ID.String(),
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
}
