package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
)

// Order maps to table `orders`. TotalAmount is fixed at creation time and is
// never recomputed on later transitions.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	OrderNo      int64           `json:"orderNo"`
	CustomerID   *uuid.UUID      `json:"customerId"`
	Status       pkg.OrderStatus `json:"status"`
	CustomerNote *string         `json:"customerNote"`
	TotalAmount  int64           `json:"totalAmount"` // minor currency unit
	CreatedAt    time.Time       `json:"createdAt"`
	AcceptedAt   *time.Time      `json:"acceptedAt"`
	CompletedAt  *time.Time      `json:"completedAt"`
	CanceledAt   *time.Time      `json:"canceledAt"`
}

// OrderItem maps to table `order_items`. Name and price are snapshots: the
// catalog item may change later without touching historical orders.
type OrderItem struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"orderId"`
	MenuItemID    uuid.UUID `json:"menuItemId"`
	NameSnapshot  string    `json:"nameSnapshot"`
	PriceSnapshot int64     `json:"priceSnapshot"`
	Qty           int       `json:"qty"`
	LineAmount    int64     `json:"lineAmount"`
}

// OrderItemOption maps to table `order_item_options`. Everything here is a
// snapshot of the selected option value at order time.
type OrderItemOption struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"orderItemId"`
	OptionKey   string    `json:"optionKey"`
	OptionName  string    `json:"optionName"`
	ValueKey    string    `json:"valueKey"`
	ValueLabel  string    `json:"valueLabel"`
	PriceDelta  int64     `json:"priceDelta"`
}

// StatusLog maps to table `order_status_logs` (append-only).
type StatusLog struct {
	ID         uuid.UUID        `json:"id"`
	OrderID    uuid.UUID        `json:"orderId"`
	FromStatus *pkg.OrderStatus `json:"fromStatus"`
	ToStatus   pkg.OrderStatus  `json:"toStatus"`
	ChangedBy  *string          `json:"changedBy"`
	CreatedAt  time.Time        `json:"createdAt"`
}
