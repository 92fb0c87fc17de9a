package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
)

// Notification maps to table `notification_logs`. Created as `queued` inside
// the same transaction as the status change that triggered it; finalized to
// sent/failed in a later, independent transaction. At most one dispatch
// attempt result is retained (a retry overwrites ErrorMessage).
type Notification struct {
	ID           uuid.UUID               `json:"id"`
	OrderID      uuid.UUID               `json:"orderId"`
	UserID       *uuid.UUID              `json:"userId"`
	Channel      pkg.NotificationChannel `json:"channel"`
	Title        string                  `json:"title"`
	Body         string                  `json:"body"`
	Payload      map[string]string       `json:"payload"` // client deep-link data
	SendStatus   pkg.SendStatus          `json:"sendStatus"`
	ErrorMessage *string                 `json:"errorMessage"`
	CreatedAt    time.Time               `json:"createdAt"`
	SentAt       *time.Time              `json:"sentAt"`
}
