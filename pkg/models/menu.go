package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
)

// MenuCategory maps to table `menu_categories`
type MenuCategory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
}

// MenuItem maps to table `menu_items`
type MenuItem struct {
	ID          uuid.UUID  `json:"id"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Price       int64      `json:"price"` // minor currency unit
	ImageURL    *string    `json:"imageUrl"`
	SortOrder   int        `json:"sortOrder"`
	IsActive    bool       `json:"isActive"`
}

// MenuOption maps to table `menu_item_options`
type MenuOption struct {
	ID            uuid.UUID         `json:"id"`
	Key           string            `json:"key"`
	Name          string            `json:"name"`
	SelectionType pkg.SelectionType `json:"selectionType"`
	IsRequired    bool              `json:"isRequired"`
	SortOrder     int               `json:"sortOrder"`
}

// OptionValue maps to table `menu_option_values`
type OptionValue struct {
	ID         uuid.UUID `json:"id"`
	OptionID   uuid.UUID `json:"optionId"`
	ValueKey   string    `json:"valueKey"`
	Label      string    `json:"label"`
	PriceDelta int64     `json:"priceDelta"`
	SortOrder  int       `json:"sortOrder"`
	IsActive   bool      `json:"isActive"`
}

// ItemOptionMapping maps to table `menu_item_option_map`
type ItemOptionMapping struct {
	MenuItemID uuid.UUID `json:"menuItemId"`
	OptionID   uuid.UUID `json:"optionId"`
	SortOrder  int       `json:"sortOrder"`
}

// User maps to table `users`
type User struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Device maps to table `devices`
type Device struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"userId"`
	Platform   pkg.DevicePlatform `json:"platform"`
	FcmToken   string             `json:"fcmToken"`
	IsActive   bool               `json:"isActive"`
	LastSeenAt *time.Time         `json:"lastSeenAt"`
}
