package views

import "github.com/hyunwoogil/restaurant-order-service/pkg/models"

// MenuResponse is the full customer-facing menu snapshot: categories, items,
// option definitions/values and the item-option mapping in one payload.
type MenuResponse struct {
	Categories    []models.MenuCategory      `json:"categories"`
	Items         []models.MenuItem          `json:"items"`
	Options       []models.MenuOption        `json:"options"`
	OptionValues  []models.OptionValue       `json:"optionValues"`
	ItemOptionMap []models.ItemOptionMapping `json:"itemOptionMap"`
}
