package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/jackc/pgx/v5"
)

// MenuRepository reads the catalog. The order pipeline only ever reads menu
// data; editing the catalog is out of scope for this service.
type MenuRepository interface {
	// GetItem resolves one menu item inside the order-creation transaction.
	GetItem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.MenuItem, error)
	GetOption(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.MenuOption, error)
	// IsOptionAttached reports whether the option is mapped to the menu item.
	IsOptionAttached(ctx context.Context, tx pgx.Tx, menuItemID, optionID uuid.UUID) (bool, error)
	// GetOptionValues resolves the given value keys under one option. Missing
	// keys are simply absent from the result; the caller reports them all.
	GetOptionValues(ctx context.Context, tx pgx.Tx, optionID uuid.UUID, valueKeys []string) ([]models.OptionValue, error)

	ListCategories(ctx context.Context, db *database.DB) ([]models.MenuCategory, error)
	ListItems(ctx context.Context, db *database.DB) ([]models.MenuItem, error)
	FindItem(ctx context.Context, db *database.DB, id uuid.UUID) (*models.MenuItem, error)
	ListOptions(ctx context.Context, db *database.DB) ([]models.MenuOption, error)
	ListOptionValues(ctx context.Context, db *database.DB) ([]models.OptionValue, error)
	ListItemOptionMap(ctx context.Context, db *database.DB) ([]models.ItemOptionMapping, error)
}

type MenuRepositoryImpl struct {
}

func NewMenuRepository() MenuRepository {
	return &MenuRepositoryImpl{}
}

func (m MenuRepositoryImpl) GetItem(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.MenuItem, error) {
	var item models.MenuItem
	err := tx.QueryRow(ctx, `
		SELECT id, category_id, name, description, price, image_url, sort_order, is_active
		FROM menu_items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description, &item.Price, &item.ImageURL, &item.SortOrder, &item.IsActive)
	return item, err
}

func (m MenuRepositoryImpl) GetOption(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.MenuOption, error) {
	var opt models.MenuOption
	err := tx.QueryRow(ctx, `
		SELECT id, key, name, selection_type, is_required, sort_order
		FROM menu_item_options WHERE id = $1`,
		id,
	).Scan(&opt.ID, &opt.Key, &opt.Name, &opt.SelectionType, &opt.IsRequired, &opt.SortOrder)
	return opt, err
}

func (m MenuRepositoryImpl) IsOptionAttached(ctx context.Context, tx pgx.Tx, menuItemID, optionID uuid.UUID) (bool, error) {
	var attached bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM menu_item_option_map WHERE menu_item_id = $1 AND option_id = $2)`,
		menuItemID, optionID,
	).Scan(&attached)
	return attached, err
}

func (m MenuRepositoryImpl) GetOptionValues(ctx context.Context, tx pgx.Tx, optionID uuid.UUID, valueKeys []string) ([]models.OptionValue, error) {
	if len(valueKeys) == 0 {
		return nil, nil
	}
	rows, err := tx.Query(ctx, `
		SELECT id, option_id, value_key, label, price_delta, sort_order, is_active
		FROM menu_option_values
		WHERE option_id = $1 AND value_key = ANY($2)`,
		optionID, valueKeys,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOptionValues(rows)
}

func (m MenuRepositoryImpl) ListCategories(ctx context.Context, db *database.DB) ([]models.MenuCategory, error) {
	rows, err := db.Query(ctx, `
		SELECT id, name, sort_order, is_active
		FROM menu_categories
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.MenuCategory
	for rows.Next() {
		var c models.MenuCategory
		if err = rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (m MenuRepositoryImpl) ListItems(ctx context.Context, db *database.DB) ([]models.MenuItem, error) {
	rows, err := db.Query(ctx, `
		SELECT id, category_id, name, description, price, image_url, sort_order, is_active
		FROM menu_items
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err = rows.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.ImageURL, &it.SortOrder, &it.IsActive); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m MenuRepositoryImpl) FindItem(ctx context.Context, db *database.DB, id uuid.UUID) (*models.MenuItem, error) {
	var it models.MenuItem
	err := db.QueryRow(ctx, `
		SELECT id, category_id, name, description, price, image_url, sort_order, is_active
		FROM menu_items WHERE id = $1`,
		id,
	).Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.ImageURL, &it.SortOrder, &it.IsActive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (m MenuRepositoryImpl) ListOptions(ctx context.Context, db *database.DB) ([]models.MenuOption, error) {
	rows, err := db.Query(ctx, `
		SELECT id, key, name, selection_type, is_required, sort_order
		FROM menu_item_options
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.MenuOption
	for rows.Next() {
		var o models.MenuOption
		if err = rows.Scan(&o.ID, &o.Key, &o.Name, &o.SelectionType, &o.IsRequired, &o.SortOrder); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (m MenuRepositoryImpl) ListOptionValues(ctx context.Context, db *database.DB) ([]models.OptionValue, error) {
	rows, err := db.Query(ctx, `
		SELECT id, option_id, value_key, label, price_delta, sort_order, is_active
		FROM menu_option_values
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, label ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOptionValues(rows)
}

func (m MenuRepositoryImpl) ListItemOptionMap(ctx context.Context, db *database.DB) ([]models.ItemOptionMapping, error) {
	rows, err := db.Query(ctx, `
		SELECT menu_item_id, option_id, sort_order
		FROM menu_item_option_map
		ORDER BY sort_order ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.ItemOptionMapping
	for rows.Next() {
		var mp models.ItemOptionMapping
		if err = rows.Scan(&mp.MenuItemID, &mp.OptionID, &mp.SortOrder); err != nil {
			return nil, err
		}
		mappings = append(mappings, mp)
	}
	return mappings, rows.Err()
}

func scanOptionValues(rows pgx.Rows) ([]models.OptionValue, error) {
	var values []models.OptionValue
	for rows.Next() {
		var v models.OptionValue
		if err := rows.Scan(&v.ID, &v.OptionID, &v.ValueKey, &v.Label, &v.PriceDelta, &v.SortOrder, &v.IsActive); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
