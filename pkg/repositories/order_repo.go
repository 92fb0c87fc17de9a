package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/jackc/pgx/v5"
)

// OrderRepository persists the order aggregate and its append-only status log.
type OrderRepository interface {
	// Insert writes the order header and fills ID, OrderNo and CreatedAt.
	Insert(ctx context.Context, tx pgx.Tx, order *models.Order) error
	// InsertItem writes one line and fills its ID.
	InsertItem(ctx context.Context, tx pgx.Tx, item *models.OrderItem) error
	InsertItemOptions(ctx context.Context, tx pgx.Tx, options []models.OrderItemOption) error

	// GetForUpdate locks the order row for the duration of a transition
	// transaction so concurrent transitions on the same order serialize.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Order, error)
	GetByID(ctx context.Context, db *database.DB, id uuid.UUID) (models.Order, error)
	ListRecent(ctx context.Context, db *database.DB, customerID *uuid.UUID, status *pkg.OrderStatus, limit int) ([]models.Order, error)
	ListItems(ctx context.Context, db *database.DB, orderID uuid.UUID) ([]models.OrderItem, error)
	ListItemOptions(ctx context.Context, db *database.DB, itemIDs []uuid.UUID) ([]models.OrderItemOption, error)

	// MarkAccepted/MarkCompleted/MarkCanceled set the status and stamp the
	// matching *_at column exactly once; timestamps are never cleared.
	MarkAccepted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error)
	MarkCanceled(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error)

	// AppendStatusLog appends to the audit trail; rows are never updated.
	AppendStatusLog(ctx context.Context, tx pgx.Tx, log models.StatusLog) error
}

type OrderRepositoryImpl struct {
}

func NewOrderRepository() OrderRepository {
	return &OrderRepositoryImpl{}
}

func (o OrderRepositoryImpl) Insert(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	return tx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, status, customer_note, total_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_no, created_at`,
		order.CustomerID,
		order.Status,
		order.CustomerNote,
		order.TotalAmount,
	).Scan(&order.ID, &order.OrderNo, &order.CreatedAt)
}

func (o OrderRepositoryImpl) InsertItem(ctx context.Context, tx pgx.Tx, item *models.OrderItem) error {
	return tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name_snapshot, price_snapshot, qty, line_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		item.OrderID,
		item.MenuItemID,
		item.NameSnapshot,
		item.PriceSnapshot,
		item.Qty,
		item.LineAmount,
	).Scan(&item.ID)
}

func (o OrderRepositoryImpl) InsertItemOptions(ctx context.Context, tx pgx.Tx, options []models.OrderItemOption) error {
	for _, opt := range options {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_item_options (order_item_id, option_key, option_name, value_key, value_label, price_delta)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			opt.OrderItemID,
			opt.OptionKey,
			opt.OptionName,
			opt.ValueKey,
			opt.ValueLabel,
			opt.PriceDelta,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, order_no, customer_id, status, customer_note, total_amount, created_at, accepted_at, completed_at, canceled_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var ord models.Order
	err := row.Scan(&ord.ID, &ord.OrderNo, &ord.CustomerID, &ord.Status, &ord.CustomerNote,
		&ord.TotalAmount, &ord.CreatedAt, &ord.AcceptedAt, &ord.CompletedAt, &ord.CanceledAt)
	return ord, err
}

func (o OrderRepositoryImpl) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Order, error) {
	return scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (o OrderRepositoryImpl) GetByID(ctx context.Context, db *database.DB, id uuid.UUID) (models.Order, error) {
	return scanOrder(db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (o OrderRepositoryImpl) ListRecent(ctx context.Context, db *database.DB, customerID *uuid.UUID, status *pkg.OrderStatus, limit int) ([]models.Order, error) {
	rows, err := db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::uuid IS NULL OR customer_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		customerID, status, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}

func (o OrderRepositoryImpl) ListItems(ctx context.Context, db *database.DB, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name_snapshot, price_snapshot, qty, line_amount
		FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err = rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.NameSnapshot, &it.PriceSnapshot, &it.Qty, &it.LineAmount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (o OrderRepositoryImpl) ListItemOptions(ctx context.Context, db *database.DB, itemIDs []uuid.UUID) ([]models.OrderItemOption, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT id, order_item_id, option_key, option_name, value_key, value_label, price_delta
		FROM order_item_options WHERE order_item_id = ANY($1)`,
		itemIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.OrderItemOption
	for rows.Next() {
		var opt models.OrderItemOption
		if err = rows.Scan(&opt.ID, &opt.OrderItemID, &opt.OptionKey, &opt.OptionName, &opt.ValueKey, &opt.ValueLabel, &opt.PriceDelta); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (o OrderRepositoryImpl) MarkAccepted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error) {
	var at time.Time
	err := tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, accepted_at = now()
		WHERE id = $2
		RETURNING accepted_at`,
		pkg.OrderStatusAccepted, id,
	).Scan(&at)
	return at, err
}

func (o OrderRepositoryImpl) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error) {
	var at time.Time
	err := tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, completed_at = now()
		WHERE id = $2
		RETURNING completed_at`,
		pkg.OrderStatusCompleted, id,
	).Scan(&at)
	return at, err
}

func (o OrderRepositoryImpl) MarkCanceled(ctx context.Context, tx pgx.Tx, id uuid.UUID) (time.Time, error) {
	var at time.Time
	err := tx.QueryRow(ctx, `
		UPDATE orders SET status = $1, canceled_at = now()
		WHERE id = $2
		RETURNING canceled_at`,
		pkg.OrderStatusCanceled, id,
	).Scan(&at)
	return at, err
}

func (o OrderRepositoryImpl) AppendStatusLog(ctx context.Context, tx pgx.Tx, log models.StatusLog) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_logs (order_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)`,
		log.OrderID,
		log.FromStatus,
		log.ToStatus,
		log.ChangedBy,
	)
	return err
}
