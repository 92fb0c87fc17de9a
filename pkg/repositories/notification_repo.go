package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/jackc/pgx/v5"
)

// NotificationRepository persists the durable outbound-notification queue.
// Records are enqueued in the transaction that changes order state and
// finalized (sent/failed) in a later, independent transaction.
type NotificationRepository interface {
	// Enqueue writes a record in `queued` state; fills ID and CreatedAt.
	Enqueue(ctx context.Context, tx pgx.Tx, n *models.Notification) error

	// MarkSent finalizes a record that is still `queued`. The compare-and-swap
	// on send_status guarantees at most one writer finalizes a record.
	MarkSent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	// MarkFailed finalizes a record as failed with an error detail. Same CAS
	// discipline as MarkSent.
	MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errMsg string) (bool, error)

	// ClaimQueued selects up to limit `queued` records oldest-first, locking
	// the rows for the claiming transaction. SKIP LOCKED lets concurrent
	// sweeps pass over each other's claims instead of double-sending.
	ClaimQueued(ctx context.Context, tx pgx.Tx, limit int) ([]models.Notification, error)

	List(ctx context.Context, db *database.DB, orderID *uuid.UUID, limit int) ([]models.Notification, error)
}

type NotificationRepositoryImpl struct {
}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (n NotificationRepositoryImpl) Enqueue(ctx context.Context, tx pgx.Tx, rec *models.Notification) error {
	return tx.QueryRow(ctx, `
		INSERT INTO notification_logs (order_id, user_id, channel, title, body, payload, send_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		rec.OrderID,
		rec.UserID,
		rec.Channel,
		rec.Title,
		rec.Body,
		rec.Payload,
		pkg.SendStatusQueued,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (n NotificationRepositoryImpl) MarkSent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE notification_logs
		SET send_status = $1, sent_at = now(), error_message = NULL
		WHERE id = $2 AND send_status = $3`,
		pkg.SendStatusSent, id, pkg.SendStatusQueued,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (n NotificationRepositoryImpl) MarkFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, errMsg string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE notification_logs
		SET send_status = $1, sent_at = now(), error_message = $2
		WHERE id = $3 AND send_status = $4`,
		pkg.SendStatusFailed, errMsg, id, pkg.SendStatusQueued,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (n NotificationRepositoryImpl) ClaimQueued(ctx context.Context, tx pgx.Tx, limit int) ([]models.Notification, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, order_id, user_id, channel, title, body, payload, send_status, error_message, created_at, sent_at
		FROM notification_logs
		WHERE send_status = $1 AND channel = $2
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED`,
		pkg.SendStatusQueued, pkg.ChannelFCM, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (n NotificationRepositoryImpl) List(ctx context.Context, db *database.DB, orderID *uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := db.Query(ctx, `
		SELECT id, order_id, user_id, channel, title, body, payload, send_status, error_message, created_at, sent_at
		FROM notification_logs
		WHERE ($1::uuid IS NULL OR order_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`,
		orderID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func scanNotifications(rows pgx.Rows) ([]models.Notification, error) {
	var records []models.Notification
	for rows.Next() {
		var rec models.Notification
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.UserID, &rec.Channel, &rec.Title, &rec.Body,
			&rec.Payload, &rec.SendStatus, &rec.ErrorMessage, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
