package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/jackc/pgx/v5"
)

// DeviceRepository manages the device-token registry. The order pipeline only
// ever reads "active tokens for user X"; registration is a client concern.
type DeviceRepository interface {
	ActiveTokens(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]string, error)
	// Upsert registers a device keyed by its token; a re-registered token is
	// reassigned to the new user and reactivated.
	Upsert(ctx context.Context, tx pgx.Tx, device *models.Device) error
	// Deactivate marks a token inactive; returns false when unknown.
	Deactivate(ctx context.Context, tx pgx.Tx, fcmToken string) (bool, error)
}

type DeviceRepositoryImpl struct {
}

func NewDeviceRepository() DeviceRepository {
	return &DeviceRepositoryImpl{}
}

func (d DeviceRepositoryImpl) ActiveTokens(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT fcm_token
		FROM devices
		WHERE user_id = $1 AND is_active = TRUE AND fcm_token <> ''
		ORDER BY last_seen_at DESC NULLS LAST
		LIMIT 20`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err = rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (d DeviceRepositoryImpl) Upsert(ctx context.Context, tx pgx.Tx, device *models.Device) error {
	return tx.QueryRow(ctx, `
		INSERT INTO devices (user_id, platform, fcm_token, is_active, last_seen_at)
		VALUES ($1, $2, $3, TRUE, now())
		ON CONFLICT (fcm_token)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			is_active = TRUE,
			last_seen_at = now()
		RETURNING id, is_active, last_seen_at`,
		device.UserID,
		device.Platform,
		device.FcmToken,
	).Scan(&device.ID, &device.IsActive, &device.LastSeenAt)
}

func (d DeviceRepositoryImpl) Deactivate(ctx context.Context, tx pgx.Tx, fcmToken string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE devices SET is_active = FALSE, last_seen_at = now()
		WHERE fcm_token = $1`,
		fcmToken,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
