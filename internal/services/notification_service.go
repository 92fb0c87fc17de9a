package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/push"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/hyunwoogil/restaurant-order-service/pkg/utils"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// NotificationService runs the dispatch sweep over queued notification
// records and serves the admin notification log.
type NotificationService interface {
	// DispatchPending claims up to limit queued records and attempts delivery
	// for each. One record's outcome never affects another's.
	DispatchPending(ctx context.Context, traceID string, limit int) (views.DispatchSummary, error)
	List(ctx context.Context, traceID string, orderID *string, limit int) ([]models.Notification, error)
}

type NotificationServiceImpl struct {
	logger     *zap.Logger
	db         *database.DB
	tx         TxRunner
	notifRepo  repositories.NotificationRepository
	deviceRepo repositories.DeviceRepository
	pusher     push.Sender
}

func NewNotificationService(
	logger *zap.Logger,
	db *database.DB,
	notifRepo repositories.NotificationRepository,
	deviceRepo repositories.DeviceRepository,
	pusher push.Sender,
) NotificationService {
	return &NotificationServiceImpl{
		logger:     logger,
		db:         db,
		tx:         db,
		notifRepo:  notifRepo,
		deviceRepo: deviceRepo,
		pusher:     pusher,
	}
}

// DispatchPending is the recovery path for notifications whose inline push
// never got a recorded outcome (crash between commit and finalize). The whole
// sweep runs in one transaction: claimed rows stay locked until commit, so a
// concurrent sweep skips them instead of double-sending, and the CAS on
// send_status catches anything that slipped through.
func (s *NotificationServiceImpl) DispatchPending(ctx context.Context, traceID string, limit int) (views.DispatchSummary, error) {
	var summary views.DispatchSummary

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		records, err := s.notifRepo.ClaimQueued(ctx, tx, limit)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}

		for _, rec := range records {
			summary.Processed++
			sent, err := s.dispatchOne(ctx, tx, traceID, rec)
			if err != nil {
				return err
			}
			if sent {
				summary.Sent++
			} else {
				summary.Failed++
			}
		}
		return nil
	})
	if err != nil {
		return views.DispatchSummary{}, err
	}

	if summary.Processed > 0 {
		s.logger.Info("notification sweep finished",
			zap.String(pkg.TraceId, traceID),
			zap.Int("processed", summary.Processed),
			zap.Int("sent", summary.Sent),
			zap.Int("failed", summary.Failed),
		)
	}
	return summary, nil
}

// dispatchOne resolves tokens, pushes, and finalizes one claimed record.
// Delivery problems are recorded on the row, never returned; only a storage
// failure aborts the sweep.
func (s *NotificationServiceImpl) dispatchOne(ctx context.Context, tx pgx.Tx, traceID string, rec models.Notification) (bool, error) {
	if rec.UserID == nil {
		return false, s.finalize(ctx, tx, traceID, rec.ID, false, pkg.ErrNoActiveDeviceTokens.Error())
	}

	tokens, err := s.deviceRepo.ActiveTokens(ctx, tx, *rec.UserID)
	if err != nil {
		return false, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if len(tokens) == 0 {
		return false, s.finalize(ctx, tx, traceID, rec.ID, false, pkg.ErrNoActiveDeviceTokens.Error())
	}

	result, err := s.pusher.Send(ctx, tokens, rec.Title, rec.Body, rec.Payload)
	if err != nil {
		s.logger.Warn("push send failed",
			zap.String(pkg.TraceId, traceID),
			zap.String("notificationId", rec.ID.String()),
			zap.Error(err),
		)
		return false, s.finalize(ctx, tx, traceID, rec.ID, false, utils.Truncate(err.Error(), maxErrorDetailLen))
	}

	if result.FailureCount > 0 {
		return false, s.finalize(ctx, tx, traceID, rec.ID, false, serializeResults(result))
	}
	return true, s.finalize(ctx, tx, traceID, rec.ID, true, "")
}

func (s *NotificationServiceImpl) finalize(ctx context.Context, tx pgx.Tx, traceID string, id uuid.UUID, sent bool, errMsg string) error {
	var updated bool
	var err error
	if sent {
		updated, err = s.notifRepo.MarkSent(ctx, tx, id)
	} else {
		updated, err = s.notifRepo.MarkFailed(ctx, tx, id, errMsg)
	}
	if err != nil {
		return pkg.HandleSQLError(traceID, s.logger, err)
	}
	if !updated {
		s.logger.Warn("notification already finalized",
			zap.String(pkg.TraceId, traceID),
			zap.String("notificationId", id.String()),
		)
	}
	return nil
}

func (s *NotificationServiceImpl) List(ctx context.Context, traceID string, orderID *string, limit int) ([]models.Notification, error) {
	oid, err := parseOptionalUUID(orderID, "orderId")
	if err != nil {
		return nil, err
	}
	records, err := s.notifRepo.List(ctx, s.db, oid, limit)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return records, nil
}
