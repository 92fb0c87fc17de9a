package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DeviceService registers and deactivates push tokens for a user's devices.
type DeviceService interface {
	Register(ctx context.Context, traceID string, req views.RegisterDeviceRequest) (models.Device, error)
	Unregister(ctx context.Context, traceID string, req views.UnregisterDeviceRequest) error
}

type DeviceServiceImpl struct {
	logger     *zap.Logger
	tx         TxRunner
	deviceRepo repositories.DeviceRepository
}

func NewDeviceService(logger *zap.Logger, db *database.DB, deviceRepo repositories.DeviceRepository) DeviceService {
	return &DeviceServiceImpl{logger: logger, tx: db, deviceRepo: deviceRepo}
}

func (s *DeviceServiceImpl) Register(ctx context.Context, traceID string, req views.RegisterDeviceRequest) (models.Device, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return models.Device{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "userId must be uuid", err)
	}
	platform := pkg.DevicePlatform(req.Platform)
	if !platform.Valid() {
		return models.Device{}, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("unknown platform: %s", req.Platform), nil)
	}

	device := models.Device{
		UserID:   userID,
		Platform: platform,
		FcmToken: req.FcmToken,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.deviceRepo.Upsert(ctx, tx, &device); err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		return nil
	})
	if err != nil {
		return models.Device{}, err
	}

	s.logger.Info("device registered",
		zap.String(pkg.TraceId, traceID),
		zap.String("userId", req.UserID),
		zap.String("platform", req.Platform),
	)
	return device, nil
}

func (s *DeviceServiceImpl) Unregister(ctx context.Context, traceID string, req views.UnregisterDeviceRequest) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		found, err := s.deviceRepo.Deactivate(ctx, tx, req.FcmToken)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		if !found {
			return pkg.NewAppError(pkg.ErrNotFoundCode, "device not found", nil)
		}
		return nil
	})
}
