package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// UserService manages guest customer identities. Guests mint their own uuid
// client-side and register it here before placing orders.
type UserService interface {
	UpsertGuest(ctx context.Context, traceID string, req views.UpsertGuestRequest) (models.User, error)
}

type UserServiceImpl struct {
	logger   *zap.Logger
	tx       TxRunner
	userRepo repositories.UserRepository
}

func NewUserService(logger *zap.Logger, db *database.DB, userRepo repositories.UserRepository) UserService {
	return &UserServiceImpl{logger: logger, tx: db, userRepo: userRepo}
}

func (s *UserServiceImpl) UpsertGuest(ctx context.Context, traceID string, req views.UpsertGuestRequest) (models.User, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return models.User{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "id must be uuid", err)
	}

	var user models.User
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		user, err = s.userRepo.UpsertGuest(ctx, tx, id, req.Name)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
