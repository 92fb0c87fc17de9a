package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user repository.
type UserRepository interface {
	// UpsertGuest creates or refreshes a guest customer row. An existing
	// user keeps its name when the new one is null.
	UpsertGuest(ctx context.Context, tx pgx.Tx, id uuid.UUID, name *string) (models.User, error)
}

type UserRepositoryImpl struct {
}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (u UserRepositoryImpl) UpsertGuest(ctx context.Context, tx pgx.Tx, id uuid.UUID, name *string) (models.User, error) {
	var user models.User
	err := tx.QueryRow(ctx, `
		INSERT INTO users (id, role, name)
		VALUES ($1, 'customer', $2)
		ON CONFLICT (id) DO UPDATE
			SET updated_at = now(),
			    name = COALESCE(EXCLUDED.name, users.name)
		RETURNING id, role, name, created_at, updated_at`,
		id, name,
	).Scan(&user.ID, &user.Role, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
