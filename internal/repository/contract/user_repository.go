package contract

import (
	"context"

	"festival-cms-be/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) (string, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
}
