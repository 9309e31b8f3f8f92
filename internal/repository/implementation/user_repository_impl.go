package implementation

import (
	"context"

	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"

	"github.com/google/uuid"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const userTable = "user"

type userRepository struct {
	db     *surrealdb.DB
	logger logger.ILogger
}

func NewUserRepository(db *surrealdb.DB, log logger.ILogger) contract.UserRepository {
	return &userRepository{db: db, logger: log}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) (string, error) {
	key := uuid.New().String()
	user.ID = nil

	const query = `
BEGIN TRANSACTION;
CREATE $id CONTENT $data;
UPDATE $id SET created_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":   models.NewRecordID(userTable, key),
		"data": user,
	})
	if err != nil {
		return "", err
	}
	if err := checkStatuses(results); err != nil {
		return "", err
	}
	return key, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	const query = `SELECT * FROM user WHERE email = $email LIMIT 1`
	results, err := surrealdb.Query[[]*entity.User](ctx, r.db, query, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if err := checkStatuses(results); err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return (*results)[0].Result[0], nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := surrealdb.Select[entity.User](ctx, r.db, models.NewRecordID(userTable, id))
	if err != nil {
		return nil, err
	}
	return user, nil
}
