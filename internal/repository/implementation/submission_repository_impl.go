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

const submissionTable = "submission"

type submissionRepository struct {
	db     *surrealdb.DB
	logger logger.ILogger
}

func NewSubmissionRepository(db *surrealdb.DB, log logger.ILogger) contract.SubmissionRepository {
	return &submissionRepository{db: db, logger: log}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) (string, error) {
	key := uuid.New().String()
	submission.ID = nil

	const query = `
BEGIN TRANSACTION;
CREATE $id CONTENT $data;
UPDATE $id SET created_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":   models.NewRecordID(submissionTable, key),
		"data": submission,
	})
	if err != nil {
		return "", err
	}
	if err := checkStatuses(results); err != nil {
		return "", err
	}
	return key, nil
}

func (r *submissionRepository) FindAll(ctx context.Context) ([]*entity.Submission, error) {
	const query = `SELECT * FROM submission WHERE is_deleted = false ORDER BY created_at DESC`
	return r.queryList(ctx, query, map[string]any{})
}

func (r *submissionRepository) FindByID(ctx context.Context, id string) (*entity.Submission, error) {
	submission, err := surrealdb.Select[entity.Submission](ctx, r.db, models.NewRecordID(submissionTable, id))
	if err != nil {
		return nil, err
	}
	return submission, nil
}

func (r *submissionRepository) FindByStatus(ctx context.Context, status entity.SubmissionStatus) ([]*entity.Submission, error) {
	const query = `SELECT * FROM submission WHERE is_deleted = false AND status = $status ORDER BY created_at DESC`
	return r.queryList(ctx, query, map[string]any{"status": string(status)})
}

func (r *submissionRepository) Merge(ctx context.Context, id string, patch map[string]interface{}) error {
	const query = `
BEGIN TRANSACTION;
UPDATE $id MERGE $patch;
UPDATE $id SET updated_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":    models.NewRecordID(submissionTable, id),
		"patch": patch,
	})
	if err != nil {
		return err
	}
	return checkStatuses(results)
}

func (r *submissionRepository) queryList(ctx context.Context, query string, vars map[string]any) ([]*entity.Submission, error) {
	results, err := surrealdb.Query[[]*entity.Submission](ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	if err := checkStatuses(results); err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return []*entity.Submission{}, nil
	}
	return (*results)[0].Result, nil
}
