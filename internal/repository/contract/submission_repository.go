package contract

import (
	"context"

	"festival-cms-be/internal/entity"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) (string, error)
	FindAll(ctx context.Context) ([]*entity.Submission, error)
	FindByID(ctx context.Context, id string) (*entity.Submission, error)
	FindByStatus(ctx context.Context, status entity.SubmissionStatus) ([]*entity.Submission, error)
	Merge(ctx context.Context, id string, patch map[string]interface{}) error
}
