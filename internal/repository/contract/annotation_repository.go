package contract

import (
	"context"
	"errors"

	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/repository/fallback"
)

// ErrScoreExists is returned by CreateScoreGuarded when a visible scoring
// annotation already exists for the (submission, author) pair. The caller
// must go through the update path instead.
var ErrScoreExists = errors.New("a visible scoring annotation already exists for this reviewer")

type AnnotationRepository interface {
	// Create inserts a new annotation; created_at is assigned by the store.
	Create(ctx context.Context, annotation *entity.Annotation) (string, error)

	// CreateScoreGuarded inserts a scoring annotation inside a single store
	// transaction that first checks the one-visible-score convention, so two
	// concurrent creates for the same reviewer collide deterministically.
	CreateScoreGuarded(ctx context.Context, annotation *entity.Annotation) (string, error)

	// FindByID is a point read. Soft-deleted annotations are still returned.
	FindByID(ctx context.Context, annotationID string) (*entity.Annotation, error)

	// Merge applies a partial update; updated_at is assigned by the store.
	Merge(ctx context.Context, annotationID string, patch map[string]interface{}) error

	// SoftDelete flips is_deleted without touching updated_at; deletion is
	// not an edit.
	SoftDelete(ctx context.Context, annotationID string) error

	// FindScoresByAuthor returns all scoring annotations (deleted included)
	// for a reviewer on one submission; callers filter and order locally.
	FindScoresByAuthor(ctx context.Context, submissionID, authorID string) ([]*entity.Annotation, error)

	// FindVisibleScores returns the visible scoring annotations of one
	// submission, for aggregate recomputation.
	FindVisibleScores(ctx context.Context, submissionID string) ([]*entity.Annotation, error)

	// Collection exposes one submission's annotation collection to the
	// query degradation engine.
	Collection(submissionID string) fallback.Source
}
