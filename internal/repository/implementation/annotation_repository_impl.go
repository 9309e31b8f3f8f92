package implementation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"
	"festival-cms-be/internal/repository/fallback"

	"github.com/google/uuid"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const annotationTable = "annotation"

type annotationRepository struct {
	db     *surrealdb.DB
	logger logger.ILogger
}

func NewAnnotationRepository(db *surrealdb.DB, log logger.ILogger) contract.AnnotationRepository {
	return &annotationRepository{db: db, logger: log}
}

func annotationRecordID(annotationID string) models.RecordID {
	return models.NewRecordID(annotationTable, annotationID)
}

func submissionRecordID(submissionID string) models.RecordID {
	return models.NewRecordID(submissionTable, submissionID)
}

// checkStatuses surfaces statement-level failures that the RPC layer reports
// as a successful response.
func checkStatuses[T any](results *[]surrealdb.QueryResult[T]) error {
	if results == nil {
		return nil
	}
	for _, qr := range *results {
		if qr.Status != "" && qr.Status != "OK" {
			return fmt.Errorf("query statement failed: %v", qr.Result)
		}
	}
	return nil
}

func (r *annotationRepository) Create(ctx context.Context, annotation *entity.Annotation) (string, error) {
	key := uuid.New().String()
	annotation.ID = nil

	// created_at is assigned server-side so independent writers agree on
	// ordering.
	const query = `
BEGIN TRANSACTION;
CREATE $id CONTENT $data;
UPDATE $id SET created_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":   annotationRecordID(key),
		"data": annotation,
	})
	if err != nil {
		return "", err
	}
	if err := checkStatuses(results); err != nil {
		return "", err
	}
	return key, nil
}

func (r *annotationRepository) CreateScoreGuarded(ctx context.Context, annotation *entity.Annotation) (string, error) {
	key := uuid.New().String()
	annotation.ID = nil

	// The existence check and the create run in one store transaction, so a
	// second concurrent create for the same (submission, author) pair fails
	// deterministically instead of slipping past a read-then-decide guard.
	const query = `
BEGIN TRANSACTION;
LET $existing = (SELECT VALUE id FROM annotation WHERE submission = $submission AND author_id = $author_id AND type = 'scoring' AND is_deleted = false);
IF array::len($existing) > 0 { THROW "score_exists" };
CREATE $id CONTENT $data;
UPDATE $id SET created_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":         annotationRecordID(key),
		"submission": annotation.Submission,
		"author_id":  annotation.AuthorId,
		"data":       annotation,
	})
	if err != nil {
		if strings.Contains(err.Error(), "score_exists") {
			return "", contract.ErrScoreExists
		}
		return "", err
	}
	if err := checkStatuses(results); err != nil {
		if strings.Contains(err.Error(), "score_exists") {
			return "", contract.ErrScoreExists
		}
		return "", err
	}
	return key, nil
}

func (r *annotationRepository) FindByID(ctx context.Context, annotationID string) (*entity.Annotation, error) {
	annotation, err := surrealdb.Select[entity.Annotation](ctx, r.db, annotationRecordID(annotationID))
	if err != nil {
		return nil, err
	}
	// surrealcbor decodes a missing record to nil
	return annotation, nil
}

func (r *annotationRepository) Merge(ctx context.Context, annotationID string, patch map[string]interface{}) error {
	const query = `
BEGIN TRANSACTION;
UPDATE $id MERGE $patch;
UPDATE $id SET updated_at = time::now();
COMMIT TRANSACTION;`

	results, err := surrealdb.Query[any](ctx, r.db, query, map[string]any{
		"id":    annotationRecordID(annotationID),
		"patch": patch,
	})
	if err != nil {
		return err
	}
	return checkStatuses(results)
}

func (r *annotationRepository) SoftDelete(ctx context.Context, annotationID string) error {
	_, err := surrealdb.Merge[entity.Annotation](ctx, r.db, annotationRecordID(annotationID), map[string]any{
		"is_deleted": true,
	})
	return err
}

func (r *annotationRepository) FindScoresByAuthor(ctx context.Context, submissionID, authorID string) ([]*entity.Annotation, error) {
	const query = `SELECT * FROM annotation WHERE submission = $submission AND author_id = $author_id AND type = 'scoring'`
	return r.queryList(ctx, query, map[string]any{
		"submission": submissionRecordID(submissionID),
		"author_id":  authorID,
	})
}

func (r *annotationRepository) FindVisibleScores(ctx context.Context, submissionID string) ([]*entity.Annotation, error) {
	const query = `SELECT * FROM annotation WHERE submission = $submission AND type = 'scoring' AND is_deleted = false`
	return r.queryList(ctx, query, map[string]any{
		"submission": submissionRecordID(submissionID),
	})
}

func (r *annotationRepository) queryList(ctx context.Context, query string, vars map[string]any) ([]*entity.Annotation, error) {
	results, err := surrealdb.Query[[]*entity.Annotation](ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	if err := checkStatuses(results); err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return []*entity.Annotation{}, nil
	}
	return (*results)[0].Result, nil
}

// Collection adapts one submission's annotation records to the degradation
// engine's Source interface.
func (r *annotationRepository) Collection(submissionID string) fallback.Source {
	return &annotationSource{repo: r, submissionID: submissionID}
}

type annotationSource struct {
	repo         *annotationRepository
	submissionID string
}

func (s *annotationSource) Fetch(ctx context.Context, strategy fallback.Strategy) ([]*entity.Annotation, error) {
	query := "SELECT * FROM annotation WHERE submission = $submission"
	switch strategy {
	case fallback.StrategyFilteredSorted:
		query += " AND is_deleted = false ORDER BY created_at DESC"
	case fallback.StrategyFiltered:
		query += " AND is_deleted = false"
	}

	return s.repo.queryList(ctx, query, map[string]any{
		"submission": submissionRecordID(s.submissionID),
	})
}

func (s *annotationSource) Watch(ctx context.Context, strategy fallback.Strategy) (fallback.Watcher, error) {
	// The live predicate stays broad on purpose: a record leaving a narrower
	// predicate (soft delete under "is_deleted = false") would not reliably
	// notify. The strategy shapes the snapshot query instead.
	const liveQuery = `LIVE SELECT * FROM annotation WHERE submission = $submission`

	results, err := surrealdb.Query[models.UUID](ctx, s.repo.db, liveQuery, map[string]any{
		"submission": submissionRecordID(s.submissionID),
	})
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, errors.New("live query returned no id")
	}
	liveID := (*results)[0].Result.String()

	notifications, err := s.repo.db.LiveNotifications(liveID)
	if err != nil {
		_ = surrealdb.Kill(ctx, s.repo.db, liveID)
		return nil, err
	}

	w := &annotationWatcher{
		source:    s,
		strategy:  strategy,
		liveID:    liveID,
		snapshots: make(chan []*entity.Annotation, 8),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
	}
	go w.run(ctx, notifications)
	return w, nil
}

// annotationWatcher turns per-record live notifications into full-snapshot
// deliveries: every change triggers a refetch with the watcher's strategy.
type annotationWatcher struct {
	source    *annotationSource
	strategy  fallback.Strategy
	liveID    string
	snapshots chan []*entity.Annotation
	errs      chan error
	done      chan struct{}
	once      sync.Once
}

func (w *annotationWatcher) Snapshots() <-chan []*entity.Annotation { return w.snapshots }
func (w *annotationWatcher) Errors() <-chan error                   { return w.errs }

func (w *annotationWatcher) Close() {
	w.once.Do(func() {
		close(w.done)
		if err := surrealdb.Kill(context.Background(), w.source.repo.db, w.liveID); err != nil {
			w.source.repo.logger.Warn("AnnotationRepository", "failed to kill live query", map[string]interface{}{
				"live_id": w.liveID,
				"error":   err.Error(),
			})
		}
	})
}

func (w *annotationWatcher) run(ctx context.Context, notifications chan connection.Notification) {
	// initial snapshot before any change event
	if !w.refetch(ctx) {
		return
	}

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case _, ok := <-notifications:
			if !ok {
				w.fail(errors.New("live notification channel closed by store"))
				return
			}
			if !w.refetch(ctx) {
				return
			}
		}
	}
}

func (w *annotationWatcher) refetch(ctx context.Context) bool {
	list, err := w.source.Fetch(ctx, w.strategy)
	if err != nil {
		w.fail(err)
		return false
	}
	select {
	case w.snapshots <- list:
		return true
	case <-w.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (w *annotationWatcher) fail(err error) {
	select {
	case w.errs <- err:
	case <-w.done:
	}
}
