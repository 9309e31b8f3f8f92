package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/fallback"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type memSubmissionRepo struct {
	mu      sync.Mutex
	records map[string]*entity.Submission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{records: make(map[string]*entity.Submission)}
}

func (r *memSubmissionRepo) Create(_ context.Context, s *entity.Submission) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := uuid.New().String()
	id := models.NewRecordID("submission", key)
	s.ID = &id
	s.CreatedAt = time.Now()
	r.records[key] = s
	return key, nil
}

func (r *memSubmissionRepo) FindAll(_ context.Context) ([]*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Submission
	for _, s := range r.records {
		if !s.IsDeleted {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSubmissionRepo) FindByID(_ context.Context, id string) (*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id], nil
}

func (r *memSubmissionRepo) FindByStatus(_ context.Context, status entity.SubmissionStatus) ([]*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Submission
	for _, s := range r.records {
		if !s.IsDeleted && s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memSubmissionRepo) Merge(_ context.Context, id string, patch map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.records[id]
	if !ok {
		return errors.New("record not found")
	}
	if v, ok := patch["status"].(entity.SubmissionStatus); ok {
		s.Status = v
	}
	if v, ok := patch["is_flagged"].(bool); ok {
		s.IsFlagged = v
	}
	if v, ok := patch["average_score"].(float64); ok {
		s.AverageScore = v
	}
	if v, ok := patch["review_count"].(int); ok {
		s.ReviewCount = v
	}
	return nil
}

func newSubmissionFixture(t *testing.T) (ISubmissionService, *memSubmissionRepo, *memAnnotationRepo) {
	t.Helper()
	subRepo := newMemSubmissionRepo()
	annRepo := newMemAnnotationRepo()
	engine := fallback.NewEngine(logger.NewNopLogger())
	annSvc := NewAnnotationService(annRepo, engine, nil, nil, DefaultEditPolicy(), logger.NewNopLogger())
	subSvc := NewSubmissionService(subRepo, annSvc, logger.NewNopLogger())
	return subSvc, subRepo, annRepo
}

func TestSubmissionCreateAndShow(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateSubmissionRequest{
		Title:          "Northern Lights",
		Director:       "P. Janta",
		Category:       "documentary",
		DurationMin:    82,
		SubmitterName:  "P. Janta",
		SubmitterEmail: "janta@example.com",
	})
	require.NoError(t, err)

	shown, err := svc.Show(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Northern Lights", shown.Title)
	assert.Equal(t, string(entity.SubmissionStatusPending), shown.Status)

	_, err = svc.Show(ctx, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestSubmissionListByStatus(t *testing.T) {
	svc, repo, _ := newSubmissionFixture(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &dto.CreateSubmissionRequest{
		Title: "A", Director: "D", Category: "short",
		SubmitterName: "n", SubmitterEmail: "n@example.com",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateSubmissionRequest{
		Title: "B", Director: "D", Category: "short",
		SubmitterName: "n", SubmitterEmail: "n@example.com",
	})
	require.NoError(t, err)
	repo.records[a.Id].Status = entity.SubmissionStatusSelected

	selected, err := svc.List(ctx, "selected")
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "A", selected[0].Title)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "bogus")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUpdateStatusWritesTrailComment(t *testing.T) {
	svc, repo, annRepo := newSubmissionFixture(t)
	ctx := context.Background()
	admin := reviewer("Admin")

	created, err := svc.Create(ctx, &dto.CreateSubmissionRequest{
		Title: "A", Director: "D", Category: "feature",
		SubmitterName: "n", SubmitterEmail: "n@example.com",
	})
	require.NoError(t, err)

	res, err := svc.UpdateStatus(ctx, created.Id, admin, &dto.UpdateSubmissionStatusRequest{
		Status: "in_review",
		Reason: "jury assigned",
	})
	require.NoError(t, err)
	assert.Equal(t, "in_review", res.Status)
	assert.Equal(t, entity.SubmissionStatusInReview, repo.records[created.Id].Status)

	var trail *entity.Annotation
	for _, a := range annRepo.records {
		trail = a
	}
	require.NotNil(t, trail, "status change must leave an annotation")
	assert.Equal(t, entity.AnnotationTypeGeneral, trail.Type)
	assert.Equal(t, "pending", trail.Metadata["oldStatus"])
	assert.Equal(t, "in_review", trail.Metadata["newStatus"])

	t.Run("same status is a no-op", func(t *testing.T) {
		before := len(annRepo.records)
		_, err := svc.UpdateStatus(ctx, created.Id, admin, &dto.UpdateSubmissionStatusRequest{Status: "in_review"})
		require.NoError(t, err)
		assert.Equal(t, before, len(annRepo.records))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, created.Id, admin, &dto.UpdateSubmissionStatusRequest{Status: "approved"})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestSetFlag(t *testing.T) {
	svc, repo, annRepo := newSubmissionFixture(t)
	ctx := context.Background()
	admin := reviewer("Admin")

	created, err := svc.Create(ctx, &dto.CreateSubmissionRequest{
		Title: "A", Director: "D", Category: "feature",
		SubmitterName: "n", SubmitterEmail: "n@example.com",
	})
	require.NoError(t, err)

	err = svc.SetFlag(ctx, created.Id, admin, &dto.AddFlagCommentRequest{Flagged: true, Reason: "rights unclear"})
	require.NoError(t, err)
	assert.True(t, repo.records[created.Id].IsFlagged)
	assert.Len(t, annRepo.records, 1)

	err = svc.SetFlag(ctx, created.Id, admin, &dto.AddFlagCommentRequest{Flagged: false})
	require.NoError(t, err)
	assert.False(t, repo.records[created.Id].IsFlagged)
}
