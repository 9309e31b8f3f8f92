package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"
	"festival-cms-be/internal/repository/fallback"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// memAnnotationRepo is an in-memory stand-in for the SurrealDB repository.
// It honors the same contract: guarded creates, merge patches, soft deletes.
type memAnnotationRepo struct {
	mu      sync.Mutex
	records map[string]*entity.Annotation
	clock   time.Time

	failReads bool
	failAll   bool
}

func newMemAnnotationRepo() *memAnnotationRepo {
	return &memAnnotationRepo{
		records: make(map[string]*entity.Annotation),
		clock:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (r *memAnnotationRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memAnnotationRepo) Create(_ context.Context, a *entity.Annotation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return "", errors.New("store down")
	}
	key := uuid.New().String()
	id := models.NewRecordID("annotation", key)
	a.ID = &id
	a.CreatedAt = r.tick()
	r.records[key] = a
	return key, nil
}

func (r *memAnnotationRepo) CreateScoreGuarded(ctx context.Context, a *entity.Annotation) (string, error) {
	r.mu.Lock()
	for _, rec := range r.records {
		if rec.Submission == a.Submission && rec.AuthorId == a.AuthorId &&
			rec.Type == entity.AnnotationTypeScoring && !rec.IsDeleted {
			r.mu.Unlock()
			return "", contract.ErrScoreExists
		}
	}
	r.mu.Unlock()
	return r.Create(ctx, a)
}

func (r *memAnnotationRepo) FindByID(_ context.Context, id string) (*entity.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("store down")
	}
	return r.records[id], nil
}

func (r *memAnnotationRepo) Merge(_ context.Context, id string, patch map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("store down")
	}
	rec, ok := r.records[id]
	if !ok {
		return errors.New("record not found")
	}
	if v, ok := patch["content"].(string); ok {
		rec.Content = v
	}
	if v, ok := patch["scores"].(*entity.ScoreBreakdown); ok {
		rec.Scores = v
	}
	if v, ok := patch["metadata"].(map[string]interface{}); ok {
		rec.Metadata = v
	}
	if v, ok := patch["is_edited"].(bool); ok {
		rec.IsEdited = v
	}
	if v, ok := patch["edit_history"].([]entity.EditSnapshot); ok {
		rec.EditHistory = v
	}
	now := r.tick()
	rec.UpdatedAt = &now
	return nil
}

func (r *memAnnotationRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return errors.New("record not found")
	}
	rec.IsDeleted = true
	return nil
}

func (r *memAnnotationRepo) FindScoresByAuthor(_ context.Context, submissionID, authorID string) ([]*entity.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads || r.failAll {
		return nil, errors.New("store down")
	}
	var out []*entity.Annotation
	for _, rec := range r.records {
		if rec.Submission == entity.SubmissionRef(submissionID) &&
			rec.AuthorId == authorID && rec.Type == entity.AnnotationTypeScoring {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) FindVisibleScores(_ context.Context, submissionID string) ([]*entity.Annotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads || r.failAll {
		return nil, errors.New("store down")
	}
	var out []*entity.Annotation
	for _, rec := range r.records {
		if rec.Submission == entity.SubmissionRef(submissionID) &&
			rec.Type == entity.AnnotationTypeScoring && !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) Collection(submissionID string) fallback.Source {
	return &memSource{repo: r, submissionID: submissionID}
}

type memSource struct {
	repo         *memAnnotationRepo
	submissionID string
}

func (s *memSource) Fetch(_ context.Context, _ fallback.Strategy) ([]*entity.Annotation, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if s.repo.failReads || s.repo.failAll {
		return nil, errors.New("store down")
	}
	var out []*entity.Annotation
	for _, rec := range s.repo.records {
		if rec.Submission == entity.SubmissionRef(s.submissionID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memSource) Watch(context.Context, fallback.Strategy) (fallback.Watcher, error) {
	return nil, errors.New("not supported in tests")
}

type memRecomputeQueue struct {
	mu          sync.Mutex
	submissions []string
}

func (q *memRecomputeQueue) PublishScoreRecompute(_ context.Context, submissionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submissions = append(q.submissions, submissionID)
	return nil
}

func newTestService(repo *memAnnotationRepo, policy EditPolicy) (IAnnotationService, *memRecomputeQueue) {
	queue := &memRecomputeQueue{}
	engine := fallback.NewEngine(logger.NewNopLogger())
	svc := NewAnnotationService(repo, engine, queue, nil, policy, logger.NewNopLogger())
	return svc, queue
}

func reviewer(name string) dto.Author {
	return dto.Author{Id: uuid.New(), Name: name, Email: name + "@festival.test"}
}

const filmID = "film-001"

func TestAddGeneralComment(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	alice := reviewer("Alice")

	res, err := svc.AddGeneralComment(context.Background(), filmID, alice, &dto.AddCommentRequest{
		Content:  "Strong opening act",
		Metadata: map[string]interface{}{"reel": 1},
	})
	require.NoError(t, err)

	stored := repo.records[res.Id]
	require.NotNil(t, stored)
	assert.Equal(t, entity.AnnotationTypeGeneral, stored.Type)
	assert.Equal(t, "Strong opening act", stored.Content)
	assert.Equal(t, alice.Id.String(), stored.AuthorId)
	assert.Equal(t, "Alice", stored.AuthorName)
	assert.Equal(t, 1, stored.Metadata["reel"])
}

func TestAddStatusChangeCommentTemplate(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())

	res, err := svc.AddStatusChangeComment(context.Background(), filmID, reviewer("Alice"), &dto.AddStatusChangeCommentRequest{
		OldStatus: "pending",
		NewStatus: "in_review",
		Reason:    "assigned to jury panel 2",
	})
	require.NoError(t, err)

	stored := repo.records[res.Id]
	assert.Equal(t, entity.AnnotationTypeGeneral, stored.Type)
	assert.Equal(t, `Status changed from "pending" to "in_review" - Reason: assigned to jury panel 2`, stored.Content)
	assert.Equal(t, "pending", stored.Metadata["oldStatus"])
	assert.Equal(t, "in_review", stored.Metadata["newStatus"])
	assert.Equal(t, "assigned to jury panel 2", stored.Metadata["reason"])
}

func TestAddFlagCommentTemplates(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	alice := reviewer("Alice")

	flagged, err := svc.AddFlagComment(context.Background(), filmID, alice, &dto.AddFlagCommentRequest{
		Flagged: true,
		Reason:  "rights clearance unclear",
	})
	require.NoError(t, err)
	assert.Equal(t, "Submission flagged for review - Reason: rights clearance unclear", repo.records[flagged.Id].Content)
	assert.Equal(t, true, repo.records[flagged.Id].Metadata["flagged"])

	unflagged, err := svc.AddFlagComment(context.Background(), filmID, alice, &dto.AddFlagCommentRequest{Flagged: false})
	require.NoError(t, err)
	assert.Equal(t, "Submission flag removed", repo.records[unflagged.Id].Content)
}

func TestAddScoringCommentClampsAndDerives(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, queue := newTestService(repo, DefaultEditPolicy())

	res, err := svc.AddScoringComment(context.Background(), filmID, reviewer("Alice"), &dto.AddScoringCommentRequest{
		Scores: &dto.Scores{
			Technical:  12, // clamps to 10
			Story:      -3, // clamps to 0
			Creativity: 9,
			Chiangmai:  6,
			Overall:    8,
			TotalScore: 999, // ignored, recomputed
		},
	})
	require.NoError(t, err)

	stored := repo.records[res.Id]
	assert.Equal(t, entity.AnnotationTypeScoring, stored.Type)
	require.NotNil(t, stored.Scores)
	assert.Equal(t, 10, stored.Scores.Technical)
	assert.Equal(t, 0, stored.Scores.Story)
	assert.Equal(t, 33, stored.Scores.TotalScore)
	require.NotNil(t, stored.Scores.HumanEffort)
	assert.Equal(t, 8, *stored.Scores.HumanEffort)
	assert.Equal(t, 66, stored.Metadata["scorePercentage"])
	assert.Equal(t, 0, stored.Metadata["editCount"])
	assert.Contains(t, stored.Content, "Total: 33/50")

	assert.Equal(t, []string{filmID}, queue.submissions)
}

func TestAddScoringCommentDuplicateConflicts(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	alice := reviewer("Alice")

	scores := &dto.Scores{Technical: 8, Story: 7, Creativity: 9, Chiangmai: 6, Overall: 8}
	_, err := svc.AddScoringComment(context.Background(), filmID, alice, &dto.AddScoringCommentRequest{Scores: scores})
	require.NoError(t, err)

	_, err = svc.AddScoringComment(context.Background(), filmID, alice, &dto.AddScoringCommentRequest{Scores: scores})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

// Two reviewers score the same film; one revises. The revision keeps an edit
// trail and never touches the other reviewer's score.
func TestScoringLifecycleTwoReviewers(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")
	bob := reviewer("Bob")

	created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{
		Scores: &dto.Scores{Technical: 8, Story: 7, Creativity: 9, Chiangmai: 6, Overall: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, 38, repo.records[created.Id].Scores.TotalScore)
	assert.Equal(t, 76, repo.records[created.Id].Metadata["scorePercentage"])

	_, err = svc.AddScoringComment(ctx, filmID, bob, &dto.AddScoringCommentRequest{
		Scores: &dto.Scores{Technical: 5, Story: 5, Creativity: 5, Chiangmai: 5, Overall: 5},
	})
	require.NoError(t, err)

	// Alice revises overall 8 -> 9.
	err = svc.UpdateScoringComment(ctx, created.Id, alice, &dto.UpdateScoringCommentRequest{
		Scores: &dto.Scores{Technical: 8, Story: 7, Creativity: 9, Chiangmai: 6, Overall: 9},
	})
	require.NoError(t, err)

	revised := repo.records[created.Id]
	assert.Equal(t, 39, revised.Scores.TotalScore)
	assert.Equal(t, 78, revised.Metadata["scorePercentage"])
	assert.True(t, revised.IsEdited)
	assert.Equal(t, 1, revised.EditCount())
	assert.Equal(t, alice.Id.String(), revised.Metadata["lastEditedBy"])

	require.Len(t, revised.EditHistory, 1)
	prev := revised.EditHistory[0].PreviousScores
	require.NotNil(t, prev)
	assert.Equal(t, 38, prev.TotalScore)
	require.NotNil(t, prev.HumanEffort)
	assert.Equal(t, 8, *prev.HumanEffort)
	assert.Equal(t, alice.Id.String(), revised.EditHistory[0].EditedBy)

	// Bob's score is untouched.
	bobLatest, err := svc.GetLatestScoreByAdmin(ctx, filmID, bob.Id.String())
	require.NoError(t, err)
	require.NotNil(t, bobLatest)
	assert.Equal(t, 25, bobLatest.Scores.TotalScore)
	assert.False(t, bobLatest.IsEdited)
}

func TestUpdateScoringCommentErrors(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")

	scores := &dto.Scores{Technical: 5, Story: 5, Creativity: 5, Chiangmai: 5, Overall: 5}

	t.Run("missing comment", func(t *testing.T) {
		err := svc.UpdateScoringComment(ctx, "nope", alice, &dto.UpdateScoringCommentRequest{Scores: scores})
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("missing scores", func(t *testing.T) {
		err := svc.UpdateScoringComment(ctx, "whatever", alice, &dto.UpdateScoringCommentRequest{})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("not a scoring comment", func(t *testing.T) {
		general, err := svc.AddGeneralComment(ctx, filmID, alice, &dto.AddCommentRequest{Content: "nice"})
		require.NoError(t, err)
		err = svc.UpdateScoringComment(ctx, general.Id, alice, &dto.UpdateScoringCommentRequest{Scores: scores})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("deleted comment", func(t *testing.T) {
		created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{Scores: scores})
		require.NoError(t, err)
		require.NoError(t, svc.DeleteComment(ctx, created.Id, alice))
		err = svc.UpdateScoringComment(ctx, created.Id, alice, &dto.UpdateScoringCommentRequest{Scores: scores})
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})
}

func TestCrossAuthorEditPolicy(t *testing.T) {
	ctx := context.Background()
	alice := reviewer("Alice")
	bob := reviewer("Bob")
	scores := &dto.Scores{Technical: 5, Story: 5, Creativity: 5, Chiangmai: 5, Overall: 5}

	t.Run("denied when policy forbids", func(t *testing.T) {
		repo := newMemAnnotationRepo()
		svc, _ := newTestService(repo, EditPolicy{AllowCrossAuthorEdit: false})

		created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{Scores: scores})
		require.NoError(t, err)

		err = svc.UpdateScoringComment(ctx, created.Id, bob, &dto.UpdateScoringCommentRequest{Scores: scores})
		assert.Equal(t, apperror.KindPermissionDenied, apperror.KindOf(err))
	})

	t.Run("allowed and attributed by default", func(t *testing.T) {
		repo := newMemAnnotationRepo()
		svc, _ := newTestService(repo, DefaultEditPolicy())

		created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{Scores: scores})
		require.NoError(t, err)

		err = svc.UpdateScoringComment(ctx, created.Id, bob, &dto.UpdateScoringCommentRequest{
			Scores: &dto.Scores{Technical: 6, Story: 5, Creativity: 5, Chiangmai: 5, Overall: 5},
		})
		require.NoError(t, err)

		stored := repo.records[created.Id]
		assert.Equal(t, alice.Id.String(), stored.AuthorId)
		assert.Equal(t, bob.Id.String(), stored.Metadata["lastEditedBy"])
		assert.Equal(t, bob.Id.String(), stored.EditHistory[0].EditedBy)
	})
}

func TestDeleteCommentSoftDeleteAndVisibility(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")

	kept, err := svc.AddGeneralComment(ctx, filmID, alice, &dto.AddCommentRequest{Content: "keep"})
	require.NoError(t, err)
	dropped, err := svc.AddGeneralComment(ctx, filmID, alice, &dto.AddCommentRequest{Content: "drop"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(ctx, dropped.Id, alice))

	// The record survives physically but disappears from reads.
	assert.True(t, repo.records[dropped.Id].IsDeleted)
	list, err := svc.GetComments(ctx, filmID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.Id, list[0].Id)

	// Deleting twice is a no-op.
	assert.NoError(t, svc.DeleteComment(ctx, dropped.Id, alice))

	err = svc.DeleteComment(ctx, "missing", alice)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestGetCommentsOrderingAndFailSoft(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")

	for i := 0; i < 3; i++ {
		_, err := svc.AddGeneralComment(ctx, filmID, alice, &dto.AddCommentRequest{Content: fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
	}

	list, err := svc.GetComments(ctx, filmID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	// Newest first.
	assert.Equal(t, "c2", list[0].Content)
	assert.Equal(t, "c0", list[2].Content)

	// Total store failure degrades to empty, not an error.
	repo.failReads = true
	list, err = svc.GetComments(ctx, filmID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Only bad input is an error.
	_, err = svc.GetComments(ctx, "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestGetLatestScoreByAdmin(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")

	t.Run("no score yet", func(t *testing.T) {
		res, err := svc.GetLatestScoreByAdmin(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{
		Scores: &dto.Scores{Technical: 8, Story: 7, Creativity: 9, Chiangmai: 6, Overall: 8},
	})
	require.NoError(t, err)

	t.Run("returns the visible score", func(t *testing.T) {
		res, err := svc.GetLatestScoreByAdmin(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, created.Id, res.Id)
		assert.Equal(t, 8, res.Scores.Overall)
	})

	t.Run("deleted scores are invisible", func(t *testing.T) {
		require.NoError(t, svc.DeleteComment(ctx, created.Id, alice))
		res, err := svc.GetLatestScoreByAdmin(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("lookup failure degrades to nil", func(t *testing.T) {
		repo.failReads = true
		defer func() { repo.failReads = false }()
		res, err := svc.GetLatestScoreByAdmin(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.Nil(t, res)
	})
}

func TestCheckExistingScore(t *testing.T) {
	repo := newMemAnnotationRepo()
	svc, _ := newTestService(repo, DefaultEditPolicy())
	ctx := context.Background()
	alice := reviewer("Alice")

	t.Run("no score means create", func(t *testing.T) {
		res, err := svc.CheckExistingScore(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.False(t, res.ShouldUpdate)
		assert.Nil(t, res.Annotation)
	})

	created, err := svc.AddScoringComment(ctx, filmID, alice, &dto.AddScoringCommentRequest{
		Scores: &dto.Scores{Technical: 8, Story: 7, Creativity: 9, Chiangmai: 6, Overall: 8},
	})
	require.NoError(t, err)

	t.Run("existing score means update", func(t *testing.T) {
		res, err := svc.CheckExistingScore(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.True(t, res.ShouldUpdate)
		require.NotNil(t, res.Annotation)
		assert.Equal(t, created.Id, res.Annotation.Id)
	})

	t.Run("deleted score means create again", func(t *testing.T) {
		require.NoError(t, svc.DeleteComment(ctx, created.Id, alice))
		res, err := svc.CheckExistingScore(ctx, filmID, alice.Id.String())
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.False(t, res.ShouldUpdate)
	})
}

func TestWriteFailuresAreClassified(t *testing.T) {
	repo := newMemAnnotationRepo()
	repo.failAll = true
	svc, _ := newTestService(repo, DefaultEditPolicy())

	_, err := svc.AddGeneralComment(context.Background(), filmID, reviewer("Alice"), &dto.AddCommentRequest{Content: "x"})
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Message)
}
