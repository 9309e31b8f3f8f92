package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/mapper"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"
	"festival-cms-be/internal/repository/fallback"
	"festival-cms-be/pkg/events"
)

// maxCriterionScore bounds each of the five criteria; the totals below
// derive from it.
const (
	maxCriterionScore = 10
	maxTotalScore     = 5 * maxCriterionScore
)

// EventPublisher pushes domain events onto the NATS bus. Satisfied by
// pkg/nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EditPolicy names the collaborative editing rules for scoring comments.
type EditPolicy struct {
	// AllowCrossAuthorEdit lets one authenticated reviewer edit another
	// reviewer's scoring comment. Every edit is attributed through
	// lastEditedBy and the edit history regardless.
	AllowCrossAuthorEdit bool
}

func DefaultEditPolicy() EditPolicy {
	return EditPolicy{AllowCrossAuthorEdit: true}
}

type IAnnotationService interface {
	AddGeneralComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddCommentRequest) (*dto.AddCommentResponse, error)
	AddStatusChangeComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddStatusChangeCommentRequest) (*dto.AddCommentResponse, error)
	AddFlagComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddFlagCommentRequest) (*dto.AddCommentResponse, error)
	AddScoringComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddScoringCommentRequest) (*dto.AddCommentResponse, error)
	UpdateComment(ctx context.Context, commentID string, author dto.Author, req *dto.UpdateCommentRequest) error
	UpdateScoringComment(ctx context.Context, commentID string, author dto.Author, req *dto.UpdateScoringCommentRequest) error
	DeleteComment(ctx context.Context, commentID string, author dto.Author) error
	GetComment(ctx context.Context, commentID string) (*dto.AnnotationResponse, error)
	GetComments(ctx context.Context, submissionID string) ([]*dto.AnnotationResponse, error)
	SubscribeToComments(ctx context.Context, submissionID string, onData func([]*dto.AnnotationResponse), onError func(error)) (func(), error)
	GetLatestScoreByAdmin(ctx context.Context, submissionID, authorID string) (*dto.AnnotationResponse, error)
	CheckExistingScore(ctx context.Context, submissionID, authorID string) (*dto.ScoreCheckResult, error)
}

type annotationService struct {
	annotationRepo   contract.AnnotationRepository
	engine           *fallback.Engine
	publisherService IPublisherService
	eventPublisher   EventPublisher
	policy           EditPolicy
	logger           logger.ILogger
}

func NewAnnotationService(
	annotationRepo contract.AnnotationRepository,
	engine *fallback.Engine,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	policy EditPolicy,
	log logger.ILogger,
) IAnnotationService {
	return &annotationService{
		annotationRepo:   annotationRepo,
		engine:           engine,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		policy:           policy,
		logger:           log,
	}
}

func (s *annotationService) AddGeneralComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddCommentRequest) (*dto.AddCommentResponse, error) {
	const op = "annotation.AddGeneralComment"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}

	annotation := s.newAnnotation(submissionID, author, entity.AnnotationTypeGeneral, req.Content, req.Metadata)
	id, err := s.annotationRepo.Create(ctx, annotation)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	s.publishEvent(ctx, events.NewCommentAddedEvent(submissionID, id, author.Id.String(), string(entity.AnnotationTypeGeneral)))
	return &dto.AddCommentResponse{Id: id}, nil
}

func (s *annotationService) AddStatusChangeComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddStatusChangeCommentRequest) (*dto.AddCommentResponse, error) {
	const op = "annotation.AddStatusChangeComment"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}

	content := fmt.Sprintf("Status changed from %q to %q", req.OldStatus, req.NewStatus)
	if req.Reason != "" {
		content += fmt.Sprintf(" - Reason: %s", req.Reason)
	}
	metadata := map[string]interface{}{
		"oldStatus": req.OldStatus,
		"newStatus": req.NewStatus,
		"reason":    req.Reason,
	}

	annotation := s.newAnnotation(submissionID, author, entity.AnnotationTypeGeneral, content, metadata)
	id, err := s.annotationRepo.Create(ctx, annotation)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	s.publishEvent(ctx, events.NewStatusChangedEvent(submissionID, author.Id.String(), req.OldStatus, req.NewStatus, req.Reason))
	return &dto.AddCommentResponse{Id: id}, nil
}

func (s *annotationService) AddFlagComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddFlagCommentRequest) (*dto.AddCommentResponse, error) {
	const op = "annotation.AddFlagComment"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}

	var content string
	if req.Flagged {
		reason := req.Reason
		if reason == "" {
			reason = "No reason provided"
		}
		content = fmt.Sprintf("Submission flagged for review - Reason: %s", reason)
	} else {
		content = "Submission flag removed"
	}
	metadata := map[string]interface{}{
		"flagged": req.Flagged,
		"reason":  req.Reason,
	}

	annotation := s.newAnnotation(submissionID, author, entity.AnnotationTypeGeneral, content, metadata)
	id, err := s.annotationRepo.Create(ctx, annotation)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	s.publishEvent(ctx, events.NewSubmissionFlaggedEvent(submissionID, author.Id.String(), req.Reason, req.Flagged))
	return &dto.AddCommentResponse{Id: id}, nil
}

func (s *annotationService) AddScoringComment(ctx context.Context, submissionID string, author dto.Author, req *dto.AddScoringCommentRequest) (*dto.AddCommentResponse, error) {
	const op = "annotation.AddScoringComment"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}
	if req.Scores == nil {
		return nil, apperror.New(apperror.KindValidation, op, "scores are required")
	}

	scores := normalizeScores(req.Scores)
	content := req.Content
	if content == "" {
		content = synthesizeScoreContent(scores)
	}

	metadata := cloneMetadata(req.Metadata)
	metadata["scorePercentage"] = scorePercentage(scores.TotalScore)
	metadata["editCount"] = 0

	annotation := s.newAnnotation(submissionID, author, entity.AnnotationTypeScoring, content, metadata)
	annotation.Scores = mapper.ToStorageScores(scores)

	id, err := s.annotationRepo.CreateScoreGuarded(ctx, annotation)
	if err != nil {
		if errors.Is(err, contract.ErrScoreExists) {
			return nil, apperror.New(apperror.KindConflict, op, "a score from this reviewer already exists for this submission")
		}
		return nil, apperror.Classify(op, err)
	}

	s.publishEvent(ctx, events.NewScoreSubmittedEvent(submissionID, id, author.Id.String(), scores.TotalScore))
	s.requestRecompute(ctx, submissionID)
	return &dto.AddCommentResponse{Id: id}, nil
}

func (s *annotationService) UpdateComment(ctx context.Context, commentID string, author dto.Author, req *dto.UpdateCommentRequest) error {
	const op = "annotation.UpdateComment"

	existing, err := s.loadForEdit(ctx, op, commentID, author)
	if err != nil {
		return err
	}

	metadata := cloneMetadata(existing.Metadata)
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	patch := map[string]interface{}{
		"content":   req.Content,
		"metadata":  metadata,
		"is_edited": true,
	}
	if err := s.annotationRepo.Merge(ctx, commentID, patch); err != nil {
		return apperror.Classify(op, err)
	}
	return nil
}

func (s *annotationService) UpdateScoringComment(ctx context.Context, commentID string, author dto.Author, req *dto.UpdateScoringCommentRequest) error {
	const op = "annotation.UpdateScoringComment"
	if req.Scores == nil {
		return apperror.New(apperror.KindValidation, op, "scores are required")
	}

	existing, err := s.loadForEdit(ctx, op, commentID, author)
	if err != nil {
		return err
	}
	if existing.Type != entity.AnnotationTypeScoring {
		return apperror.New(apperror.KindValidation, op, "comment is not a scoring comment")
	}

	scores := normalizeScores(req.Scores)
	content := req.Content
	if content == "" {
		content = synthesizeScoreContent(scores)
	}

	snapshot := entity.EditSnapshot{
		EditedAt:        time.Now(),
		PreviousContent: existing.Content,
		PreviousScores:  existing.Scores,
		EditedBy:        author.Id.String(),
	}

	metadata := cloneMetadata(existing.Metadata)
	metadata["editCount"] = existing.EditCount() + 1
	metadata["scorePercentage"] = scorePercentage(scores.TotalScore)
	metadata["lastEditedBy"] = author.Id.String()

	patch := map[string]interface{}{
		"content":      content,
		"scores":       mapper.ToStorageScores(scores),
		"metadata":     metadata,
		"is_edited":    true,
		"edit_history": append(existing.EditHistory, snapshot),
	}
	if err := s.annotationRepo.Merge(ctx, commentID, patch); err != nil {
		return apperror.Classify(op, err)
	}

	submissionID := fmt.Sprint(existing.Submission.ID)
	s.publishEvent(ctx, events.NewScoreUpdatedEvent(submissionID, commentID, author.Id.String(), scores.TotalScore))
	s.requestRecompute(ctx, submissionID)
	return nil
}

func (s *annotationService) DeleteComment(ctx context.Context, commentID string, author dto.Author) error {
	const op = "annotation.DeleteComment"

	existing, err := s.annotationRepo.FindByID(ctx, commentID)
	if err != nil {
		return apperror.Classify(op, err)
	}
	if existing == nil {
		return apperror.New(apperror.KindNotFound, op, "comment not found")
	}
	if existing.IsDeleted {
		// Already invisible; deleting twice is a no-op.
		return nil
	}

	if err := s.annotationRepo.SoftDelete(ctx, commentID); err != nil {
		return apperror.Classify(op, err)
	}

	submissionID := fmt.Sprint(existing.Submission.ID)
	s.publishEvent(ctx, events.NewCommentDeletedEvent(submissionID, commentID, author.Id.String()))
	if existing.Type == entity.AnnotationTypeScoring {
		s.requestRecompute(ctx, submissionID)
	}
	return nil
}

func (s *annotationService) GetComment(ctx context.Context, commentID string) (*dto.AnnotationResponse, error) {
	const op = "annotation.GetComment"

	annotation, err := s.annotationRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	if annotation == nil || annotation.IsDeleted {
		return nil, apperror.New(apperror.KindNotFound, op, "comment not found")
	}
	return mapper.ToAnnotationResponse(annotation), nil
}

// GetComments never fails on query errors. The degradation engine serves the
// best result the store can still produce, down to an empty list.
func (s *annotationService) GetComments(ctx context.Context, submissionID string) ([]*dto.AnnotationResponse, error) {
	const op = "annotation.GetComments"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}

	list := s.engine.Fetch(ctx, s.annotationRepo.Collection(submissionID))
	return mapper.ToAnnotationResponses(list), nil
}

// SubscribeToComments opens a self-healing live subscription. The returned
// cancel function is idempotent.
func (s *annotationService) SubscribeToComments(ctx context.Context, submissionID string, onData func([]*dto.AnnotationResponse), onError func(error)) (func(), error) {
	const op = "annotation.SubscribeToComments"
	if submissionID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}

	cancel := s.engine.Subscribe(ctx, s.annotationRepo.Collection(submissionID),
		func(list []*entity.Annotation) {
			onData(mapper.ToAnnotationResponses(list))
		},
		onError,
	)
	return cancel, nil
}

// GetLatestScoreByAdmin returns the newest visible scoring comment one
// reviewer left on a submission, or nil when there is none. Query failures
// degrade to nil rather than an error.
func (s *annotationService) GetLatestScoreByAdmin(ctx context.Context, submissionID, authorID string) (*dto.AnnotationResponse, error) {
	const op = "annotation.GetLatestScoreByAdmin"
	if submissionID == "" || authorID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id and author id are required")
	}

	latest := s.latestVisibleScore(ctx, submissionID, authorID)
	if latest == nil {
		return nil, nil
	}
	return mapper.ToAnnotationResponse(latest), nil
}

// CheckExistingScore decides whether a reviewer's next score submission
// should create a new comment or update the existing one.
func (s *annotationService) CheckExistingScore(ctx context.Context, submissionID, authorID string) (*dto.ScoreCheckResult, error) {
	const op = "annotation.CheckExistingScore"
	if submissionID == "" || authorID == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id and author id are required")
	}

	latest := s.latestVisibleScore(ctx, submissionID, authorID)
	if latest == nil {
		return &dto.ScoreCheckResult{
			Exists:       false,
			ShouldUpdate: false,
			Reason:       "no existing score found, create a new one",
		}, nil
	}
	return &dto.ScoreCheckResult{
		Exists:       true,
		Annotation:   mapper.ToAnnotationResponse(latest),
		ShouldUpdate: true,
		Reason:       "existing score found, update it instead of creating",
	}, nil
}

// latestVisibleScore filters and orders locally so the lookup works even
// when the store can only serve the raw author query.
func (s *annotationService) latestVisibleScore(ctx context.Context, submissionID, authorID string) *entity.Annotation {
	list, err := s.annotationRepo.FindScoresByAuthor(ctx, submissionID, authorID)
	if err != nil {
		s.logger.Warn("AnnotationService", "score lookup failed, treating as no score", map[string]interface{}{
			"submission_id": submissionID,
			"author_id":     authorID,
			"error":         err.Error(),
		})
		return nil
	}

	visible := make([]*entity.Annotation, 0, len(list))
	for _, a := range list {
		if a == nil || a.IsDeleted || a.Type != entity.AnnotationTypeScoring {
			continue
		}
		visible = append(visible, a)
	}
	if len(visible) == 0 {
		return nil
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible[0]
}

// loadForEdit fetches a comment for mutation and applies the edit policy.
func (s *annotationService) loadForEdit(ctx context.Context, op, commentID string, author dto.Author) (*entity.Annotation, error) {
	existing, err := s.annotationRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	if existing == nil || existing.IsDeleted {
		return nil, apperror.New(apperror.KindNotFound, op, "comment not found")
	}

	if existing.AuthorId != author.Id.String() {
		if !s.policy.AllowCrossAuthorEdit {
			return nil, apperror.New(apperror.KindPermissionDenied, op, "comment belongs to another reviewer")
		}
		s.logger.Warn("AnnotationService", "cross-author edit", map[string]interface{}{
			"comment_id": commentID,
			"owner":      existing.AuthorId,
			"editor":     author.Id.String(),
		})
	}
	return existing, nil
}

func (s *annotationService) newAnnotation(submissionID string, author dto.Author, kind entity.AnnotationType, content string, metadata map[string]interface{}) *entity.Annotation {
	return &entity.Annotation{
		Submission:  entity.SubmissionRef(submissionID),
		AuthorId:    author.Id.String(),
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
		Type:        kind,
		Content:     content,
		Metadata:    metadata,
	}
}

// publishEvent is best effort; losing a notification never fails the write
// that triggered it.
func (s *annotationService) publishEvent(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("AnnotationService", "event publish failed", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *annotationService) requestRecompute(ctx context.Context, submissionID string) {
	if s.publisherService == nil {
		return
	}
	if err := s.publisherService.PublishScoreRecompute(ctx, submissionID); err != nil {
		s.logger.Warn("AnnotationService", "score recompute enqueue failed", map[string]interface{}{
			"submission_id": submissionID,
			"error":         err.Error(),
		})
	}
}

// cloneMetadata shallow-copies a metadata map so callers can add keys
// without mutating the source; a nil source yields an empty map.
func cloneMetadata(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// normalizeScores clamps every criterion into [0, 10] and recomputes the
// total from the clamped values.
func normalizeScores(s *dto.Scores) *dto.Scores {
	out := &dto.Scores{
		Technical:  clampScore(s.Technical),
		Story:      clampScore(s.Story),
		Creativity: clampScore(s.Creativity),
		Chiangmai:  clampScore(s.Chiangmai),
		Overall:    clampScore(s.Overall),
	}
	out.TotalScore = out.Technical + out.Story + out.Creativity + out.Chiangmai + out.Overall
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxCriterionScore {
		return maxCriterionScore
	}
	return v
}

func scorePercentage(total int) int {
	return int(math.Round(float64(total) / float64(maxTotalScore) * 100))
}

func synthesizeScoreContent(s *dto.Scores) string {
	return fmt.Sprintf(
		"Scores submitted - Technical: %d, Story: %d, Creativity: %d, Chiangmai: %d, Overall: %d (Total: %d/%d, %d%%)",
		s.Technical, s.Story, s.Creativity, s.Chiangmai, s.Overall,
		s.TotalScore, maxTotalScore, scorePercentage(s.TotalScore),
	)
}
