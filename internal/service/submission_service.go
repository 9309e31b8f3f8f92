package service

import (
	"context"
	"fmt"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/mapper"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"
)

type ISubmissionService interface {
	Create(ctx context.Context, req *dto.CreateSubmissionRequest) (*dto.CreateSubmissionResponse, error)
	List(ctx context.Context, status string) ([]*dto.SubmissionListItem, error)
	Show(ctx context.Context, id string) (*dto.ShowSubmissionResponse, error)
	UpdateStatus(ctx context.Context, id string, author dto.Author, req *dto.UpdateSubmissionStatusRequest) (*dto.UpdateSubmissionStatusResponse, error)
	SetFlag(ctx context.Context, id string, author dto.Author, req *dto.AddFlagCommentRequest) error
}

type submissionService struct {
	submissionRepo    contract.SubmissionRepository
	annotationService IAnnotationService
	logger            logger.ILogger
}

func NewSubmissionService(
	submissionRepo contract.SubmissionRepository,
	annotationService IAnnotationService,
	log logger.ILogger,
) ISubmissionService {
	return &submissionService{
		submissionRepo:    submissionRepo,
		annotationService: annotationService,
		logger:            log,
	}
}

var validStatuses = map[entity.SubmissionStatus]bool{
	entity.SubmissionStatusPending:     true,
	entity.SubmissionStatusInReview:    true,
	entity.SubmissionStatusSelected:    true,
	entity.SubmissionStatusShortlisted: true,
	entity.SubmissionStatusRejected:    true,
}

func (s *submissionService) Create(ctx context.Context, req *dto.CreateSubmissionRequest) (*dto.CreateSubmissionResponse, error) {
	const op = "submission.Create"

	submission := &entity.Submission{
		Title:          req.Title,
		Director:       req.Director,
		Synopsis:       req.Synopsis,
		Category:       req.Category,
		DurationMin:    req.DurationMin,
		Status:         entity.SubmissionStatusPending,
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: req.SubmitterEmail,
	}

	id, err := s.submissionRepo.Create(ctx, submission)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	return &dto.CreateSubmissionResponse{Id: id}, nil
}

func (s *submissionService) List(ctx context.Context, status string) ([]*dto.SubmissionListItem, error) {
	const op = "submission.List"

	var (
		list []*entity.Submission
		err  error
	)
	if status == "" {
		list, err = s.submissionRepo.FindAll(ctx)
	} else {
		if !validStatuses[entity.SubmissionStatus(status)] {
			return nil, apperror.New(apperror.KindValidation, op, fmt.Sprintf("unknown status %q", status))
		}
		list, err = s.submissionRepo.FindByStatus(ctx, entity.SubmissionStatus(status))
	}
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	result := make([]*dto.SubmissionListItem, 0, len(list))
	for _, submission := range list {
		result = append(result, mapper.ToSubmissionListItem(submission))
	}
	return result, nil
}

func (s *submissionService) Show(ctx context.Context, id string) (*dto.ShowSubmissionResponse, error) {
	const op = "submission.Show"

	submission, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	return mapper.ToShowSubmissionResponse(submission), nil
}

// UpdateStatus changes the review status and records the transition as a
// comment on the submission's annotation trail.
func (s *submissionService) UpdateStatus(ctx context.Context, id string, author dto.Author, req *dto.UpdateSubmissionStatusRequest) (*dto.UpdateSubmissionStatusResponse, error) {
	const op = "submission.UpdateStatus"

	newStatus := entity.SubmissionStatus(req.Status)
	if !validStatuses[newStatus] {
		return nil, apperror.New(apperror.KindValidation, op, fmt.Sprintf("unknown status %q", req.Status))
	}

	submission, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	oldStatus := submission.Status
	if oldStatus == newStatus {
		return &dto.UpdateSubmissionStatusResponse{Id: id, Status: string(newStatus)}, nil
	}

	if err := s.submissionRepo.Merge(ctx, id, map[string]interface{}{"status": newStatus}); err != nil {
		return nil, apperror.Classify(op, err)
	}

	_, err = s.annotationService.AddStatusChangeComment(ctx, id, author, &dto.AddStatusChangeCommentRequest{
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Reason:    req.Reason,
	})
	if err != nil {
		// The status change itself is committed; only the trail entry failed.
		s.logger.Warn("SubmissionService", "status change comment failed", map[string]interface{}{
			"submission_id": id,
			"error":         err.Error(),
		})
	}

	return &dto.UpdateSubmissionStatusResponse{Id: id, Status: string(newStatus)}, nil
}

// SetFlag toggles the review flag and records who flipped it and why.
func (s *submissionService) SetFlag(ctx context.Context, id string, author dto.Author, req *dto.AddFlagCommentRequest) error {
	const op = "submission.SetFlag"

	if _, err := s.load(ctx, op, id); err != nil {
		return err
	}

	if err := s.submissionRepo.Merge(ctx, id, map[string]interface{}{"is_flagged": req.Flagged}); err != nil {
		return apperror.Classify(op, err)
	}

	if _, err := s.annotationService.AddFlagComment(ctx, id, author, req); err != nil {
		s.logger.Warn("SubmissionService", "flag comment failed", map[string]interface{}{
			"submission_id": id,
			"error":         err.Error(),
		})
	}
	return nil
}

func (s *submissionService) load(ctx context.Context, op, id string) (*entity.Submission, error) {
	if id == "" {
		return nil, apperror.New(apperror.KindValidation, op, "submission id is required")
	}
	submission, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}
	if submission == nil || submission.IsDeleted {
		return nil, apperror.New(apperror.KindNotFound, op, "submission not found")
	}
	return submission, nil
}
