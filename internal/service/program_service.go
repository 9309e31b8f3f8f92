package service

import (
	"context"
	"time"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/apperror"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

const programmeCacheKey = "programme:selected"

type IProgramService interface {
	Programme(ctx context.Context) ([]*dto.ProgrammeEntry, error)
	Invalidate()
}

// programService serves the public festival programme, the list of selected
// films. The listing is read far more often than it changes, so results are
// cached for a short TTL.
type programService struct {
	submissionRepo contract.SubmissionRepository
	cache          *cache.Cache
	logger         logger.ILogger
}

func NewProgramService(submissionRepo contract.SubmissionRepository, ttl time.Duration, log logger.ILogger) IProgramService {
	return &programService{
		submissionRepo: submissionRepo,
		cache:          cache.New(ttl, 2*ttl),
		logger:         log,
	}
}

func (s *programService) Programme(ctx context.Context) ([]*dto.ProgrammeEntry, error) {
	const op = "program.Programme"

	if cached, found := s.cache.Get(programmeCacheKey); found {
		return cached.([]*dto.ProgrammeEntry), nil
	}

	list, err := s.submissionRepo.FindByStatus(ctx, entity.SubmissionStatusSelected)
	if err != nil {
		return nil, apperror.Classify(op, err)
	}

	entries := make([]*dto.ProgrammeEntry, 0, len(list))
	for _, submission := range list {
		if submission.ID == nil {
			continue
		}
		entries = append(entries, &dto.ProgrammeEntry{
			Id:          submission.RecordKey(),
			Title:       submission.Title,
			Director:    submission.Director,
			Synopsis:    submission.Synopsis,
			Category:    submission.Category,
			DurationMin: submission.DurationMin,
		})
	}

	s.cache.SetDefault(programmeCacheKey, entries)
	return entries, nil
}

// Invalidate drops the cached programme, used when a selection changes.
func (s *programService) Invalidate() {
	s.cache.Delete(programmeCacheKey)
}
