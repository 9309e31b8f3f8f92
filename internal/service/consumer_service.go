package service

import (
	"context"
	"encoding/json"
	"math"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
	"festival-cms-be/internal/pkg/logger"
	"festival-cms-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService recomputes the denormalized score aggregates of a
// submission whenever a scoring comment is created, edited or deleted.
// Only the newest visible score of each reviewer counts.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	annotationRepo contract.AnnotationRepository
	submissionRepo contract.SubmissionRepository
	logger         logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	annotationRepo contract.AnnotationRepository,
	submissionRepo contract.SubmissionRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		annotationRepo: annotationRepo,
		submissionRepo: submissionRepo,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishScoreRecomputeMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "failed to unmarshal recompute message", map[string]interface{}{"error": err.Error()})
		// A malformed message never becomes valid; ack to stop the retry loop.
		msg.Ack()
		return
	}

	scores, err := cs.annotationRepo.FindVisibleScores(ctx, payload.SubmissionId)
	if err != nil {
		cs.logger.Error("ConsumerService", "failed to load visible scores", map[string]interface{}{
			"submission_id": payload.SubmissionId,
			"error":         err.Error(),
		})
		msg.Nack()
		return
	}

	average, count := AggregateScores(scores)

	err = cs.submissionRepo.Merge(ctx, payload.SubmissionId, map[string]interface{}{
		"average_score": average,
		"review_count":  count,
	})
	if err != nil {
		cs.logger.Error("ConsumerService", "failed to store aggregates", map[string]interface{}{
			"submission_id": payload.SubmissionId,
			"error":         err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", "score aggregates recomputed", map[string]interface{}{
		"submission_id": payload.SubmissionId,
		"average_score": average,
		"review_count":  count,
	})
	msg.Ack()
}

// AggregateScores reduces a visible score list to (average total, reviewer
// count), keeping only the newest score per reviewer. The average is rounded
// to two decimals.
func AggregateScores(scores []*entity.Annotation) (float64, int) {
	latest := make(map[string]*entity.Annotation)
	for _, a := range scores {
		if a == nil || a.IsDeleted || a.Type != entity.AnnotationTypeScoring || a.Scores == nil {
			continue
		}
		current, ok := latest[a.AuthorId]
		if !ok || a.CreatedAt.After(current.CreatedAt) {
			latest[a.AuthorId] = a
		}
	}

	if len(latest) == 0 {
		return 0, 0
	}

	sum := 0
	for _, a := range latest {
		sum += a.Scores.TotalScore
	}
	average := float64(sum) / float64(len(latest))
	return math.Round(average*100) / 100, len(latest)
}
