package service

import (
	"context"
	"encoding/json"

	"festival-cms-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService enqueues score aggregate recompute jobs on the in-process
// watermill bus. Publishing is best effort; a lost job only delays the next
// aggregate refresh.
type IPublisherService interface {
	PublishScoreRecompute(ctx context.Context, submissionID string) error
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewPublisherService(pubSub *gochannel.GoChannel, topicName string) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (p *publisherService) PublishScoreRecompute(ctx context.Context, submissionID string) error {
	payload, err := json.Marshal(dto.PublishScoreRecomputeMessage{SubmissionId: submissionID})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	return p.pubSub.Publish(p.topicName, msg)
}
