package dto

// PublishScoreRecomputeMessage asks the background worker to recompute the
// denormalized score aggregates of one submission.
type PublishScoreRecomputeMessage struct {
	SubmissionId string `json:"submission_id"`
}
