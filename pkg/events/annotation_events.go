package events

import "time"

const (
	TypeCommentAdded      = "COMMENT_ADDED"
	TypeScoreSubmitted    = "SCORE_SUBMITTED"
	TypeScoreUpdated      = "SCORE_UPDATED"
	TypeCommentDeleted    = "COMMENT_DELETED"
	TypeSubmissionFlagged = "SUBMISSION_FLAGGED"
	TypeStatusChanged     = "STATUS_CHANGED"
)

func NewCommentAddedEvent(submissionID, annotationID, authorID, commentType string) Event {
	return BaseEvent{
		Type: TypeCommentAdded,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"annotation_id": annotationID,
			"author_id":     authorID,
			"comment_type":  commentType,
		},
		OccurredAt: time.Now(),
	}
}

func NewScoreSubmittedEvent(submissionID, annotationID, authorID string, totalScore int) Event {
	return BaseEvent{
		Type: TypeScoreSubmitted,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"annotation_id": annotationID,
			"author_id":     authorID,
			"total_score":   totalScore,
		},
		OccurredAt: time.Now(),
	}
}

func NewScoreUpdatedEvent(submissionID, annotationID, authorID string, totalScore int) Event {
	return BaseEvent{
		Type: TypeScoreUpdated,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"annotation_id": annotationID,
			"author_id":     authorID,
			"total_score":   totalScore,
		},
		OccurredAt: time.Now(),
	}
}

func NewCommentDeletedEvent(submissionID, annotationID, deletedBy string) Event {
	return BaseEvent{
		Type: TypeCommentDeleted,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"annotation_id": annotationID,
			"deleted_by":    deletedBy,
		},
		OccurredAt: time.Now(),
	}
}

func NewSubmissionFlaggedEvent(submissionID, authorID, reason string, flagged bool) Event {
	return BaseEvent{
		Type: TypeSubmissionFlagged,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"author_id":     authorID,
			"reason":        reason,
			"flagged":       flagged,
		},
		OccurredAt: time.Now(),
	}
}

func NewStatusChangedEvent(submissionID, authorID, oldStatus, newStatus, reason string) Event {
	return BaseEvent{
		Type: TypeStatusChanged,
		Data: map[string]interface{}{
			"submission_id": submissionID,
			"author_id":     authorID,
			"old_status":    oldStatus,
			"new_status":    newStatus,
			"reason":        reason,
		},
		OccurredAt: time.Now(),
	}
}
