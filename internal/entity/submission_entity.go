package entity

import (
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type SubmissionStatus string

const (
	SubmissionStatusPending     SubmissionStatus = "pending"
	SubmissionStatusInReview    SubmissionStatus = "in_review"
	SubmissionStatusSelected    SubmissionStatus = "selected"
	SubmissionStatusShortlisted SubmissionStatus = "shortlisted"
	SubmissionStatusRejected    SubmissionStatus = "rejected"
)

// SubmissionRef builds the record id linking an annotation to its submission.
func SubmissionRef(id string) models.RecordID {
	return models.NewRecordID("submission", id)
}

// Submission is one film submission record. AverageScore and ReviewCount are
// denormalized aggregates recomputed by the score aggregate worker.
type Submission struct {
	ID             *models.RecordID `json:"id,omitempty"`
	Title          string           `json:"title"`
	Director       string           `json:"director"`
	Synopsis       string           `json:"synopsis"`
	Category       string           `json:"category"`
	DurationMin    int              `json:"duration_min"`
	Status         SubmissionStatus `json:"status"`
	IsFlagged      bool             `json:"is_flagged"`
	SubmitterName  string           `json:"submitter_name"`
	SubmitterEmail string           `json:"submitter_email"`
	AverageScore   float64          `json:"average_score"`
	ReviewCount    int              `json:"review_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
	IsDeleted      bool             `json:"is_deleted"`
}

// RecordKey returns the key part of the submission's record id as a string.
func (s *Submission) RecordKey() string {
	if s.ID == nil {
		return ""
	}
	return fmt.Sprint(s.ID.ID)
}
