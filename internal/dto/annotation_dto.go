package dto

import (
	"time"

	"github.com/google/uuid"
)

// Author is the authenticated identity attached to every annotation write.
// It is taken from the verified JWT claims, never from the request body.
type Author struct {
	Id    uuid.UUID
	Name  string
	Email string
}

// Scores is the public score shape. The persisted shape renames "overall"
// to "humanEffort"; the score mapper isolates everything else from that.
type Scores struct {
	Technical  int `json:"technical" validate:"min=0,max=10"`
	Story      int `json:"story" validate:"min=0,max=10"`
	Creativity int `json:"creativity" validate:"min=0,max=10"`
	Chiangmai  int `json:"chiangmai" validate:"min=0,max=10"`
	Overall    int `json:"overall" validate:"min=0,max=10"`
	TotalScore int `json:"total_score"`
}

type AddCommentRequest struct {
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type AddStatusChangeCommentRequest struct {
	OldStatus string `json:"old_status" validate:"required"`
	NewStatus string `json:"new_status" validate:"required"`
	Reason    string `json:"reason"`
}

type AddFlagCommentRequest struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

type AddScoringCommentRequest struct {
	Scores   *Scores                `json:"scores" validate:"required"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UpdateCommentRequest struct {
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UpdateScoringCommentRequest struct {
	Scores  *Scores `json:"scores" validate:"required"`
	Content string  `json:"content"`
}

type AddCommentResponse struct {
	Id string `json:"id"`
}

type EditSnapshotResponse struct {
	EditedAt        time.Time `json:"edited_at"`
	PreviousContent string    `json:"previous_content"`
	PreviousScores  *Scores   `json:"previous_scores,omitempty"`
	EditedBy        string    `json:"edited_by"`
}

type AnnotationResponse struct {
	Id          string                 `json:"id"`
	SubmissionId string                `json:"submission_id"`
	AuthorId    string                 `json:"author_id"`
	AuthorName  string                 `json:"author_name"`
	AuthorEmail string                 `json:"author_email"`
	Type        string                 `json:"type"`
	Content     string                 `json:"content"`
	Scores      *Scores                `json:"scores,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
	IsEdited    bool                   `json:"is_edited"`
	IsDeleted   bool                   `json:"is_deleted"`
	EditHistory []EditSnapshotResponse `json:"edit_history,omitempty"`
}

// ScoreCheckResult is the create-or-update decision for a reviewer's score.
type ScoreCheckResult struct {
	Exists       bool                `json:"exists"`
	Annotation   *AnnotationResponse `json:"annotation,omitempty"`
	ShouldUpdate bool                `json:"should_update"`
	Reason       string              `json:"reason"`
}
