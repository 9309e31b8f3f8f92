package entity

import (
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

type AnnotationType string

const (
	AnnotationTypeGeneral      AnnotationType = "general"
	AnnotationTypeScoring      AnnotationType = "scoring"
	AnnotationTypeStatusChange AnnotationType = "status_change"
	AnnotationTypeFlag         AnnotationType = "flag"
)

// ScoreBreakdown is the persisted score shape. The stored field is named
// "humanEffort" for historical reasons; the public API exposes it as "overall".
// Older records may carry "overall" directly, so both are kept readable.
type ScoreBreakdown struct {
	Technical  int  `json:"technical"`
	Story      int  `json:"story"`
	Creativity int  `json:"creativity"`
	Chiangmai  int  `json:"chiangmai"`
	HumanEffort *int `json:"humanEffort,omitempty"`
	Overall    int  `json:"overall,omitempty"`
	TotalScore int  `json:"totalScore"`
}

// EditSnapshot captures the state of a scoring comment immediately before an edit.
type EditSnapshot struct {
	EditedAt        time.Time       `json:"edited_at"`
	PreviousContent string          `json:"previous_content"`
	PreviousScores  *ScoreBreakdown `json:"previous_scores,omitempty"`
	EditedBy        string          `json:"edited_by"`
}

// Annotation is one comment/score/status-change/flag record attached to a submission.
// Records are never physically removed; IsDeleted is the visibility flag.
type Annotation struct {
	ID          *models.RecordID       `json:"id,omitempty"`
	Submission  models.RecordID        `json:"submission"`
	AuthorId    string                 `json:"author_id"`
	AuthorName  string                 `json:"author_name"`
	AuthorEmail string                 `json:"author_email"`
	Type        AnnotationType         `json:"type"`
	Content     string                 `json:"content"`
	Scores      *ScoreBreakdown        `json:"scores,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
	IsEdited    bool                   `json:"is_edited"`
	IsDeleted   bool                   `json:"is_deleted"`
	EditHistory []EditSnapshot         `json:"edit_history,omitempty"`
}

// RecordKey returns the key part of the annotation's record id as a string.
func (a *Annotation) RecordKey() string {
	if a.ID == nil {
		return ""
	}
	return fmt.Sprint(a.ID.ID)
}

// EditCount reads the editCount metadata counter, tolerating the numeric
// types the store may hand back.
func (a *Annotation) EditCount() int {
	if a.Metadata == nil {
		return 0
	}
	switch v := a.Metadata["editCount"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
