package dto

import "time"

type CreateSubmissionRequest struct {
	Title          string `json:"title" validate:"required"`
	Director       string `json:"director" validate:"required"`
	Synopsis       string `json:"synopsis"`
	Category       string `json:"category" validate:"required"`
	DurationMin    int    `json:"duration_min" validate:"min=0"`
	SubmitterName  string `json:"submitter_name" validate:"required"`
	SubmitterEmail string `json:"submitter_email" validate:"required,email"`
}

type CreateSubmissionResponse struct {
	Id string `json:"id"`
}

type SubmissionListItem struct {
	Id           string     `json:"id"`
	Title        string     `json:"title"`
	Director     string     `json:"director"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	IsFlagged    bool       `json:"is_flagged"`
	AverageScore float64    `json:"average_score"`
	ReviewCount  int        `json:"review_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type ShowSubmissionResponse struct {
	Id             string     `json:"id"`
	Title          string     `json:"title"`
	Director       string     `json:"director"`
	Synopsis       string     `json:"synopsis"`
	Category       string     `json:"category"`
	DurationMin    int        `json:"duration_min"`
	Status         string     `json:"status"`
	IsFlagged      bool       `json:"is_flagged"`
	SubmitterName  string     `json:"submitter_name"`
	SubmitterEmail string     `json:"submitter_email"`
	AverageScore   float64    `json:"average_score"`
	ReviewCount    int        `json:"review_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type UpdateSubmissionStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

type UpdateSubmissionStatusResponse struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

// ProgrammeEntry is the public listing shape for selected films.
type ProgrammeEntry struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Director    string `json:"director"`
	Synopsis    string `json:"synopsis"`
	Category    string `json:"category"`
	DurationMin int    `json:"duration_min"`
}
