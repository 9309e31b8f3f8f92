package mapper

import (
	"fmt"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
)

func ToAnnotationResponse(a *entity.Annotation) *dto.AnnotationResponse {
	if a == nil {
		return nil
	}
	res := &dto.AnnotationResponse{
		Id:           a.RecordKey(),
		SubmissionId: fmt.Sprint(a.Submission.ID),
		AuthorId:     a.AuthorId,
		AuthorName:   a.AuthorName,
		AuthorEmail:  a.AuthorEmail,
		Type:         string(a.Type),
		Content:      a.Content,
		Scores:       ToAppScores(a.Scores),
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		IsEdited:     a.IsEdited,
		IsDeleted:    a.IsDeleted,
	}
	for _, snap := range a.EditHistory {
		res.EditHistory = append(res.EditHistory, dto.EditSnapshotResponse{
			EditedAt:        snap.EditedAt,
			PreviousContent: snap.PreviousContent,
			PreviousScores:  ToAppScores(snap.PreviousScores),
			EditedBy:        snap.EditedBy,
		})
	}
	return res
}

func ToAnnotationResponses(list []*entity.Annotation) []*dto.AnnotationResponse {
	result := make([]*dto.AnnotationResponse, 0, len(list))
	for _, a := range list {
		result = append(result, ToAnnotationResponse(a))
	}
	return result
}

func ToShowSubmissionResponse(s *entity.Submission) *dto.ShowSubmissionResponse {
	return &dto.ShowSubmissionResponse{
		Id:             fmt.Sprint(s.ID.ID),
		Title:          s.Title,
		Director:       s.Director,
		Synopsis:       s.Synopsis,
		Category:       s.Category,
		DurationMin:    s.DurationMin,
		Status:         string(s.Status),
		IsFlagged:      s.IsFlagged,
		SubmitterName:  s.SubmitterName,
		SubmitterEmail: s.SubmitterEmail,
		AverageScore:   s.AverageScore,
		ReviewCount:    s.ReviewCount,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func ToSubmissionListItem(s *entity.Submission) *dto.SubmissionListItem {
	return &dto.SubmissionListItem{
		Id:           fmt.Sprint(s.ID.ID),
		Title:        s.Title,
		Director:     s.Director,
		Category:     s.Category,
		Status:       string(s.Status),
		IsFlagged:    s.IsFlagged,
		AverageScore: s.AverageScore,
		ReviewCount:  s.ReviewCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
