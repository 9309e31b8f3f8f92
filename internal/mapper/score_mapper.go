package mapper

import (
	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"
)

// The persisted score field is named "humanEffort" while the public API calls
// it "overall". The two functions below are the only place in the codebase
// that knows about that divergence.

// ToStorageScores converts the public score shape into the persisted shape.
// Missing numeric fields are zero-valued by construction.
func ToStorageScores(s *dto.Scores) *entity.ScoreBreakdown {
	if s == nil {
		return nil
	}
	humanEffort := s.Overall
	return &entity.ScoreBreakdown{
		Technical:   s.Technical,
		Story:       s.Story,
		Creativity:  s.Creativity,
		Chiangmai:   s.Chiangmai,
		HumanEffort: &humanEffort,
		TotalScore:  s.TotalScore,
	}
}

// ToAppScores converts the persisted shape back to the public shape.
// Returns nil when the input is absent. Falls back to a same-named "overall"
// field when "humanEffort" is missing, for records written before the rename.
func ToAppScores(s *entity.ScoreBreakdown) *dto.Scores {
	if s == nil {
		return nil
	}
	overall := s.Overall
	if s.HumanEffort != nil {
		overall = *s.HumanEffort
	}
	return &dto.Scores{
		Technical:  s.Technical,
		Story:      s.Story,
		Creativity: s.Creativity,
		Chiangmai:  s.Chiangmai,
		Overall:    overall,
		TotalScore: s.TotalScore,
	}
}
