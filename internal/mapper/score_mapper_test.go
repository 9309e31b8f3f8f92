package mapper

import (
	"testing"

	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestScoreMapperRoundTrip(t *testing.T) {
	in := &dto.Scores{
		Technical:  8,
		Story:      7,
		Creativity: 9,
		Chiangmai:  6,
		Overall:    8,
		TotalScore: 38,
	}

	stored := ToStorageScores(in)
	assert.NotNil(t, stored.HumanEffort)
	assert.Equal(t, 8, *stored.HumanEffort)

	out := ToAppScores(stored)
	assert.Equal(t, in, out)
}

func TestToStorageScoresRenamesOverall(t *testing.T) {
	stored := ToStorageScores(&dto.Scores{Overall: 5})
	assert.NotNil(t, stored.HumanEffort)
	assert.Equal(t, 5, *stored.HumanEffort)
	assert.Zero(t, stored.Overall)
}

func TestToAppScoresLegacyOverallFallback(t *testing.T) {
	// Records written before the rename carry "overall" directly.
	legacy := &entity.ScoreBreakdown{
		Technical:  3,
		Story:      4,
		Creativity: 5,
		Chiangmai:  6,
		Overall:    7,
		TotalScore: 25,
	}

	out := ToAppScores(legacy)
	assert.Equal(t, 7, out.Overall)
}

func TestToAppScoresPrefersHumanEffort(t *testing.T) {
	humanEffort := 9
	stored := &entity.ScoreBreakdown{
		HumanEffort: &humanEffort,
		Overall:     2,
	}

	out := ToAppScores(stored)
	assert.Equal(t, 9, out.Overall)
}

func TestScoreMapperNilPassthrough(t *testing.T) {
	assert.Nil(t, ToStorageScores(nil))
	assert.Nil(t, ToAppScores(nil))
}

func TestToStorageScoresZeroValuedFields(t *testing.T) {
	stored := ToStorageScores(&dto.Scores{})
	assert.Zero(t, stored.Technical)
	assert.Zero(t, stored.Story)
	assert.Zero(t, stored.Creativity)
	assert.Zero(t, stored.Chiangmai)
	assert.NotNil(t, stored.HumanEffort)
	assert.Zero(t, *stored.HumanEffort)
}
