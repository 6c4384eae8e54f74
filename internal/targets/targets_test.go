package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func baseStats() Stats {
	return Stats{
		Age:           25,
		Weight:        75,
		Height:        180,
		Gender:        GenderMale,
		ActivityLevel: ActivityLight,
		Goal:          GoalMaintain,
	}
}

func TestCalculate_MifflinStJeor(t *testing.T) {
	s := baseStats()

	// 10*75 + 6.25*180 - 5*25 + 5
	assert.InDelta(t, 1755.0, BMR(s), 1e-9)
	assert.InDelta(t, 2413.125, TDEE(s), 1e-9)

	got := Calculate(s)
	assert.Equal(t, Targets{
		Calories: 2413,
		Protein:  150,
		Fat:      60,
		Carbs:    318,
	}, got)
}

func TestCalculate_Female(t *testing.T) {
	s := baseStats()
	s.Gender = GenderFemale
	assert.InDelta(t, 1589.0, BMR(s), 1e-9)
}

func TestCalculate_KatchMcArdle(t *testing.T) {
	s := baseStats()
	bf := 20.0
	s.BodyFat = &bf

	// lean mass 60kg
	assert.InDelta(t, 370+21.6*60, BMR(s), 1e-9)

	zero := 0.0
	s.BodyFat = &zero
	assert.InDelta(t, 1755.0, BMR(s), 1e-9, "zero body fat falls back to Mifflin-St Jeor")
}

func TestCalculate_GoalAdjustments(t *testing.T) {
	for _, weight := range []float64{50, 63.3, 75, 92.7, 120} {
		s := baseStats()
		s.Weight = weight

		s.Goal = GoalMaintain
		maintain := Calculate(s)
		s.Goal = GoalCut
		cut := Calculate(s)
		s.Goal = GoalBulk
		bulk := Calculate(s)

		assert.Equal(t, maintain.Calories-500, cut.Calories)
		assert.Equal(t, maintain.Calories+300, bulk.Calories)
		assert.Equal(t, maintain.Protein, cut.Protein)
		assert.Equal(t, maintain.Fat, bulk.Fat)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	s := baseStats()
	bf := 18.5
	s.BodyFat = &bf
	require.Equal(t, Calculate(s), Calculate(s))
}

func TestCalculate_CarbsFlooredAtZero(t *testing.T) {
	s := Stats{
		Age:           60,
		Weight:        200,
		Height:        150,
		Gender:        GenderFemale,
		ActivityLevel: ActivitySedentary,
		Goal:          GoalCut,
	}
	got := Calculate(s)
	assert.Equal(t, 400, got.Protein)
	assert.Equal(t, 160, got.Fat)
	assert.Less(t, got.Calories, got.Protein*4+got.Fat*9)
	assert.Zero(t, got.Carbs)
}

func TestGoal_IsValid(t *testing.T) {
	assert.True(t, GoalCut.IsValid())
	assert.True(t, GoalMaintain.IsValid())
	assert.True(t, GoalBulk.IsValid())
	assert.False(t, Goal("shred").IsValid())
}
